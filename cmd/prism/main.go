// Prism CLI - inspects a persisted fingerprint store
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/prism/store"
)

func main() {
	dbPath := flag.String("db", "prism.db", "Path to the fingerprint database")
	list := flag.Bool("list", false, "List stored fingerprints")
	show := flag.String("show", "", "Show the visit record for a hex digest")
	verify := flag.Bool("verify", false, "Re-decode every stored record blob")
	dropSession := flag.String("delete-session", "", "Delete every fingerprint of a session")
	verbosity := flag.Int("v", 0, "Log verbosity")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: prism [options]\n\n")
		fmt.Fprintf(os.Stderr, "Inspects a prism fingerprint database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  prism -db cache.db -list            # List fingerprints\n")
		fmt.Fprintf(os.Stderr, "  prism -db cache.db -show <digest>   # Dump one visit record\n")
		fmt.Fprintf(os.Stderr, "  prism -db cache.db -verify          # Check blob integrity\n")
		fmt.Fprintf(os.Stderr, "  prism -db cache.db -delete-session <id>   # Drop one session\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	p, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	switch {
	case *list:
		rows, err := p.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, row := range rows {
			fmt.Printf("%x  %-40s  session=%s  %s\n",
				row.Digest[:8], row.Label, row.SessionID,
				row.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("%d fingerprints\n", len(rows))

	case *show != "":
		row, err := p.GetHex(*show)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		blobs, err := store.DecodeRecord(row.Record)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s (session=%s)\n", row.Label, row.SessionID)
		for _, b := range blobs {
			fmt.Printf("  %s\n", b)
		}

	case *dropSession != "":
		n, err := p.DeleteSession(*dropSession)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d fingerprints deleted\n", n)

	case *verify:
		n, err := p.Verify()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Verify failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d records OK\n", n)

	default:
		flag.Usage()
		os.Exit(2)
	}
}
