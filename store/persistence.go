package store

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chazu/prism/visitor"
)

// ---------------------------------------------------------------------------
// Persistence: sqlite-backed fingerprint store
// ---------------------------------------------------------------------------

// Persistence stores fingerprint rows in a sqlite database so they
// survive across processes (e.g. a shared compiled-artifact cache).
type Persistence struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) a fingerprint database.
func Open(dbPath string) (*Persistence, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS fingerprints (
		digest     TEXT PRIMARY KEY,
		label      TEXT NOT NULL,
		session    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		record     BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Persistence{db: db, dbPath: dbPath}, nil
}

// Close closes the database.
func (p *Persistence) Close() error {
	return p.db.Close()
}

// Put upserts a row.
func (p *Persistence) Put(row *Row) error {
	_, err := p.db.Exec(
		`INSERT INTO fingerprints (digest, label, session, created_at, record)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(digest) DO UPDATE SET
		   label = excluded.label,
		   session = excluded.session,
		   created_at = excluded.created_at,
		   record = excluded.record`,
		visitor.DigestHex(row.Digest),
		row.Label,
		row.SessionID,
		row.CreatedAt.UTC().Format(time.RFC3339Nano),
		row.Record,
	)
	if err != nil {
		return fmt.Errorf("storing fingerprint: %w", err)
	}
	return nil
}

// Get loads a row by digest.
func (p *Persistence) Get(d visitor.Digest) (*Row, error) {
	return p.scanOne(p.db.QueryRow(
		`SELECT digest, label, session, created_at, record
		 FROM fingerprints WHERE digest = ?`,
		visitor.DigestHex(d),
	))
}

// GetHex loads a row by hex digest string.
func (p *Persistence) GetHex(digestHex string) (*Row, error) {
	return p.scanOne(p.db.QueryRow(
		`SELECT digest, label, session, created_at, record
		 FROM fingerprints WHERE digest = ?`,
		digestHex,
	))
}

func (p *Persistence) scanOne(row *sql.Row) (*Row, error) {
	var digestHex, label, session, createdAt string
	var record []byte
	if err := row.Scan(&digestHex, &label, &session, &createdAt, &record); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading fingerprint: %w", err)
	}
	return rowFromColumns(digestHex, label, session, createdAt, record)
}

// List returns all rows ordered by digest.
func (p *Persistence) List() ([]*Row, error) {
	rows, err := p.db.Query(
		`SELECT digest, label, session, created_at, record
		 FROM fingerprints ORDER BY digest`)
	if err != nil {
		return nil, fmt.Errorf("listing fingerprints: %w", err)
	}
	defer rows.Close()

	var out []*Row
	for rows.Next() {
		var digestHex, label, session, createdAt string
		var record []byte
		if err := rows.Scan(&digestHex, &label, &session, &createdAt, &record); err != nil {
			return nil, fmt.Errorf("listing fingerprints: %w", err)
		}
		r, err := rowFromColumns(digestHex, label, session, createdAt, record)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteSession removes every row of a session. Returns the number of
// rows removed.
func (p *Persistence) DeleteSession(sessionID string) (int64, error) {
	res, err := p.db.Exec(`DELETE FROM fingerprints WHERE session = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("deleting session: %w", err)
	}
	return res.RowsAffected()
}

// Verify re-decodes every stored record blob, reporting the first
// corruption found.
func (p *Persistence) Verify() (int, error) {
	all, err := p.List()
	if err != nil {
		return 0, err
	}
	for _, row := range all {
		if _, err := DecodeRecord(row.Record); err != nil {
			return len(all), fmt.Errorf("verify %s: %w", visitor.DigestHex(row.Digest), err)
		}
	}
	return len(all), nil
}

func rowFromColumns(digestHex, label, session, createdAt string, record []byte) (*Row, error) {
	raw, err := hex.DecodeString(digestHex)
	if err != nil || len(raw) != len(visitor.Digest{}) {
		return nil, fmt.Errorf("loading fingerprint: bad digest %q", digestHex)
	}
	var d visitor.Digest
	copy(d[:], raw)

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("loading fingerprint: bad timestamp %q", createdAt)
	}

	return &Row{
		Digest:    d,
		Label:     label,
		SessionID: session,
		CreatedAt: ts,
		Record:    record,
	}, nil
}
