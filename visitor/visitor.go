package visitor

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/prism/runtime"
)

var log = commonlog.GetLogger("prism.visitor")

// maxReportedEntities caps the instability report so a badly broken
// process can't produce an unbounded error payload.
const maxReportedEntities = 1000

const reportColumnWidth = 80

// ---------------------------------------------------------------------------
// Visitor: memoized visiting with instability detection
// ---------------------------------------------------------------------------

// Visitor wraps a Walker with a memoization cache of each entity's
// last-seen event stream. A later visit whose stream differs from the
// cached one is a fatal defect in the host program's assumptions: some
// entity the compiler already fingerprinted changed shape, and any
// cached artifact keyed on the old fingerprint may be wrong.
//
// The cache is an explicit per-Visitor value, not process-global state,
// so independent instances can run concurrently. Cache reads and
// writes happen under the interpreter lock, serialized with traversal.
type Visitor struct {
	walker *Walker
	past   map[runtime.Entity]Record
}

// NewVisitor builds a visitor over a fresh cache.
func NewVisitor(walker *Walker) *Visitor {
	return &Visitor{
		walker: walker,
		past:   make(map[runtime.Entity]Record),
	}
}

// Walker exposes the underlying walker.
func (v *Visitor) Walker() *Walker { return v.walker }

// InstabilityError is the fatal fault raised when one or more memoized
// entities no longer reproduce their recorded event streams.
type InstabilityError struct {
	Unstable int    // number of unstable entities found by the sweep
	Report   string // side-by-side old/new render, capped
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("found %d unstable objects\n%s", e.Unstable, e.Report)
}

// Visit decomposes the entity into the caller's sinks. The first visit
// records the stream; later visits re-walk and compare. On drift,
// Visit sweeps the whole cache and returns an *InstabilityError
// enumerating every currently-unstable entity.
func (v *Visitor) Visit(e runtime.Entity, sinks runtime.Sinks) error {
	var err error

	v.walker.Lock.Locked(func() {
		rec := &Recorder{}
		v.walker.walk(e, rec)

		prior, seen := v.past[e]
		if !seen {
			v.past[e] = rec.Events
		} else if !prior.Equal(rec.Events) {
			err = v.sweep()
			if err == nil {
				// The triggering entity drifted between the comparison
				// and the sweep; report it alone rather than lose the
				// fault.
				err = &InstabilityError{
					Unstable: 1,
					Report:   sideBySide(e.Label(), 0, rec.Events, prior),
				}
			}
			return
		}

		// The recorded stream matched (or is new); replay live into the
		// caller's sinks.
		v.walker.walk(e, sinks)
	})

	return err
}

// VisitRecorded runs Visit captured into a Record.
func (v *Visitor) VisitRecorded(e runtime.Entity) (Record, error) {
	rec := &Recorder{}
	if err := v.Visit(e, rec); err != nil {
		return nil, err
	}
	return rec.Events, nil
}

// Reset clears the memoization cache, returning every entity to the
// unvisited state. Used between independent compilation sessions.
func (v *Visitor) Reset() {
	v.walker.Lock.Locked(func() {
		v.past = make(map[runtime.Entity]Record)
	})
}

// CachedEntities returns the number of memoized entities.
func (v *Visitor) CachedEntities() int {
	var n int
	v.walker.Lock.Locked(func() {
		n = len(v.past)
	})
	return n
}

// sweep re-walks every memoized entity and builds the instability
// report. Returns nil when everything still matches. Caller holds the
// lock.
func (v *Visitor) sweep() error {
	type drift struct {
		e          runtime.Entity
		old, fresh Record
	}
	var unstable []drift

	for e, prior := range v.past {
		rec := &Recorder{}
		v.walker.walk(e, rec)
		if !prior.Equal(rec.Events) {
			unstable = append(unstable, drift{e: e, old: prior, fresh: rec.Events})
		}
	}

	if len(unstable) == 0 {
		return nil
	}

	var sb strings.Builder
	for i, d := range unstable {
		if i >= maxReportedEntities {
			break
		}
		sb.WriteString(sideBySide(d.e.Label(), i, d.fresh, d.old))
	}

	log.Errorf("instability sweep found %d unstable objects", len(unstable))

	return &InstabilityError{
		Unstable: len(unstable),
		Report:   sb.String(),
	}
}

// sideBySide renders an entity's fresh walk next to its recorded one,
// line by line, padded for alignment.
func sideBySide(label string, index int, fresh, recorded Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d -> %s\n", index, label)

	left := fresh.Lines()
	right := recorded.Lines()

	for j := 0; j < len(left) || j < len(right); j++ {
		sb.WriteString("    ")
		if j < len(left) {
			sb.WriteString(pad(left[j], reportColumnWidth))
		} else {
			sb.WriteString(pad("", reportColumnWidth))
		}
		sb.WriteString("   |   ")
		if j < len(right) {
			sb.WriteString(pad(right[j], reportColumnWidth))
		} else {
			sb.WriteString(pad("", reportColumnWidth))
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func pad(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}
