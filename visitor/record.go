package visitor

import (
	"fmt"
	"strings"

	"github.com/chazu/prism/runtime"
)

// ---------------------------------------------------------------------------
// Visit events and records
// ---------------------------------------------------------------------------

// EventKind tags one visit event.
type EventKind uint8

const (
	EventHash EventKind = iota
	EventName
	EventRef
	EventNamedRef
	EventErr
)

func (k EventKind) String() string {
	switch k {
	case EventHash:
		return "Hash"
	case EventName:
		return "Name"
	case EventRef:
		return "Ref"
	case EventNamedRef:
		return "NamedRef"
	case EventErr:
		return "Err"
	}
	return "Unknown"
}

// Event is one tagged event in a decomposition pass. Exactly the
// fields implied by Kind are meaningful.
type Event struct {
	Kind   EventKind
	Hash   Digest
	Name   string
	Entity runtime.Entity
	Err    string
}

// Equal compares two events structurally. Entity comparison is
// identity comparison, never structural.
func (e Event) Equal(other Event) bool {
	if e.Kind != other.Kind {
		return false
	}
	switch e.Kind {
	case EventHash:
		return e.Hash == other.Hash
	case EventName:
		return e.Name == other.Name
	case EventRef:
		return e.Entity == other.Entity
	case EventNamedRef:
		return e.Name == other.Name && e.Entity == other.Entity
	case EventErr:
		return e.Err == other.Err
	}
	return true
}

// String renders the event as one diagnostic line.
func (e Event) String() string {
	switch e.Kind {
	case EventHash:
		return "Hash(" + DigestHex(e.Hash)[:16] + ")"
	case EventName:
		return "Name(" + e.Name + ")"
	case EventRef:
		return "Ref(" + e.Entity.Label() + ")"
	case EventNamedRef:
		return fmt.Sprintf("NamedRef(%s=%s)", e.Name, e.Entity.Label())
	case EventErr:
		return "Err(" + e.Err + ")"
	}
	return "<unknown>"
}

// Record is the ordered event sequence produced by decomposing one
// entity. It is the unit compared for instability detection.
type Record []Event

// Equal compares two records structurally, event by event.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if !r[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Lines renders each event on its own line.
func (r Record) Lines() []string {
	lines := make([]string, len(r))
	for i, e := range r {
		lines[i] = e.String()
	}
	return lines
}

// String renders the record as a newline-terminated diagnostic dump.
func (r Record) String() string {
	var sb strings.Builder
	for _, e := range r {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ---------------------------------------------------------------------------
// Sink implementations
// ---------------------------------------------------------------------------

// Recorder captures events into a Record.
type Recorder struct {
	Events Record
}

func (r *Recorder) Hash(h Digest) {
	r.Events = append(r.Events, Event{Kind: EventHash, Hash: h})
}

func (r *Recorder) Name(name string) {
	r.Events = append(r.Events, Event{Kind: EventName, Name: name})
}

func (r *Recorder) Ref(e runtime.Entity) {
	r.Events = append(r.Events, Event{Kind: EventRef, Entity: e})
}

func (r *Recorder) NamedRef(name string, e runtime.Entity) {
	r.Events = append(r.Events, Event{Kind: EventNamedRef, Name: name, Entity: e})
}

func (r *Recorder) Err(msg string) {
	r.Events = append(r.Events, Event{Kind: EventErr, Err: msg})
}

// SinkFuncs adapts five callbacks to the Sinks interface. Nil
// callbacks drop their events.
type SinkFuncs struct {
	OnHash     func(h Digest)
	OnName     func(name string)
	OnRef      func(e runtime.Entity)
	OnNamedRef func(name string, e runtime.Entity)
	OnErr      func(msg string)
}

func (s SinkFuncs) Hash(h Digest) {
	if s.OnHash != nil {
		s.OnHash(h)
	}
}

func (s SinkFuncs) Name(name string) {
	if s.OnName != nil {
		s.OnName(name)
	}
}

func (s SinkFuncs) Ref(e runtime.Entity) {
	if s.OnRef != nil {
		s.OnRef(e)
	}
}

func (s SinkFuncs) NamedRef(name string, e runtime.Entity) {
	if s.OnNamedRef != nil {
		s.OnNamedRef(name, e)
	}
}

func (s SinkFuncs) Err(msg string) {
	if s.OnErr != nil {
		s.OnErr(msg)
	}
}
