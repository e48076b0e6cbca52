// Package store is a content-addressed index for computed fingerprints
// and their diagnostic visit records, with optional sqlite persistence.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/chazu/prism/visitor"
)

// ErrNotFound indicates the requested fingerprint is not in the store.
var ErrNotFound = errors.New("fingerprint not found")

// cborEncMode is the canonical CBOR encoding used for record blobs, so
// that identical records always serialize to identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// NewSessionID mints an id for one compilation session. Rows carry the
// session so a whole session's fingerprints can be dropped together.
func NewSessionID() string {
	return uuid.New().String()
}

// EventBlob is the serializable form of one visit event. Entities are
// flattened to their diagnostic labels: a persisted record documents a
// fingerprint, it does not reconstruct the object graph.
type EventBlob struct {
	Kind  uint8  `cbor:"kind"`
	Hash  []byte `cbor:"hash,omitempty"`
	Name  string `cbor:"name,omitempty"`
	Label string `cbor:"label,omitempty"`
	Err   string `cbor:"err,omitempty"`
}

// Row is one stored fingerprint.
type Row struct {
	Digest    visitor.Digest
	Label     string
	SessionID string
	CreatedAt time.Time
	Record    []byte // canonical CBOR of []EventBlob
}

// EncodeRecord serializes a visit record to its canonical CBOR blob.
func EncodeRecord(rec visitor.Record) ([]byte, error) {
	blobs := make([]EventBlob, len(rec))
	for i, e := range rec {
		b := EventBlob{Kind: uint8(e.Kind)}
		switch e.Kind {
		case visitor.EventHash:
			h := e.Hash
			b.Hash = h[:]
		case visitor.EventName:
			b.Name = e.Name
		case visitor.EventRef:
			b.Label = e.Entity.Label()
		case visitor.EventNamedRef:
			b.Name = e.Name
			b.Label = e.Entity.Label()
		case visitor.EventErr:
			b.Err = e.Err
		}
		blobs[i] = b
	}
	data, err := cborEncMode.Marshal(blobs)
	if err != nil {
		return nil, fmt.Errorf("store: encode record: %w", err)
	}
	return data, nil
}

// DecodeRecord deserializes a record blob.
func DecodeRecord(data []byte) ([]EventBlob, error) {
	var blobs []EventBlob
	if err := cbor.Unmarshal(data, &blobs); err != nil {
		return nil, fmt.Errorf("store: decode record: %w", err)
	}
	return blobs, nil
}

// String renders a decoded event in the same shape as the live
// diagnostic dump.
func (b EventBlob) String() string {
	switch visitor.EventKind(b.Kind) {
	case visitor.EventHash:
		var d visitor.Digest
		copy(d[:], b.Hash)
		return "Hash(" + visitor.DigestHex(d)[:16] + ")"
	case visitor.EventName:
		return "Name(" + b.Name + ")"
	case visitor.EventRef:
		return "Ref(" + b.Label + ")"
	case visitor.EventNamedRef:
		return "NamedRef(" + b.Name + "=" + b.Label + ")"
	case visitor.EventErr:
		return "Err(" + b.Err + ")"
	}
	return "<unknown>"
}

// ---------------------------------------------------------------------------
// Index: the in-memory content-addressed index
// ---------------------------------------------------------------------------

// Index maps digests to stored rows. It is the in-process backing for
// the persistence layer and usable standalone in tests.
type Index struct {
	mu   sync.RWMutex
	rows map[visitor.Digest]*Row
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{rows: make(map[visitor.Digest]*Row)}
}

// Put adds or replaces a row, keyed by its digest.
func (ix *Index) Put(row *Row) {
	ix.mu.Lock()
	ix.rows[row.Digest] = row
	ix.mu.Unlock()
}

// Get returns the row for a digest.
func (ix *Index) Get(d visitor.Digest) (*Row, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	row, ok := ix.rows[d]
	if !ok {
		return nil, ErrNotFound
	}
	return row, nil
}

// Has reports whether the index contains a digest.
func (ix *Index) Has(d visitor.Digest) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.rows[d]
	return ok
}

// List returns all rows ordered by digest hex, for deterministic
// listings.
func (ix *Index) List() []*Row {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rows := make([]*Row, 0, len(ix.rows))
	for _, row := range ix.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return visitor.DigestHex(rows[i].Digest) < visitor.DigestHex(rows[j].Digest)
	})
	return rows
}

// DeleteSession removes every row belonging to a session and returns
// how many were removed.
func (ix *Index) DeleteSession(sessionID string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var n int
	for d, row := range ix.rows {
		if row.SessionID == sessionID {
			delete(ix.rows, d)
			n++
		}
	}
	return n
}
