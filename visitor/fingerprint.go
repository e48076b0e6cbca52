package visitor

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"math"

	"github.com/chazu/prism/runtime"
)

// ---------------------------------------------------------------------------
// Fingerprinter: folds event streams into stable digests
// ---------------------------------------------------------------------------

// Framing bytes for the digest accumulator. Frozen for the same reason
// the discriminator tags are: changing them invalidates every stored
// fingerprint.
const (
	frameHash     byte = 0x01
	frameName     byte = 0x02
	frameRef      byte = 0x03
	frameNamedRef byte = 0x04
	frameErr      byte = 0x05
	frameCycle    byte = 0x06
)

// Fingerprinter turns entities into digests by folding their visit
// event streams into sha256, recursing through Ref/NamedRef events.
// Recursion is memoized by entity identity, so shared substructure is
// digested once and true reference cycles terminate: an entity already
// on the recursion stack contributes a cycle marker plus the relative
// distance back up the stack instead of recursing. The distance
// depends only on the cycle's own shape, never on what the
// fingerprinter digested earlier or how deep the cycle sits, so a
// cyclic entity digests identically in every pass.
//
// A Fingerprinter is not safe for concurrent use; each fingerprinting
// pass owns one.
type Fingerprinter struct {
	visitor *Visitor

	memo       map[runtime.Entity]Digest
	inProgress map[runtime.Entity]int // entity -> position on stack
	stack      []runtime.Entity
	lowLink    []int // per frame: shallowest back-edge target folded so far

	errorCount int
}

// NewFingerprinter builds a fingerprinter over a memoized visitor.
func NewFingerprinter(v *Visitor) *Fingerprinter {
	return &Fingerprinter{
		visitor:    v,
		memo:       make(map[runtime.Entity]Digest),
		inProgress: make(map[runtime.Entity]int),
	}
}

// ErrorCount returns how many Error events have been folded into
// digests since construction or the last ResetErrorCount. A consumer
// that considers degraded fingerprints unusable should check this
// after fingerprinting.
func (f *Fingerprinter) ErrorCount() int { return f.errorCount }

// ResetErrorCount clears the error counter.
func (f *Fingerprinter) ResetErrorCount() { f.errorCount = 0 }

// Fingerprint computes the entity's digest. An instability fault from
// the underlying visitor aborts the whole computation.
func (f *Fingerprinter) Fingerprint(e runtime.Entity) (Digest, error) {
	if d, ok := f.memo[e]; ok {
		return d, nil
	}

	// Simple constants produce an empty visit stream: the walker tells
	// the consumer nothing because the consumer already has the kind
	// and the value. Digest them directly by value.
	if obj := e.Object(); obj != nil && f.visitor.walker.SimpleConstant(obj) {
		d := constantDigest(obj)
		f.memo[e] = d
		return d, nil
	}

	pos := len(f.stack)
	f.inProgress[e] = pos
	f.stack = append(f.stack, e)
	f.lowLink = append(f.lowLink, pos)
	defer func() {
		delete(f.inProgress, e)
		f.stack = f.stack[:pos]
		f.lowLink = f.lowLink[:pos]
	}()

	acc := &digestSink{f: f, h: sha256.New()}
	if err := f.visitor.Visit(e, acc); err != nil {
		return Digest{}, err
	}
	if acc.err != nil {
		return Digest{}, acc.err
	}

	var d Digest
	acc.h.Sum(d[:0])

	// An entity whose stream folded a back-edge escaping its own frame
	// is inside a cycle someone above us owns; its digest here is path
	// dependent, so only the cycle's entry point gets memoized.
	low := f.lowLink[pos]
	if low >= pos {
		f.memo[e] = d
	}
	if pos > 0 && low < f.lowLink[pos-1] {
		f.lowLink[pos-1] = low
	}
	return d, nil
}

// constantDigest hashes a simple constant from its kind and value.
// Two distinct objects with the same kind and value are the same
// constant as far as the compiler is concerned.
func constantDigest(obj *runtime.Object) Digest {
	h := sha256.New()
	h.Write([]byte{0x00, byte(obj.Kind)})

	writeInt := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		h.Write(b[:])
	}
	writeBytes := func(b []byte) {
		writeInt(uint64(len(b)))
		h.Write(b)
	}

	switch obj.Kind {
	case runtime.KindBool:
		if obj.Bool {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case runtime.KindInt:
		writeInt(uint64(obj.Int))
	case runtime.KindFloat:
		writeInt(math.Float64bits(obj.Float))
	case runtime.KindString:
		writeBytes([]byte(obj.Str))
	case runtime.KindBytes:
		writeBytes(obj.Bytes)
	case runtime.KindClass:
		// Primitive class objects: identified by name.
		writeBytes([]byte(obj.Cls.Module))
		writeBytes([]byte(obj.Cls.Name))
	case runtime.KindModule:
		// The builtins module is the only module that is a constant.
		writeBytes([]byte(obj.Mod.Name))
	}
	// None, property instances and the builtins dict carry no payload
	// beyond their kind.

	var d Digest
	h.Sum(d[:0])
	return d
}

// digestSink folds events into a running sha256. Recursive visits go
// back through the owning Fingerprinter so memoization is shared.
type digestSink struct {
	f   *Fingerprinter
	h   hash.Hash
	err error
}

func (s *digestSink) writeByte(b byte) {
	s.h.Write([]byte{b})
}

func (s *digestSink) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	s.h.Write(b[:])
}

func (s *digestSink) writeString(v string) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(len(v)))
	s.h.Write(b[:])
	s.h.Write([]byte(v))
}

func (s *digestSink) writeEntity(e runtime.Entity) {
	if pos, cycling := s.f.inProgress[e]; cycling {
		s.writeByte(frameCycle)
		s.writeUint64(uint64(len(s.f.stack) - pos))
		if top := len(s.f.lowLink) - 1; pos < s.f.lowLink[top] {
			s.f.lowLink[top] = pos
		}
		return
	}

	d, err := s.f.Fingerprint(e)
	if err != nil {
		if s.err == nil {
			s.err = err
		}
		return
	}
	s.h.Write(d[:])
}

func (s *digestSink) Hash(h Digest) {
	s.writeByte(frameHash)
	s.h.Write(h[:])
}

func (s *digestSink) Name(name string) {
	s.writeByte(frameName)
	s.writeString(name)
}

func (s *digestSink) Ref(e runtime.Entity) {
	s.writeByte(frameRef)
	s.writeEntity(e)
}

func (s *digestSink) NamedRef(name string, e runtime.Entity) {
	s.writeByte(frameNamedRef)
	s.writeString(name)
	s.writeEntity(e)
}

func (s *digestSink) Err(msg string) {
	s.f.errorCount++
	s.writeByte(frameErr)
	s.writeString(msg)
}
