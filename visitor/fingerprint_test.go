package visitor

import (
	"testing"

	"github.com/chazu/prism/runtime"
)

// ---------------------------------------------------------------------------
// Fingerprinter tests
// ---------------------------------------------------------------------------

func newTestFingerprinter() (*Fingerprinter, *runtime.Registry) {
	v, reg := newTestVisitor()
	return NewFingerprinter(v), reg
}

func TestFingerprintDeterministic(t *testing.T) {
	f, reg := newTestFingerprinter()

	tup := reg.NewTuple(reg.NewInt(1), reg.NewString("a"))
	e := runtime.ObjectEntity(tup)

	d1, err := f.Fingerprint(e)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := f.Fingerprint(e)
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d2 {
		t.Error("same entity fingerprinted twice must agree")
	}
}

func TestFingerprintConstantsByValue(t *testing.T) {
	f, reg := newTestFingerprinter()

	a, err := f.Fingerprint(runtime.ObjectEntity(reg.NewInt(1)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.Fingerprint(runtime.ObjectEntity(reg.NewInt(1)))
	if err != nil {
		t.Fatal(err)
	}
	c, err := f.Fingerprint(runtime.ObjectEntity(reg.NewInt(2)))
	if err != nil {
		t.Fatal(err)
	}

	if a != b {
		t.Error("equal constants must share a fingerprint")
	}
	if a == c {
		t.Error("distinct constants must not collide")
	}

	s1, _ := f.Fingerprint(runtime.ObjectEntity(reg.NewString("x")))
	s2, _ := f.Fingerprint(runtime.ObjectEntity(reg.NewString("y")))
	if s1 == s2 {
		t.Error("distinct strings must not collide")
	}
}

func TestFingerprintDistinguishesStructure(t *testing.T) {
	f, reg := newTestFingerprinter()

	t1 := reg.NewTuple(reg.NewInt(1), reg.NewInt(2))
	t2 := reg.NewTuple(reg.NewInt(2), reg.NewInt(1))
	t3 := reg.NewTuple(reg.NewInt(1), reg.NewInt(2))

	d1, _ := f.Fingerprint(runtime.ObjectEntity(t1))
	d2, _ := f.Fingerprint(runtime.ObjectEntity(t2))
	d3, _ := f.Fingerprint(runtime.ObjectEntity(t3))

	if d1 == d2 {
		t.Error("element order must matter")
	}
	if d1 != d3 {
		t.Error("structurally identical tuples of constants must agree")
	}
}

func TestFingerprintFunctionNameMatters(t *testing.T) {
	f, reg := newTestFingerprinter()

	mk := func(name string) runtime.Entity {
		nameObj := reg.NewString(name)
		code := reg.NewCode(&runtime.CodeObject{Name: nameObj, LineTable: reg.NewBytes(nil)})
		return runtime.ObjectEntity(reg.NewFunction(&runtime.FunctionObject{
			Name: nameObj, Module: "main", Code: code, Globals: reg.NewDict(),
		}))
	}

	d1, err := f.Fingerprint(mk("f"))
	if err != nil {
		t.Fatal(err)
	}
	d2, err := f.Fingerprint(mk("g"))
	if err != nil {
		t.Fatal(err)
	}
	if d1 == d2 {
		t.Error("functions differing only in name must not collide")
	}
}

// mkCyclicFn builds a function whose single closure cell refers back to
// the function itself.
func mkCyclicFn(reg *runtime.Registry, name string) *runtime.Object {
	cell := reg.NewCell(nil)
	nameObj := reg.NewString(name)
	code := reg.NewCode(&runtime.CodeObject{Name: nameObj, LineTable: reg.NewBytes(nil)})
	fn := reg.NewFunction(&runtime.FunctionObject{
		Name:    nameObj,
		Module:  "main",
		Code:    code,
		Closure: []*runtime.Object{cell},
		Globals: reg.NewDict(),
	})
	cell.Cell = fn
	return fn
}

func TestFingerprintCycleDigestHistoryIndependent(t *testing.T) {
	v, reg := newTestVisitor()
	fn := mkCyclicFn(reg, "rec")
	e := runtime.ObjectEntity(fn)

	fresh := NewFingerprinter(v)
	want, err := fresh.Fingerprint(e)
	if err != nil {
		t.Fatal(err)
	}

	// Digesting unrelated entities first must not shift the cycle's
	// back-references.
	busy := NewFingerprinter(v)
	for i := 0; i < 5; i++ {
		pad := reg.NewTuple(reg.NewInt(int64(i)), reg.NewTuple(reg.NewString("pad")))
		if _, err := busy.Fingerprint(runtime.ObjectEntity(pad)); err != nil {
			t.Fatal(err)
		}
	}
	got, err := busy.Fingerprint(e)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("digest after unrelated work %s, want %s",
			DigestHex(got)[:16], DigestHex(want)[:16])
	}

	// Nor must the depth at which the cycle is first reached.
	nested := NewFingerprinter(v)
	wrapper := reg.NewTuple(reg.NewTuple(fn))
	if _, err := nested.Fingerprint(runtime.ObjectEntity(wrapper)); err != nil {
		t.Fatal(err)
	}
	got, err = nested.Fingerprint(e)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("digest via nested reach %s, want %s",
			DigestHex(got)[:16], DigestHex(want)[:16])
	}
}

func TestFingerprintCycleTerminates(t *testing.T) {
	f, reg := newTestFingerprinter()
	fn := mkCyclicFn(reg, "rec")

	d, err := f.Fingerprint(runtime.ObjectEntity(fn))
	if err != nil {
		t.Fatal(err)
	}
	if d == (Digest{}) {
		t.Error("cycle produced a zero digest")
	}

	// And it stays deterministic across a fresh fingerprinter.
	f2 := NewFingerprinter(NewVisitor(f.visitor.walker))
	d2, err := f2.Fingerprint(runtime.ObjectEntity(fn))
	if err != nil {
		t.Fatal(err)
	}
	if d != d2 {
		t.Error("cycle digest not reproducible")
	}
}

func TestFingerprintMutualCycle(t *testing.T) {
	f, reg := newTestFingerprinter()

	cellA := reg.NewCell(nil)
	cellB := reg.NewCell(nil)
	mk := func(name string, cell *runtime.Object) *runtime.Object {
		nameObj := reg.NewString(name)
		code := reg.NewCode(&runtime.CodeObject{Name: nameObj, LineTable: reg.NewBytes(nil)})
		return reg.NewFunction(&runtime.FunctionObject{
			Name: nameObj, Module: "main", Code: code,
			Closure: []*runtime.Object{cell},
			Globals: reg.NewDict(),
		})
	}
	fa := mk("a", cellA)
	fb := mk("b", cellB)
	cellA.Cell = fb
	cellB.Cell = fa

	if _, err := f.Fingerprint(runtime.ObjectEntity(fa)); err != nil {
		t.Fatalf("mutual cycle did not terminate cleanly: %v", err)
	}
}

func TestFingerprintErrorCount(t *testing.T) {
	f, reg := newTestFingerprinter()

	broken := reg.NewStaticMethod(nil)
	if _, err := f.Fingerprint(runtime.ObjectEntity(broken)); err != nil {
		t.Fatal(err)
	}
	if f.ErrorCount() != 1 {
		t.Errorf("ErrorCount = %d, want 1", f.ErrorCount())
	}

	f.ResetErrorCount()
	if f.ErrorCount() != 0 {
		t.Error("ResetErrorCount did not clear")
	}
}

func TestFingerprintPropagatesInstability(t *testing.T) {
	f, reg := newTestFingerprinter()

	cls := reg.NewClass("acme", "C")
	if _, err := f.Fingerprint(runtime.ObjectEntity(cls)); err != nil {
		t.Fatal(err)
	}

	cls.Cls.Dict.DictSet(reg.NewString("m"), reg.NewTuple())

	// The memo has the old digest; force a re-walk through a new
	// fingerprinter sharing the same visitor.
	f2 := NewFingerprinter(f.visitor)
	if _, err := f2.Fingerprint(runtime.ObjectEntity(cls)); err == nil {
		t.Error("instability must abort fingerprinting")
	}
}
