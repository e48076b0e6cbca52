package visitor

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/prism/runtime"
)

// ---------------------------------------------------------------------------
// Memoized visitor / instability detector tests
// ---------------------------------------------------------------------------

func newTestVisitor() (*Visitor, *runtime.Registry) {
	w, reg := newTestWalker()
	return NewVisitor(w), reg
}

func TestVisitIdempotent(t *testing.T) {
	v, reg := newTestVisitor()

	cls := reg.NewClass("acme", "C")
	cls.Cls.Dict.DictSet(reg.NewString("m"),
		reg.NewFunction(&runtime.FunctionObject{Name: reg.NewString("m"), Module: "acme"}))

	e := runtime.ObjectEntity(cls)

	r1, err := v.VisitRecorded(e)
	if err != nil {
		t.Fatalf("first visit: %v", err)
	}
	r2, err := v.VisitRecorded(e)
	if err != nil {
		t.Fatalf("second visit: %v", err)
	}
	if !r1.Equal(r2) {
		t.Errorf("repeat visit produced different records:\n%s\nvs\n%s", r1, r2)
	}
	if v.CachedEntities() != 1 {
		t.Errorf("cache size = %d, want 1", v.CachedEntities())
	}
}

func TestVisitDetectsCompilerVisibleMutation(t *testing.T) {
	v, reg := newTestVisitor()

	cls := reg.NewClass("acme", "C")
	e := runtime.ObjectEntity(cls)

	if _, err := v.VisitRecorded(e); err != nil {
		t.Fatalf("first visit: %v", err)
	}

	// Adding a method to the namespace is compiler-visible.
	cls.Cls.Dict.DictSet(reg.NewString("sneaky"),
		reg.NewFunction(&runtime.FunctionObject{Name: reg.NewString("sneaky"), Module: "acme"}))

	_, err := v.VisitRecorded(e)
	if err == nil {
		t.Fatal("expected instability fault")
	}

	var fault *InstabilityError
	if !errors.As(err, &fault) {
		t.Fatalf("error is %T, want *InstabilityError", err)
	}
	if fault.Unstable != 1 {
		t.Errorf("Unstable = %d, want 1", fault.Unstable)
	}
	if !strings.Contains(fault.Report, "class acme.C") {
		t.Errorf("report does not name the entity:\n%s", fault.Report)
	}
	if !strings.Contains(fault.Report, "sneaky") {
		t.Errorf("report does not show the new entry:\n%s", fault.Report)
	}
	if !strings.Contains(fault.Report, "|") {
		t.Errorf("report is not side-by-side:\n%s", fault.Report)
	}
}

func TestVisitIgnoresMutationInsideMutableContainer(t *testing.T) {
	v, reg := newTestVisitor()

	registryList := reg.NewList(reg.NewInt(1))
	cls := reg.NewClass("acme", "C")
	cls.Cls.Dict.DictSet(reg.NewString("registry"), registryList)

	e := runtime.ObjectEntity(cls)
	if _, err := v.VisitRecorded(e); err != nil {
		t.Fatalf("first visit: %v", err)
	}

	// Contents of a list are compiler-invisible.
	registryList.Elems = append(registryList.Elems, reg.NewInt(2))

	if _, err := v.VisitRecorded(e); err != nil {
		t.Errorf("mutating container contents must not fault: %v", err)
	}
}

func TestVisitSweepEnumeratesAllUnstable(t *testing.T) {
	v, reg := newTestVisitor()

	c1 := reg.NewClass("acme", "A")
	c2 := reg.NewClass("acme", "B")

	if _, err := v.VisitRecorded(runtime.ObjectEntity(c1)); err != nil {
		t.Fatal(err)
	}
	if _, err := v.VisitRecorded(runtime.ObjectEntity(c2)); err != nil {
		t.Fatal(err)
	}

	// Mutate both, then trigger through one of them.
	c1.Cls.Dict.DictSet(reg.NewString("x"), reg.NewTuple())
	c2.Cls.Dict.DictSet(reg.NewString("y"), reg.NewTuple())

	_, err := v.VisitRecorded(runtime.ObjectEntity(c1))
	var fault *InstabilityError
	if !errors.As(err, &fault) {
		t.Fatalf("expected instability fault, got %v", err)
	}
	if fault.Unstable != 2 {
		t.Errorf("Unstable = %d, want 2 (sweep must enumerate all)", fault.Unstable)
	}
	if !strings.Contains(fault.Report, "class acme.A") || !strings.Contains(fault.Report, "class acme.B") {
		t.Errorf("report missing entities:\n%s", fault.Report)
	}
}

func TestVisitReset(t *testing.T) {
	v, reg := newTestVisitor()

	cls := reg.NewClass("acme", "C")
	e := runtime.ObjectEntity(cls)

	if _, err := v.VisitRecorded(e); err != nil {
		t.Fatal(err)
	}

	// Mutate, reset: the entity is unvisited again, so no fault.
	cls.Cls.Dict.DictSet(reg.NewString("m"), reg.NewTuple())
	v.Reset()

	if v.CachedEntities() != 0 {
		t.Errorf("cache not cleared: %d entries", v.CachedEntities())
	}
	if _, err := v.VisitRecorded(e); err != nil {
		t.Errorf("visit after reset must succeed: %v", err)
	}
}

func TestVisitForwardsLiveEvents(t *testing.T) {
	v, reg := newTestVisitor()

	tup := reg.NewTuple(reg.NewInt(1))

	var hashes, refs int
	sinks := SinkFuncs{
		OnHash: func(Digest) { hashes++ },
		OnRef:  func(runtime.Entity) { refs++ },
	}
	if err := v.Visit(runtime.ObjectEntity(tup), sinks); err != nil {
		t.Fatal(err)
	}
	if hashes != 2 || refs != 1 {
		t.Errorf("live events = %d hashes, %d refs; want 2, 1", hashes, refs)
	}
}

func TestVisitorsAreIndependent(t *testing.T) {
	w, reg := newTestWalker()
	v1 := NewVisitor(w)
	v2 := NewVisitor(w)

	cls := reg.NewClass("acme", "C")
	e := runtime.ObjectEntity(cls)

	if _, err := v1.VisitRecorded(e); err != nil {
		t.Fatal(err)
	}
	cls.Cls.Dict.DictSet(reg.NewString("m"), reg.NewTuple())

	// v2 never saw the old shape: no fault.
	if _, err := v2.VisitRecorded(e); err != nil {
		t.Errorf("fresh visitor must not fault: %v", err)
	}
	// v1 did: fault.
	if _, err := v1.VisitRecorded(e); err == nil {
		t.Error("stale visitor must fault")
	}
}
