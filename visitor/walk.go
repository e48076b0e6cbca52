package visitor

import (
	"sort"

	"github.com/chazu/prism/runtime"
)

// ---------------------------------------------------------------------------
// Walker: decomposes one entity into its compiler-visible event stream
// ---------------------------------------------------------------------------

// Walker classifies an entity and decomposes it into visit events. The
// decomposition cases are checked in a fixed priority order; earlier
// cases intentionally shadow later, more general ones.
//
// Our general rule is that objects visible at module level scope never
// have their identities reassigned, nor are regular class members
// reassigned. Mutable containers may change, so their contents are
// never part of the stream.
type Walker struct {
	Policy *Policy
	Reg    *runtime.Registry
	Lock   *runtime.Lock
}

// NewWalker builds a walker over a registry with the given policy. A
// nil policy means DefaultPolicy.
func NewWalker(reg *runtime.Registry, lock *runtime.Lock, policy *Policy) *Walker {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Walker{Policy: policy, Reg: reg, Lock: lock}
}

// Walk emits the entity's compiler-visible structure into sinks. Every
// traversal step runs under the interpreter lock; the lock is
// re-entrant so consumers may recurse from inside their sink callbacks.
func (w *Walker) Walk(e runtime.Entity, sinks runtime.Sinks) {
	w.Lock.Locked(func() {
		w.walk(e, sinks)
	})
}

// RecordWalk runs Walk captured into a Record.
func (w *Walker) RecordWalk(e runtime.Entity) Record {
	rec := &Recorder{}
	w.Walk(e, rec)
	return rec.Events
}

// RecordWalkString renders a captured walk as a diagnostic dump.
func (w *Walker) RecordWalkString(e runtime.Entity) string {
	return w.RecordWalk(e).String()
}

// ---------------------------------------------------------------------------
// Stability predicates over whole objects
// ---------------------------------------------------------------------------

// GloballyIdentifiable reports whether looking up the object's declared
// name inside its declaring module (found through the canonical
// registry) yields back the identical object. Lookup failures degrade
// to false; they never propagate.
func (w *Walker) GloballyIdentifiable(obj *runtime.Object) bool {
	module, name, ok := obj.ModuleAndName()
	if !ok {
		return false
	}
	mod, ok := w.Reg.LookupModule(module)
	if !ok {
		return false
	}
	val, ok := w.Reg.ModuleAttr(mod, name)
	if !ok {
		return false
	}
	return val == obj
}

// GloballyIdentifiableAndStable additionally requires the declaring
// module to be canonical, or the object's kind to be on the stable-kind
// allow-list. Such objects are assumed never reassigned, so a name
// reference is safe even across process runs.
func (w *Walker) GloballyIdentifiableAndStable(obj *runtime.Object) bool {
	if !w.GloballyIdentifiable(obj) {
		return false
	}
	module, _, _ := obj.ModuleAndName()
	return w.Policy.IsCanonicalName(module) || w.Policy.IsStableKind(obj.Kind)
}

// SimpleConstant reports whether the object is an atomic/opaque value
// whose identity carries no compiler-relevant structure beyond its
// kind. Simple constants are never decomposed, not even referenced.
func (w *Walker) SimpleConstant(obj *runtime.Object) bool {
	switch obj.Kind {
	case runtime.KindNone, runtime.KindBool, runtime.KindInt,
		runtime.KindFloat, runtime.KindString, runtime.KindBytes,
		runtime.KindProperty:
		return true
	}
	if obj == w.Reg.Builtins() || obj == w.Reg.BuiltinsDict() {
		return true
	}
	return w.Reg.IsPrimitiveClass(obj)
}

// ---------------------------------------------------------------------------
// The dispatcher
// ---------------------------------------------------------------------------

func (w *Walker) walk(e runtime.Entity, v runtime.Sinks) {
	// Case 1: static type descriptors describe themselves.
	if e.IsType() {
		v.Hash(HashOfInt(TagStaticType))
		e.StaticType().Describe(v)
		return
	}

	obj := e.Object()
	if obj == nil {
		v.Err("nil entity")
		return
	}

	// Case 2: never hash the environment.
	if obj.Kind == runtime.KindEnviron {
		v.Hash(HashOfInt(TagEnviron))
		return
	}

	// Case 3: don't visit into constants.
	if w.SimpleConstant(obj) {
		return
	}

	// Case 4: an instance of a compiler-modeled class is just its type.
	if st := w.Reg.StaticTypeFor(obj.Type); st != nil {
		v.Hash(HashOfInt(TagInstanceOfStatic))
		v.Ref(runtime.TypeEntity(st))
		return
	}

	// Case 5: don't walk into canonical modules.
	if obj.Kind == runtime.KindModule && obj.Mod != nil {
		name := obj.Mod.Name
		if canonical, ok := w.Reg.LookupModule(name); ok && canonical == obj {
			if w.Policy.IsCanonicalName(name) {
				v.Hash(HashOfInt(TagCanonicalModule))
				v.Name(name)
				return
			}
		}
	}

	// Case 6: a named object whose name actually resolves back to it
	// can be hashed by name instead of by structure.
	if w.GloballyIdentifiableAndStable(obj) {
		module, name, _ := obj.ModuleAndName()
		v.Hash(HashOfInt(TagGloballyStable))
		v.Name(module + "|" + name)
		return
	}

	// Case 7: a class object mapped to a static type descriptor.
	if obj.Kind == runtime.KindClass {
		if st := w.Reg.StaticTypeFor(obj); st != nil {
			v.Hash(HashOfInt(TagMappedType))
			v.Ref(runtime.TypeEntity(st))
			return
		}
	}

	switch obj.Kind {
	case runtime.KindCode:
		w.walkCode(obj.Code, v)
	case runtime.KindFunction:
		w.walkFunction(obj.Fn, v)
	case runtime.KindClass:
		w.walkClass(obj.Cls, v)
	case runtime.KindStaticMethod, runtime.KindClassMethod:
		if obj.Kind == runtime.KindStaticMethod {
			v.Hash(HashOfInt(TagStaticMethod))
		} else {
			v.Hash(HashOfInt(TagClassMethod))
		}
		if obj.Wrapped == nil {
			v.Err("not a func obj")
		} else {
			v.Ref(runtime.ObjectEntity(obj.Wrapped))
		}
	case runtime.KindTuple:
		v.Hash(HashOfInt(TagTuple))
		v.Hash(HashOfInt(int64(len(obj.Elems))))
		for _, el := range obj.Elems {
			v.Ref(runtime.ObjectEntity(el))
		}
	case runtime.KindCell:
		v.Hash(HashOfInt(TagCell))
		if obj.Cell != nil {
			v.Hash(HashOfInt(1))
			v.Ref(runtime.ObjectEntity(obj.Cell))
		} else {
			v.Hash(HashOfInt(0))
		}
	case runtime.KindMethodDescriptor, runtime.KindClassMethodDescriptor:
		// The compiler looks at the type and the name of a method
		// descriptor; the two references disambiguate without a tag.
		v.Ref(runtime.ObjectEntity(obj.Owner))
		v.Ref(runtime.ObjectEntity(obj.DName))
	default:
		if obj.Kind.IsMutableContainer() {
			// Contents are mutable and the compiler never looks inside,
			// but a change of container kind is still visible.
			v.Hash(HashOfInt(TagMutableContainer))
			v.Ref(runtime.ObjectEntity(obj.Type))
			return
		}

		// Arbitrary objects: contents are assumed mutable, but the
		// compiler may still specialize on the type.
		v.Ref(runtime.ObjectEntity(obj.Type))
	}
}

func (w *Walker) walkCode(code *runtime.CodeObject, v runtime.Sinks) {
	v.Hash(HashOfInt(TagCode))
	if code == nil {
		v.Err("code object without payload")
		return
	}

	v.Hash(HashOfInt(int64(code.ArgCount)))
	v.Hash(HashOfInt(int64(code.KwOnlyArgCount)))
	v.Hash(HashOfInt(int64(code.NumLocals)))
	v.Hash(HashOfInt(int64(code.StackSize)))
	// Flags is skipped: not stable, and carries no semantic
	// information not available elsewhere.
	v.Hash(HashOfInt(int64(code.FirstLine)))
	v.Hash(HashOfBytes(code.Bytecode))

	w.visitTuple(code.Consts, v)
	w.visitTuple(code.Names, v)
	w.visitTuple(code.VarNames, v)
	w.visitTuple(code.FreeVars, v)
	w.visitTuple(code.CellVars, v)

	// Filename is skipped: relocating source must not change the hash.
	v.Ref(runtime.ObjectEntity(code.Name))
	v.Ref(runtime.ObjectEntity(code.LineTable))
}

func (w *Walker) walkFunction(fn *runtime.FunctionObject, v runtime.Sinks) {
	v.Hash(HashOfInt(TagFunction))
	if fn == nil {
		v.Err("function object without payload")
		return
	}

	if fn.Closure != nil {
		v.Hash(HashOfInt(int64(len(fn.Closure))))
		for _, cell := range fn.Closure {
			if cell != nil && cell.Kind == runtime.KindCell {
				v.Ref(runtime.ObjectEntity(cell))
			}
		}
	} else {
		v.Hash(HashOfInt(0))
	}

	v.Ref(runtime.ObjectEntity(fn.Name))
	v.Ref(runtime.ObjectEntity(fn.Code))
	w.visitDictOrTuple(fn.Annotations, v)
	w.visitTuple(fn.Defaults, v)
	w.visitDictOrTuple(fn.KwDefaults, v)

	v.Hash(HashOfInt(1))

	if fn.Globals != nil && fn.Globals.Kind == runtime.KindDict && fn.Code != nil {
		runtime.CompilerVisibleGlobals(fn.Code.Code, fn.Globals, func(name string, val *runtime.Object) {
			if !w.Policy.IsSpecialIgnorableName(name) {
				v.NamedRef(name, runtime.ObjectEntity(val))
			}
		})
	}

	v.Hash(HashOfInt(0))
}

func (w *Walker) walkClass(cls *runtime.ClassObject, v runtime.Sinks) {
	v.Hash(HashOfInt(TagClass))
	if cls == nil {
		v.Err("class object without payload")
		return
	}

	v.Hash(HashOfInt(0))
	if cls.Dict != nil {
		w.visitDict(cls.Dict, true, v)
	}
	v.Hash(HashOfInt(0))

	for _, base := range cls.Bases {
		v.Ref(runtime.ObjectEntity(base))
	}

	v.Hash(HashOfInt(0))
}

// ---------------------------------------------------------------------------
// Shared decomposition helpers
// ---------------------------------------------------------------------------

// visitDict walks a dict's string-keyed entries in lexical key order.
// Dict iteration order is an implementation accident; sorting is what
// keeps the stream deterministic across equivalent runtime states.
func (w *Walker) visitDict(d *runtime.Object, ignoreSpecialNames bool, v runtime.Sinks) {
	if d == nil {
		v.Hash(HashOfInt(0))
		return
	}
	if d.Kind != runtime.KindDict {
		v.Err("not a dict: " + d.Kind.String())
		return
	}

	names := make([]string, 0, len(d.Entries))
	vals := make(map[string]*runtime.Object, len(d.Entries))
	for _, entry := range d.Entries {
		if entry.Key == nil || entry.Key.Kind != runtime.KindString {
			continue
		}
		name := entry.Key.Str
		// Module members must not hash their file paths or loader
		// info; those names are unstable across deployments.
		if ignoreSpecialNames && w.Policy.IsSpecialIgnorableName(name) {
			continue
		}
		if _, dup := vals[name]; !dup {
			names = append(names, name)
		}
		vals[name] = entry.Val
	}
	sort.Strings(names)

	v.Hash(HashOfInt(int64(len(names))))

	for _, name := range names {
		if vals[name] == nil {
			v.Err("dict getitem empty")
		} else {
			v.NamedRef(name, runtime.ObjectEntity(vals[name]))
		}
	}
}

func (w *Walker) visitTuple(t *runtime.Object, v runtime.Sinks) {
	if t == nil {
		v.Hash(HashOfInt(0))
		return
	}
	if t.Kind != runtime.KindTuple {
		v.Err("not a tuple: " + t.Kind.String())
		return
	}
	v.Hash(HashOfInt(int64(len(t.Elems))))
	for _, el := range t.Elems {
		v.Ref(runtime.ObjectEntity(el))
	}
}

func (w *Walker) visitDictOrTuple(t *runtime.Object, v runtime.Sinks) {
	if t == nil {
		v.Hash(HashOfInt(0))
		return
	}
	switch t.Kind {
	case runtime.KindDict:
		w.visitDict(t, false, v)
	case runtime.KindTuple:
		w.visitTuple(t, v)
	default:
		v.Err("not a dict or tuple")
	}
}
