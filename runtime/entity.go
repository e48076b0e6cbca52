package runtime

import "fmt"

// Entity references either a static type descriptor or a dynamic heap
// object. Equality and hashing are identity-based (pointer identity),
// never structural, so Entity is usable directly as a map key for
// identity memoization.
//
// An Entity never owns its referent; the runtime guarantees lifetime
// for the duration of a visit.
type Entity struct {
	st  *StaticType
	obj *Object
}

// TypeEntity wraps a static type descriptor.
func TypeEntity(st *StaticType) Entity {
	return Entity{st: st}
}

// ObjectEntity wraps a dynamic object.
func ObjectEntity(obj *Object) Entity {
	return Entity{obj: obj}
}

// IsType reports whether the entity is a static type descriptor.
func (e Entity) IsType() bool { return e.st != nil }

// StaticType returns the descriptor, or nil for object entities.
func (e Entity) StaticType() *StaticType { return e.st }

// Object returns the heap object, or nil for type entities.
func (e Entity) Object() *Object { return e.obj }

// IsZero reports whether the entity references nothing.
func (e Entity) IsZero() bool { return e.st == nil && e.obj == nil }

// Label renders a short human-readable identity for diagnostics and
// instability reports.
func (e Entity) Label() string {
	if e.st != nil {
		return "type " + e.st.Name
	}
	if e.obj == nil {
		return "<nil>"
	}
	o := e.obj
	switch o.Kind {
	case KindString:
		return fmt.Sprintf("%s %q", o.Kind, o.Str)
	case KindInt:
		return fmt.Sprintf("%s %d", o.Kind, o.Int)
	case KindModule:
		return fmt.Sprintf("module %s", o.Mod.Name)
	case KindClass:
		return fmt.Sprintf("class %s.%s", o.Cls.Module, o.Cls.Name)
	case KindFunction:
		if o.Fn.Name != nil {
			return fmt.Sprintf("function %s.%s", o.Fn.Module, o.Fn.Name.Str)
		}
		return "function <anonymous>"
	case KindBuiltinFunction:
		return fmt.Sprintf("builtin %s.%s", o.Module, o.Name)
	}
	return o.Kind.String()
}
