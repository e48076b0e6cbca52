package runtime

// ---------------------------------------------------------------------------
// Registry: the canonical module registry and object constructors
// ---------------------------------------------------------------------------

// Registry owns the runtime's canonical namespace registry (module name
// to module object, the analogue of sys.modules), the well-known class
// objects, the builtins module, and the static-type bindings.
//
// Callers must hold the interpreter Lock around any method that touches
// the object graph; the Registry itself does no locking.
type Registry struct {
	modules map[string]*Object
	statics map[*Object]*StaticType

	classes   map[Kind]*Object
	primitive map[*Object]bool

	none     *Object
	trueObj  *Object
	falseObj *Object
	builtins *Object
	environ  *Object
}

// classNames maps each kind to the name of its builtin class object.
var classNames = map[Kind]string{
	KindNone:                  "NoneType",
	KindBool:                  "bool",
	KindInt:                   "int",
	KindFloat:                 "float",
	KindString:                "str",
	KindBytes:                 "bytes",
	KindTuple:                 "tuple",
	KindList:                  "list",
	KindDict:                  "dict",
	KindSet:                   "set",
	KindWeakSet:               "WeakSet",
	KindWeakKeyDict:           "WeakKeyDictionary",
	KindWeakValueDict:         "WeakValueDictionary",
	KindCell:                  "cell",
	KindCode:                  "code",
	KindFunction:              "function",
	KindBuiltinFunction:       "builtin_function_or_method",
	KindClass:                 "type",
	KindModule:                "module",
	KindEnviron:               "_Environ",
	KindStaticMethod:          "staticmethod",
	KindClassMethod:           "classmethod",
	KindMethodDescriptor:      "method_descriptor",
	KindClassMethodDescriptor: "classmethod_descriptor",
	KindProperty:              "property",
	KindInstance:              "object",
}

// NewRegistry bootstraps a registry with the builtin class objects, the
// builtins module, and the environment singleton.
func NewRegistry() *Registry {
	r := &Registry{
		modules:   make(map[string]*Object),
		statics:   make(map[*Object]*StaticType),
		classes:   make(map[Kind]*Object),
		primitive: make(map[*Object]bool),
	}

	// Class objects for every kind. The class of a class is the
	// KindClass class ("type"), which points at itself.
	typeClass := &Object{Kind: KindClass, Cls: &ClassObject{Name: "type", Module: "builtins"}}
	typeClass.Type = typeClass
	typeClass.Cls.Dict = &Object{Kind: KindDict, Type: nil}
	r.classes[KindClass] = typeClass
	r.primitive[typeClass] = true

	for kind, name := range classNames {
		if kind == KindClass {
			continue
		}
		cls := &Object{
			Kind: KindClass,
			Type: typeClass,
			Cls:  &ClassObject{Name: name, Module: "builtins"},
		}
		cls.Cls.Dict = &Object{Kind: KindDict}
		r.classes[kind] = cls
		r.primitive[cls] = true
	}
	dictClass := r.classes[KindDict]
	for _, cls := range r.classes {
		cls.Cls.Dict.Type = dictClass
	}

	// The builtins module exposes every builtin class under its name.
	r.builtins = r.newModuleObject("builtins")
	for _, cls := range r.classes {
		r.builtins.Mod.Dict.DictSet(r.NewString(cls.Cls.Name), cls)
	}
	r.modules["builtins"] = r.builtins

	r.none = &Object{Kind: KindNone, Type: r.classes[KindNone]}
	r.trueObj = &Object{Kind: KindBool, Bool: true, Type: r.classes[KindBool]}
	r.falseObj = &Object{Kind: KindBool, Bool: false, Type: r.classes[KindBool]}
	r.environ = &Object{Kind: KindEnviron, Type: r.classes[KindEnviron]}

	return r
}

// ---------------------------------------------------------------------------
// Module registry
// ---------------------------------------------------------------------------

// Install registers a module object under its own name, making it the
// canonical entry for that name.
func (r *Registry) Install(mod *Object) {
	r.modules[mod.Mod.Name] = mod
}

// LookupModule resolves a module name through the canonical registry.
func (r *Registry) LookupModule(name string) (*Object, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// ModuleAttr resolves an attribute on a module object. A failed lookup
// is reported as false, never as an error.
func (r *Registry) ModuleAttr(mod *Object, name string) (*Object, bool) {
	if mod == nil || mod.Kind != KindModule || mod.Mod == nil {
		return nil, false
	}
	return mod.Mod.Dict.DictLookup(name)
}

// ---------------------------------------------------------------------------
// Well-known objects
// ---------------------------------------------------------------------------

// None returns the none singleton.
func (r *Registry) None() *Object { return r.none }

// True returns the true singleton.
func (r *Registry) True() *Object { return r.trueObj }

// False returns the false singleton.
func (r *Registry) False() *Object { return r.falseObj }

// Builtins returns the builtins module object.
func (r *Registry) Builtins() *Object { return r.builtins }

// BuiltinsDict returns the builtins module's namespace dict object.
func (r *Registry) BuiltinsDict() *Object { return r.builtins.Mod.Dict }

// Environ returns the process-environment singleton.
func (r *Registry) Environ() *Object { return r.environ }

// ClassFor returns the builtin class object for a kind.
func (r *Registry) ClassFor(kind Kind) *Object { return r.classes[kind] }

// IsPrimitiveClass reports whether obj is one of the builtin class
// objects (the primitive type descriptors of the simple-constant
// policy).
func (r *Registry) IsPrimitiveClass(obj *Object) bool { return r.primitive[obj] }

// ---------------------------------------------------------------------------
// Static type bindings
// ---------------------------------------------------------------------------

// BindStaticType maps a class object to a static type descriptor,
// marking the class (and its instances) as compiler-modeled.
func (r *Registry) BindStaticType(cls *Object, st *StaticType) {
	r.statics[cls] = st
}

// StaticTypeFor returns the static type descriptor bound to a class
// object, or nil.
func (r *Registry) StaticTypeFor(cls *Object) *StaticType {
	if cls == nil {
		return nil
	}
	return r.statics[cls]
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func (r *Registry) newModuleObject(name string) *Object {
	dict := &Object{Kind: KindDict, Type: r.classes[KindDict]}
	return &Object{
		Kind: KindModule,
		Type: r.classes[KindModule],
		Mod:  &ModuleObject{Name: name, Dict: dict},
	}
}

// NewModule creates a module object. The module is not installed in the
// registry; call Install to make it canonical.
func (r *Registry) NewModule(name string) *Object {
	return r.newModuleObject(name)
}

// NewInt creates an integer object.
func (r *Registry) NewInt(v int64) *Object {
	return &Object{Kind: KindInt, Int: v, Type: r.classes[KindInt]}
}

// NewFloat creates a float object.
func (r *Registry) NewFloat(v float64) *Object {
	return &Object{Kind: KindFloat, Float: v, Type: r.classes[KindFloat]}
}

// NewString creates a string object.
func (r *Registry) NewString(s string) *Object {
	return &Object{Kind: KindString, Str: s, Type: r.classes[KindString]}
}

// NewBytes creates a bytes object.
func (r *Registry) NewBytes(b []byte) *Object {
	return &Object{Kind: KindBytes, Bytes: b, Type: r.classes[KindBytes]}
}

// NewTuple creates a tuple object.
func (r *Registry) NewTuple(elems ...*Object) *Object {
	return &Object{Kind: KindTuple, Elems: elems, Type: r.classes[KindTuple]}
}

// NewList creates a list object.
func (r *Registry) NewList(elems ...*Object) *Object {
	return &Object{Kind: KindList, Elems: elems, Type: r.classes[KindList]}
}

// NewSet creates a set object.
func (r *Registry) NewSet(elems ...*Object) *Object {
	return &Object{Kind: KindSet, Elems: elems, Type: r.classes[KindSet]}
}

// NewDict creates an empty dict object.
func (r *Registry) NewDict() *Object {
	return &Object{Kind: KindDict, Type: r.classes[KindDict]}
}

// NewCell creates a captured-variable cell. contents may be nil for an
// empty cell.
func (r *Registry) NewCell(contents *Object) *Object {
	return &Object{Kind: KindCell, Cell: contents, Type: r.classes[KindCell]}
}

// NewCode creates a code object from its payload.
func (r *Registry) NewCode(code *CodeObject) *Object {
	return &Object{Kind: KindCode, Code: code, Type: r.classes[KindCode]}
}

// NewFunction creates a function object from its payload.
func (r *Registry) NewFunction(fn *FunctionObject) *Object {
	return &Object{Kind: KindFunction, Fn: fn, Type: r.classes[KindFunction]}
}

// NewBuiltinFunction creates a builtin function object.
func (r *Registry) NewBuiltinFunction(module, name string) *Object {
	return &Object{
		Kind:   KindBuiltinFunction,
		Type:   r.classes[KindBuiltinFunction],
		Module: module,
		Name:   name,
	}
}

// NewClass creates a user-defined class object with an empty namespace.
func (r *Registry) NewClass(module, name string, bases ...*Object) *Object {
	return &Object{
		Kind: KindClass,
		Type: r.classes[KindClass],
		Cls: &ClassObject{
			Name:   name,
			Module: module,
			Dict:   r.NewDict(),
			Bases:  bases,
		},
	}
}

// NewInstance creates an instance of a class.
func (r *Registry) NewInstance(cls *Object) *Object {
	return &Object{Kind: KindInstance, Type: cls}
}

// NewStaticMethod wraps a function in a staticmethod descriptor.
func (r *Registry) NewStaticMethod(fn *Object) *Object {
	return &Object{Kind: KindStaticMethod, Wrapped: fn, Type: r.classes[KindStaticMethod]}
}

// NewClassMethod wraps a function in a classmethod descriptor.
func (r *Registry) NewClassMethod(fn *Object) *Object {
	return &Object{Kind: KindClassMethod, Wrapped: fn, Type: r.classes[KindClassMethod]}
}

// NewMethodDescriptor creates a bound-method descriptor for a name on
// an owning class.
func (r *Registry) NewMethodDescriptor(owner *Object, name string) *Object {
	return &Object{
		Kind:  KindMethodDescriptor,
		Type:  r.classes[KindMethodDescriptor],
		Owner: owner,
		DName: r.NewString(name),
	}
}

// NewProperty creates a property descriptor object.
func (r *Registry) NewProperty() *Object {
	return &Object{Kind: KindProperty, Type: r.classes[KindProperty]}
}
