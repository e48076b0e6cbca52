package runtime

// ---------------------------------------------------------------------------
// Object: a heap object in the host runtime's graph
// ---------------------------------------------------------------------------

// Object is a dynamically-typed heap object. Identity is pointer
// identity; the fingerprint core never copies or owns objects, it only
// reads them while holding the interpreter lock.
//
// Payload fields are populated per Kind. Unused fields stay zero.
type Object struct {
	Kind Kind
	Type *Object // the object's class; nil only during class bootstrap

	// Scalar payloads
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte

	Elems   []*Object   // tuple / list / set elements
	Entries []DictEntry // dict entries, insertion order

	Cell *Object // cell contents; nil when the cell is empty

	Code *CodeObject
	Fn   *FunctionObject
	Mod  *ModuleObject
	Cls  *ClassObject

	Wrapped *Object // staticmethod / classmethod wrapped function
	Owner   *Object // method descriptor: owning class
	DName   *Object // method descriptor: name, as a string object

	// Name and Module identify builtin functions (their __name__ and
	// __module__ attributes). Functions, classes and modules carry
	// these in their payload structs instead.
	Name   string
	Module string
}

// DictEntry is one key/value pair in a dict. Keys are arbitrary
// objects; the fingerprint walker only considers string keys.
type DictEntry struct {
	Key *Object
	Val *Object
}

// CodeObject is the payload of a compiled-function bytecode unit.
type CodeObject struct {
	ArgCount       int
	KwOnlyArgCount int
	NumLocals      int
	StackSize      int
	FirstLine      int

	// Flags is deliberately never fingerprinted: it is unstable across
	// builds and carries no semantic information not available elsewhere.
	Flags int

	Bytecode []byte

	Consts   *Object // tuple
	Names    *Object // tuple of string objects: global names the code references
	VarNames *Object // tuple
	FreeVars *Object // tuple
	CellVars *Object // tuple

	Name      *Object // display name, string object
	LineTable *Object // bytes object

	// Filename is deliberately never fingerprinted: relocating source
	// must not change the fingerprint.
	Filename string
}

// FunctionObject is the payload of a function.
type FunctionObject struct {
	Name    *Object   // string object
	Module  string    // __module__
	Code    *Object   // code object
	Closure []*Object // captured cells; nil when there is no closure

	Annotations *Object // dict or tuple; nil when absent
	Defaults    *Object // tuple; nil when absent
	KwDefaults  *Object // dict or tuple; nil when absent

	Globals *Object // dict
}

// ModuleObject is the payload of a module.
type ModuleObject struct {
	Name string
	Dict *Object // dict object holding the module namespace
}

// ClassObject is the payload of a user-defined class.
type ClassObject struct {
	Name   string
	Module string
	Dict   *Object   // dict object holding the class namespace
	Bases  []*Object // declaration order
}

// ---------------------------------------------------------------------------
// Attribute-style accessors used by the stability policy
// ---------------------------------------------------------------------------

// ModuleAndName returns the object's __module__ and __name__ attributes
// when both exist. Objects without the pair are not globally
// identifiable.
func (o *Object) ModuleAndName() (module, name string, ok bool) {
	switch o.Kind {
	case KindFunction:
		if o.Fn == nil || o.Fn.Name == nil {
			return "", "", false
		}
		return o.Fn.Module, o.Fn.Name.Str, true
	case KindClass:
		if o.Cls == nil {
			return "", "", false
		}
		return o.Cls.Module, o.Cls.Name, true
	case KindBuiltinFunction:
		return o.Module, o.Name, true
	}
	return "", "", false
}

// DictLookup finds a string key in a dict object. Returns false when
// the object is not a dict or the key is absent.
func (o *Object) DictLookup(key string) (*Object, bool) {
	if o == nil || o.Kind != KindDict {
		return nil, false
	}
	for _, e := range o.Entries {
		if e.Key != nil && e.Key.Kind == KindString && e.Key.Str == key {
			return e.Val, true
		}
	}
	return nil, false
}

// DictSet inserts or replaces a string-keyed entry in a dict object.
// The caller must hold the interpreter lock.
func (o *Object) DictSet(key *Object, val *Object) {
	if key != nil && key.Kind == KindString {
		for i, e := range o.Entries {
			if e.Key != nil && e.Key.Kind == KindString && e.Key.Str == key.Str {
				o.Entries[i].Val = val
				return
			}
		}
	}
	o.Entries = append(o.Entries, DictEntry{Key: key, Val: val})
}
