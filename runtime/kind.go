package runtime

// Kind classifies every object in the runtime's heap. The fingerprint
// walker dispatches on this closed enumeration rather than on type
// pointer comparisons, so every shape the walker distinguishes must
// have its own kind here.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindTuple
	KindList
	KindDict
	KindSet
	KindWeakSet
	KindWeakKeyDict
	KindWeakValueDict
	KindCell
	KindCode
	KindFunction
	KindBuiltinFunction
	KindClass
	KindModule
	KindEnviron
	KindStaticMethod
	KindClassMethod
	KindMethodDescriptor
	KindClassMethodDescriptor
	KindProperty
	KindInstance
)

var kindNames = [...]string{
	KindNone:                  "none",
	KindBool:                  "bool",
	KindInt:                   "int",
	KindFloat:                 "float",
	KindString:                "string",
	KindBytes:                 "bytes",
	KindTuple:                 "tuple",
	KindList:                  "list",
	KindDict:                  "dict",
	KindSet:                   "set",
	KindWeakSet:               "weakset",
	KindWeakKeyDict:           "weakkeydict",
	KindWeakValueDict:         "weakvaluedict",
	KindCell:                  "cell",
	KindCode:                  "code",
	KindFunction:              "function",
	KindBuiltinFunction:       "builtin-function",
	KindClass:                 "class",
	KindModule:                "module",
	KindEnviron:               "environ",
	KindStaticMethod:          "staticmethod",
	KindClassMethod:           "classmethod",
	KindMethodDescriptor:      "method-descriptor",
	KindClassMethodDescriptor: "classmethod-descriptor",
	KindProperty:              "property",
	KindInstance:              "instance",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// KindByName resolves a kind from its textual name. Used when loading
// policy configuration that names kinds (e.g. stable-kinds lists).
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// IsMutableContainer reports whether the kind is one of the container
// kinds whose contents the compiler never assumes anything about.
func (k Kind) IsMutableContainer() bool {
	switch k {
	case KindDict, KindSet, KindList, KindWeakSet, KindWeakKeyDict, KindWeakValueDict:
		return true
	}
	return false
}
