package visitor

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/prism/runtime"
)

// ---------------------------------------------------------------------------
// Stability policy
// ---------------------------------------------------------------------------

// Policy holds the allow-lists behind the stability predicates. The
// zero value is unusable; start from DefaultPolicy or LoadPolicy.
type Policy struct {
	canonicalModules map[string]bool
	magicMethods     map[string]bool
	stableKinds      map[runtime.Kind]bool
}

// policyFile is the TOML shape of a policy override file.
type policyFile struct {
	CanonicalModules []string `toml:"canonical-modules"`
	MagicMethods     []string `toml:"magic-methods"`
	StableKinds      []string `toml:"stable-kinds"`
}

// defaultCanonicalModules lists runtime-standard-library and trusted
// third-party module names whose contents are assumed never to change
// underneath a running process.
var defaultCanonicalModules = []string{
	"abc", "argparse", "ast", "asyncio", "base64", "bisect", "bz2",
	"calendar", "cmd", "codecs", "collections", "colorsys", "concurrent",
	"configparser", "contextlib", "contextvars", "copy", "copyreg",
	"csv", "ctypes", "dataclasses", "datetime", "decimal", "difflib",
	"dis", "doctest", "email", "encodings", "enum", "filecmp",
	"fnmatch", "fractions", "functools", "getopt", "getpass", "gettext",
	"glob", "gzip", "hashlib", "heapq", "hmac", "html", "http",
	"importlib", "inspect", "io", "ipaddress", "itertools", "json",
	"keyword", "linecache", "locale", "logging", "lzma", "marshal",
	"math", "mimetypes", "multiprocessing", "numbers", "opcode",
	"operator", "os", "pathlib", "pickle", "pkgutil", "platform",
	"pprint", "queue", "random", "re", "reprlib", "sched", "secrets",
	"selectors", "shlex", "shutil", "signal", "socket", "sqlite3",
	"ssl", "stat", "statistics", "string", "struct", "subprocess",
	"sys", "sysconfig", "tarfile", "tempfile", "textwrap", "threading",
	"time", "timeit", "token", "tokenize", "traceback", "types",
	"typing", "unittest", "urllib", "uuid", "warnings", "weakref",
	"xml", "zipfile", "zlib",

	// commonly pinned third-party packages
	"numpy", "pandas", "scipy", "pytest", "requests", "redis",
	"websockets", "boto3", "flask", "coverage", "cryptography",
	"paramiko", "six", "torch",
}

// defaultMagicMethods lists the reserved names that carry semantics the
// compiler must see (operator overloads, __init__ and friends). Every
// other dunder name is loader/deployment bookkeeping and is excluded
// from decomposition.
var defaultMagicMethods = []string{
	"__abs__", "__add__", "__and__", "__bool__",
	"__bytes__", "__call__", "__contains__", "__del__",
	"__delattr__", "__eq__", "__float__", "__floordiv__",
	"__format__", "__ge__", "__getitem__", "__gt__",
	"__hash__", "__iadd__", "__iand__",
	"__ifloordiv__", "__ilshift__", "__imatmul__", "__imod__",
	"__imul__", "__index__", "__init__",
	"__int__", "__invert__", "__ior__", "__ipow__",
	"__irshift__", "__isub__", "__itruediv__", "__ixor__",
	"__le__", "__len__", "__lshift__", "__lt__",
	"__matmul__", "__mod__", "__mul__", "__ne__",
	"__neg__", "__not__", "__or__", "__pos__",
	"__pow__", "__radd__", "__rand__", "__repr__",
	"__rfloordiv__", "__rlshift__", "__rmatmul__", "__rmod__",
	"__rmul__", "__ror__", "__round__",
	"__rpow__", "__rrshift__", "__rshift__", "__rsub__",
	"__rtruediv__", "__rxor__", "__setattr__", "__setitem__",
	"__str__", "__sub__", "__truediv__", "__xor__",
}

// DefaultPolicy returns the built-in policy: the standard canonical
// module list, the standard magic-method list, and builtin functions
// as the only kind that is stable regardless of module canonicality.
func DefaultPolicy() *Policy {
	p := &Policy{
		canonicalModules: make(map[string]bool, len(defaultCanonicalModules)),
		magicMethods:     make(map[string]bool, len(defaultMagicMethods)),
		stableKinds:      map[runtime.Kind]bool{runtime.KindBuiltinFunction: true},
	}
	for _, m := range defaultCanonicalModules {
		p.canonicalModules[m] = true
	}
	for _, m := range defaultMagicMethods {
		p.magicMethods[m] = true
	}
	return p
}

// LoadPolicy reads a TOML policy file. Lists present in the file
// replace the corresponding default list; absent lists keep their
// defaults.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy parses TOML policy bytes. See LoadPolicy.
func ParsePolicy(data []byte) (*Policy, error) {
	var pf policyFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}

	p := DefaultPolicy()
	if pf.CanonicalModules != nil {
		p.canonicalModules = make(map[string]bool, len(pf.CanonicalModules))
		for _, m := range pf.CanonicalModules {
			p.canonicalModules[m] = true
		}
	}
	if pf.MagicMethods != nil {
		p.magicMethods = make(map[string]bool, len(pf.MagicMethods))
		for _, m := range pf.MagicMethods {
			p.magicMethods[m] = true
		}
	}
	if pf.StableKinds != nil {
		p.stableKinds = make(map[runtime.Kind]bool, len(pf.StableKinds))
		for _, name := range pf.StableKinds {
			kind, ok := runtime.KindByName(name)
			if !ok {
				return nil, fmt.Errorf("parsing policy: unknown stable kind %q", name)
			}
			p.stableKinds[kind] = true
		}
	}
	return p, nil
}

// IsCanonicalName reports whether a module-qualified name's root
// (before the first dot) is on the canonical allow-list. A canonical
// module's entire content is trusted not to change, so it may be
// referenced by name alone.
func (p *Policy) IsCanonicalName(name string) bool {
	root := name
	if i := strings.IndexByte(name, '.'); i >= 0 {
		root = name[:i]
	}
	return p.canonicalModules[root]
}

// IsSpecialIgnorableName reports whether a name is a reserved dunder
// name that is NOT a semantically meaningful overload hook. Such names
// (loader metadata, file-path bookkeeping) vary with deployment
// location without changing semantics, so they are excluded from
// decomposition.
func (p *Policy) IsSpecialIgnorableName(name string) bool {
	return strings.HasPrefix(name, "__") &&
		strings.HasSuffix(name, "__") &&
		len(name) >= 4 &&
		!p.magicMethods[name]
}

// IsStableKind reports whether objects of the kind are assumed stable
// regardless of their declaring module's canonicality.
func (p *Policy) IsStableKind(kind runtime.Kind) bool {
	return p.stableKinds[kind]
}
