package runtime

// CompilerVisibleGlobals enumerates the global names a code unit may
// actually read, paired with their current values in the given globals
// dict. Names the code never references do not appear, so changes to
// them cannot affect a function's fingerprint.
//
// The enumeration order follows the code object's names tuple, with
// duplicates collapsed to their first occurrence. Names absent from the
// globals dict are skipped: an unresolved global is a runtime lookup
// into builtins, not a compiler-visible binding.
func CompilerVisibleGlobals(code *CodeObject, globals *Object, visit func(name string, value *Object)) {
	if code == nil || code.Names == nil || globals == nil {
		return
	}
	seen := make(map[string]bool, len(code.Names.Elems))
	for _, nameObj := range code.Names.Elems {
		if nameObj == nil || nameObj.Kind != KindString {
			continue
		}
		name := nameObj.Str
		if seen[name] {
			continue
		}
		seen[name] = true
		if val, ok := globals.DictLookup(name); ok {
			visit(name, val)
		}
	}
}
