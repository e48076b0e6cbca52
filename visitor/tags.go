package visitor

// ---------------------------------------------------------------------------
// Frozen discriminator tags for decomposition cases.
//
// IMPORTANT: These tags are FROZEN. Every compound decomposition opens
// with a Hash event derived from its case tag so that two entities of
// different kinds never alias to the same event prefix. Changing an
// existing tag invalidates every previously computed fingerprint;
// adding new tags is fine.
// ---------------------------------------------------------------------------

const (
	// TagStaticType opens the decomposition of a static type
	// descriptor, which then describes its own internals.
	TagStaticType = 1

	// TagInstanceOfStatic opens an instance whose class is bound to a
	// static type descriptor: only the descriptor is referenced.
	TagInstanceOfStatic = 2

	// TagGloballyStable opens a globally-identifiable-and-stable
	// object, referenced by "module|name" instead of by structure.
	// Shares its value with TagInstanceOfStatic: the two cases are
	// distinguished by the event that follows (Reference vs Name).
	TagGloballyStable = 2

	// TagMappedType opens a class object that maps to a static type
	// descriptor.
	TagMappedType = 3

	// TagCode opens a compiled-function bytecode unit.
	TagCode = 4

	// TagFunction opens a function object.
	TagFunction = 5

	// TagClass opens a user-defined class decomposed by structure.
	TagClass = 6

	// TagStaticMethod and TagClassMethod open the two method-wrapper
	// kinds.
	TagStaticMethod = 7
	TagClassMethod  = 8

	// TagTuple opens an ordered tuple decomposition.
	TagTuple = 9

	// TagMutableContainer opens a dict/set/list/weak container, whose
	// contents are never fingerprinted.
	TagMutableContainer = 10

	// TagCell opens a captured-variable cell.
	TagCell = 11

	// TagCanonicalModule opens a canonical module referenced by name.
	TagCanonicalModule = 12

	// TagEnviron is the fixed opaque contribution for the process
	// environment singleton, which is never decomposed.
	TagEnviron = 13
)
