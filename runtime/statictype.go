package runtime

// StaticType is a static type descriptor: a type the compiler already
// models directly. Its internal field layout is opaque to the
// fingerprint core; the descriptor enumerates its own compiler-visible
// internals through Describe, which must emit a fixed, self-consistent
// event sequence into the given sinks.
type StaticType struct {
	Name     string
	Describe func(s Sinks)
}
