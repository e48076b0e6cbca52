// Package runtime models the host runtime's shared object graph: heap
// objects classified by a closed kind enumeration, the canonical
// module registry, static type descriptors, and the re-entrant
// process-wide interpreter lock guarding all graph access.
package runtime
