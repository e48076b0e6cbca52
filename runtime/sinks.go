package runtime

// Sinks is the five-callback consumer contract for one decomposition
// pass. The walker (and static type descriptors, through
// StaticType.Describe) emit events into it in decomposition order.
//
// Hash values are opaque 32-byte contributions: discriminator tags,
// counts, flags, and digests of raw bytes all arrive through Hash.
type Sinks interface {
	// Hash records an opaque sub-hash contribution.
	Hash(h [32]byte)

	// Name records a raw string used as a stand-in for full structure.
	Name(name string)

	// Ref asks the consumer to recurse into an entity. The consumer is
	// responsible for memoizing by identity so shared substructure and
	// cycles collapse to one computation.
	Ref(e Entity)

	// NamedRef records a (key, entity) pair from an ordered-by-key
	// decomposition.
	NamedRef(name string, e Entity)

	// Err records that a sub-value could not be read.
	Err(msg string)
}
