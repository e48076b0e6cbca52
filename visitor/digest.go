package visitor

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Digest is an opaque 32-byte hash contribution. Discriminator tags,
// counts and raw-byte digests are all carried as Digests so that the
// event stream stays uniform.
type Digest = [32]byte

// HashOfInt derives a digest from a small integer (a tag, a count, a
// flag). The encoding is fixed-width big-endian, matching the framing
// used everywhere else in the fingerprint serialization.
func HashOfInt(v int64) Digest {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return sha256.Sum256(b[:])
}

// HashOfBytes digests a raw byte string (e.g. a bytecode blob).
func HashOfBytes(b []byte) Digest {
	return sha256.Sum256(b)
}

// DigestHex renders a digest as lowercase hex.
func DigestHex(d Digest) string {
	return hex.EncodeToString(d[:])
}
