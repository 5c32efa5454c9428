package idderive

import "golang.org/x/crypto/sha3"

// sum256 is the single hash primitive used throughout the capability layer.
// x/crypto/sha3 is used (rather than the stdlib crypto/sha3 package) to
// match the provider already wired into the node's crypto package for its
// development signing backend.
func sum256(b []byte) [32]byte {
	return sha3.Sum256(b)
}

// Sum256 exposes the capability layer's single hash primitive to callers
// outside this package that need a plain digest of already-canonical bytes
// (e.g. the opts_digest field of a JobRequest), without giving them a
// domain-tagged derivation function to misuse.
func Sum256(b []byte) [32]byte {
	return sum256(b)
}

// putUint64BE appends the big-endian encoding of v to dst and returns the
// extended slice. Big-endian (not the wire-level little-endian used
// elsewhere in the node) is used for every hash preimage so that
// lexicographic byte order matches numeric order, which the height-ordered
// store indexes rely on.
func putUint64BE(dst []byte, v uint64) []byte {
	return append(dst,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v),
	)
}

// lp (length-prefixed) appends a big-endian uint32 length followed by b to
// dst, so that variable-width fields in a hash preimage cannot be
// reinterpreted across a field boundary (e.g. caller="ab"+payload="cd" vs
// caller="a"+payload="bcd").
func lp(dst []byte, b []byte) []byte {
	dst = putUint32BE(dst, uint32(len(b)))
	return append(dst, b...)
}

func putUint32BE(dst []byte, v uint32) []byte {
	return append(dst, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
