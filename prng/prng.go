// Package prng implements the deterministic per-transaction byte stream the
// `random` syscall returns. Nothing here is persisted: state is derived
// fresh on every call from consensus inputs.
package prng

import "golang.org/x/crypto/sha3"

const (
	domainSeed   byte = 0x20
	domainStream byte = 0x21
)

// Context carries everything a `random` call needs to derive its byte
// stream, per spec.md §4.4. BeaconPresent/BeaconValue resolve the open
// question pinned in SPEC_FULL.md §9.1: the beacon field is included in the
// transcript if and only if BeaconPresent is true, regardless of whether
// BeaconValue happens to be the all-zero value.
type Context struct {
	ChainID        [32]byte
	Height         uint64
	TxHash         [32]byte
	Caller         []byte
	InstructionIdx uint32
	BeaconPresent  bool
	BeaconValue    [32]byte
}

// Seed derives the 32-byte seed for ctx:
//
//	H(domain_rand || chain_id || height || tx_hash || caller || instruction_idx [|| beacon_value])
//
// InstructionIdx is folded into the seed (not just the stream counter) so
// that two random(..) calls at different instruction indices within the
// same transaction never share a seed, matching Scenario F in spec.md §8.
func Seed(ctx Context) [32]byte {
	buf := make([]byte, 0, 1+32+8+32+4+len(ctx.Caller)+4+32)
	buf = append(buf, domainSeed)
	buf = append(buf, ctx.ChainID[:]...)
	buf = appendU64BE(buf, ctx.Height)
	buf = append(buf, ctx.TxHash[:]...)
	buf = appendU32BE(buf, uint32(len(ctx.Caller)))
	buf = append(buf, ctx.Caller...)
	buf = appendU32BE(buf, ctx.InstructionIdx)
	if ctx.BeaconPresent {
		buf = append(buf, ctx.BeaconValue[:]...)
	}
	return sha3.Sum256(buf)
}

// Derive returns the first n bytes of the deterministic stream for ctx. The
// stream is the concatenation of H(domain_rand_stream || seed ||
// counter_le_u64) for counter = 0, 1, ..., truncated to n bytes; counter
// is little-endian per spec.md §4.4.
func Derive(ctx Context, n uint32) []byte {
	if n == 0 {
		return []byte{}
	}
	seed := Seed(ctx)
	out := make([]byte, 0, n)
	for counter := uint64(0); uint32(len(out)) < n; counter++ {
		buf := make([]byte, 0, 1+32+8)
		buf = append(buf, domainStream)
		buf = append(buf, seed[:]...)
		buf = appendU64LE(buf, counter)
		h := sha3.Sum256(buf)
		need := n - uint32(len(out))
		if need > uint32(len(h)) {
			need = uint32(len(h))
		}
		out = append(out, h[:need]...)
	}
	return out
}

func appendU64BE(dst []byte, v uint64) []byte {
	return append(dst, byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendU32BE(dst []byte, v uint32) []byte {
	return append(dst, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendU64LE(dst []byte, v uint64) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}
