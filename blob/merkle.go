package blob

import (
	"context"

	"golang.org/x/crypto/sha3"

	"rubin.dev/capcore/idderive"
)

// leafSize is the erasure-coded leaf width for the reference adapter's
// namespaced Merkle tree. Production DA backends choose their own encoding;
// this reference only needs to be deterministic, not identical to any
// particular real DA scheme.
const leafSize = 256

// MerkleAdapter is a deterministic, in-process reference Adapter: it
// chunks data into fixed-size leaves prefixed by the namespace, hashes each
// leaf, and folds them into a binary Merkle root using the same
// domain-tagged leaf/node hashing idiom the chain's transaction Merkle root
// uses (disjoint leaf and node preimage tags so a leaf hash can never be
// reinterpreted as an internal node hash).
type MerkleAdapter struct{}

// Pin computes the namespaced Merkle root over data and returns it along
// with the input length. It never performs I/O and never fails for any ns
// (the namespace allowlist is enforced by the syscall layer, not here).
func (MerkleAdapter) Pin(_ context.Context, ns uint32, data []byte) (Commitment, uint64, error) {
	leaves := chunkLeaves(ns, data)
	root := merkleRootTagged(leaves)
	return root, uint64(len(data)), nil
}

func chunkLeaves(ns uint32, data []byte) [][32]byte {
	if len(data) == 0 {
		return [][32]byte{leafHash(ns, nil)}
	}
	var leaves [][32]byte
	for off := 0; off < len(data); off += leafSize {
		end := off + leafSize
		if end > len(data) {
			end = len(data)
		}
		leaves = append(leaves, leafHash(ns, data[off:end]))
	}
	return leaves
}

func leafHash(ns uint32, chunk []byte) [32]byte {
	buf := make([]byte, 0, 1+4+len(chunk))
	buf = append(buf, byte(idderive.DomainBlobCommitmentLeaf))
	buf = append(buf, byte(ns>>24), byte(ns>>16), byte(ns>>8), byte(ns))
	buf = append(buf, chunk...)
	return sha3.Sum256(buf)
}

func merkleRootTagged(level [][32]byte) [32]byte {
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); {
			if i == len(level)-1 {
				next = append(next, level[i]) // odd promotion: carry forward
				i++
				continue
			}
			buf := make([]byte, 0, 1+64)
			buf = append(buf, byte(idderive.DomainBlobCommitmentNode))
			buf = append(buf, level[i][:]...)
			buf = append(buf, level[i+1][:]...)
			next = append(next, sha3.Sum256(buf))
			i += 2
		}
		level = next
	}
	if len(level) == 0 {
		return [32]byte{}
	}
	return level[0]
}
