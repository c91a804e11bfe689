package chain

import "github.com/pandoraboxchain/rustheus/primitives"

// MerkleRoot computes the Merkle root of a list of hashes using the
// Bitcoin-style binary tree: at each level, hashes are paired off and
// double-SHA256'd together; an odd trailing hash is paired with itself.
// An empty input returns the zero hash.
func MerkleRoot(hashes []primitives.H256) primitives.H256 {
	if len(hashes) == 0 {
		return primitives.ZeroH256
	}
	level := make([]primitives.H256, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]primitives.H256, len(level)/2)
		for i := 0; i < len(next); i++ {
			var buf [primitives.H256Size * 2]byte
			copy(buf[:primitives.H256Size], level[2*i][:])
			copy(buf[primitives.H256Size:], level[2*i+1][:])
			next[i] = primitives.DoubleSHA256(buf[:])
		}
		level = next
	}
	return level[0]
}
