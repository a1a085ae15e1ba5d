package privacy

import (
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidLeafIndex is returned when a proof is requested for an index
// outside the leaf set.
var ErrInvalidLeafIndex = errors.New("privacy: leaf index out of range")

func hashPair(left, right [32]byte) [32]byte {
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(left[:], right[:]))
	return out
}

// merkleLevels materialises every level of the tree bottom-up. A node at the
// end of an odd-sized level is paired with itself: the sibling index is
// clamped to the level bounds.
func merkleLevels(leaves [][32]byte) [][][32]byte {
	levels := [][][32]byte{append([][32]byte(nil), leaves...)}
	for len(levels[len(levels)-1]) > 1 {
		current := levels[len(levels)-1]
		next := make([][32]byte, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			sibling := i
			if i+1 < len(current) {
				sibling = i + 1
			}
			next = append(next, hashPair(current[i], current[sibling]))
		}
		levels = append(levels, next)
	}
	return levels
}

// MerkleRoot computes the root over the supplied leaf hashes.
func MerkleRoot(leaves [][32]byte) [32]byte {
	if len(leaves) == 0 {
		return [32]byte{}
	}
	levels := merkleLevels(leaves)
	return levels[len(levels)-1][0]
}

// BuildMerkleProof returns the bottom-up sibling path for the leaf at index.
// At each level the sibling is index+1 for even indexes and index-1 for odd
// ones, clamped to the level bounds.
func BuildMerkleProof(leaves [][32]byte, index int) ([][32]byte, error) {
	if index < 0 || index >= len(leaves) {
		return nil, ErrInvalidLeafIndex
	}
	levels := merkleLevels(leaves)
	proof := make([][32]byte, 0, len(levels)-1)
	for _, level := range levels[:len(levels)-1] {
		var sibling int
		if index%2 == 0 {
			sibling = index + 1
			if sibling >= len(level) {
				sibling = index
			}
		} else {
			sibling = index - 1
		}
		proof = append(proof, level[sibling])
		index /= 2
	}
	return proof, nil
}

// VerifyMerkleProof recomputes the root from a leaf and its sibling path,
// ordering each pair by the current index parity, and compares it to the
// expected root.
func VerifyMerkleProof(leaf [32]byte, proof [][32]byte, root [32]byte, index int) bool {
	if index < 0 {
		return false
	}
	current := leaf
	for _, sibling := range proof {
		if index%2 == 0 {
			current = hashPair(current, sibling)
		} else {
			current = hashPair(sibling, current)
		}
		index /= 2
	}
	return current == root
}
