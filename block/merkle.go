package block

import (
	"math"

	"github.com/grael-network/graeld/crypto"
)

// MerkleRoot computes the merkle root over a list of txids, per spec.md
// §3: a power-of-two binary tree, duplicating a node's own hash when it
// has no right sibling, combined with DoubleSHA256. An empty list roots
// to the zero digest.
//
// Grounded on daglabs-btcd's domain/consensus/utils/merkle.
func MerkleRoot(ids []crypto.Digest) crypto.Digest {
	if len(ids) == 0 {
		return crypto.Digest{}
	}

	nextPoT := nextPowerOfTwo(len(ids))
	tree := make([]*crypto.Digest, nextPoT*2-1)
	for i := range ids {
		id := ids[i]
		tree[i] = &id
	}

	offset := nextPoT
	for i := 0; i < len(tree)-1; i += 2 {
		switch {
		case tree[i] == nil:
			tree[offset] = nil
		case tree[i+1] == nil:
			h := combine(*tree[i], *tree[i])
			tree[offset] = &h
		default:
			h := combine(*tree[i], *tree[i+1])
			tree[offset] = &h
		}
		offset++
	}

	return *tree[len(tree)-1]
}

func combine(left, right crypto.Digest) crypto.Digest {
	buf := make([]byte, 0, len(left)+len(right))
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return crypto.DoubleSHA256(buf)
}

func nextPowerOfTwo(n int) int {
	if n&(n-1) == 0 {
		return n
	}
	exponent := uint(math.Log2(float64(n))) + 1
	return 1 << exponent
}
