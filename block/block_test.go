package block_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/block"
	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/script"
	"github.com/grael-network/graeld/tx"
)

func mintTx(t *testing.T, nonce uint32) *tx.PrecomputedTx {
	t.Helper()
	sc := script.Script("s")
	m := &tx.MintTx{
		TxData: tx.TxData{Nonce: nonce},
		To:     sc.Hash(),
		Amount: asset.MustFromString("1.00000"),
		Script: sc,
	}
	p, err := tx.Precompute(m)
	require.NoError(t, err)
	return p
}

func TestMerkleRootEmptyIsZero(t *testing.T) {
	require.True(t, block.MerkleRoot(nil).IsZero())
}

func TestMerkleRootSingleIsIdentity(t *testing.T) {
	id := crypto.DoubleSHA256([]byte("one"))
	root := block.MerkleRoot([]crypto.Digest{id})
	require.Equal(t, id, root)
}

func TestMerkleRootChangesOnReorder(t *testing.T) {
	a := crypto.DoubleSHA256([]byte("a"))
	b := crypto.DoubleSHA256([]byte("b"))
	c := crypto.DoubleSHA256([]byte("c"))

	root1 := block.MerkleRoot([]crypto.Digest{a, b, c})
	root2 := block.MerkleRoot([]crypto.Digest{c, b, a})
	require.NotEqual(t, root1, root2, "reordering transactions must change the merkle root")
}

func TestMerkleRootDeterministic(t *testing.T) {
	a := crypto.DoubleSHA256([]byte("a"))
	b := crypto.DoubleSHA256([]byte("b"))
	root1 := block.MerkleRoot([]crypto.Digest{a, b})
	root2 := block.MerkleRoot([]crypto.Digest{a, b})
	require.Equal(t, root1, root2)
}

func TestBlockRoundTrip(t *testing.T) {
	txs := []*tx.PrecomputedTx{mintTx(t, 1), mintTx(t, 2), mintTx(t, 3)}
	blk := block.New(5, crypto.DoubleSHA256([]byte("prev")), 1893456000000, txs)

	pub, priv, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	h, err := blk.Hash()
	require.NoError(t, err)
	blk.Sig = crypto.SignPair(pub, priv, h[:])

	var buf bytes.Buffer
	require.NoError(t, block.Encode(&buf, blk))

	decoded, err := block.Decode(&buf)
	require.NoError(t, err)

	require.Equal(t, blk.Height, decoded.Height)
	require.Equal(t, blk.PreviousHash, decoded.PreviousHash)
	require.Equal(t, blk.TxMerkleRoot, decoded.TxMerkleRoot)
	require.Equal(t, blk.Timestamp, decoded.Timestamp)
	require.Len(t, decoded.Transactions, 3)
	require.Equal(t, blk.Sig, decoded.Sig)

	decodedHash, err := decoded.Hash()
	require.NoError(t, err)
	require.Equal(t, h, decodedHash)
	require.True(t, decoded.Sig.Verify(decodedHash[:]))
}

func TestBlockHashExcludesSignature(t *testing.T) {
	txs := []*tx.PrecomputedTx{mintTx(t, 1)}
	blk := block.New(1, crypto.Digest{}, 0, txs)
	h1, err := blk.Hash()
	require.NoError(t, err)

	pub, priv, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	blk.Sig = crypto.SignPair(pub, priv, h1[:])

	h2, err := blk.Hash()
	require.NoError(t, err)
	require.Equal(t, h1, h2, "signing the block must not change its hash")
}
