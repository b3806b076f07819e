package blockstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/block"
	"github.com/grael-network/graeld/blockstore"
	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/script"
	"github.com/grael-network/graeld/tx"
)

func genesisBlock(t *testing.T) (*block.Block, crypto.PublicKey, crypto.PrivateKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	sc := script.Script("genesis-owner-script")
	owner := &tx.OwnerTx{
		TxData: tx.TxData{Nonce: 0},
		Minter: pub,
		Wallet: sc.Hash(),
		Script: sc,
	}
	_, err = tx.AppendSign(owner, pub, priv)
	require.NoError(t, err)
	p, err := tx.Precompute(owner)
	require.NoError(t, err)

	blk := block.New(0, crypto.Digest{}, 0, []*tx.PrecomputedTx{p})
	h, err := blk.Hash()
	require.NoError(t, err)
	blk.Sig = crypto.SignPair(pub, priv, h[:])
	return blk, pub, priv
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	store, err := blockstore.Open(filepath.Join(t.TempDir(), "blocks.dat"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	blk, _, _ := genesisBlock(t)
	offset, err := store.InsertGenesis(blk)
	require.NoError(t, err)
	require.Equal(t, uint64(0), offset)

	got, err := store.Get(offset)
	require.NoError(t, err)
	require.Equal(t, blk.Height, got.Height)
	require.Len(t, got.Transactions, 1)
}

func TestInsertSecondBlockOffsetAdvances(t *testing.T) {
	store, err := blockstore.Open(filepath.Join(t.TempDir(), "blocks.dat"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	blk, pub, priv := genesisBlock(t)
	firstOffset, err := store.InsertGenesis(blk)
	require.NoError(t, err)

	sc := script.Script("s")
	mint := &tx.MintTx{TxData: tx.TxData{Nonce: 1}, To: sc.Hash(), Amount: asset.MustFromString("1.00000"), Script: sc}
	p, err := tx.Precompute(mint)
	require.NoError(t, err)
	blk2 := block.New(1, mustHash(t, blk), 1, []*tx.PrecomputedTx{p})
	h2, err := blk2.Hash()
	require.NoError(t, err)
	blk2.Sig = crypto.SignPair(pub, priv, h2[:])

	secondOffset, err := store.Insert(blk2)
	require.NoError(t, err)
	require.Greater(t, secondOffset, firstOffset)

	got, err := store.Get(secondOffset)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.Height)
}

func TestRecoverTruncatesToLastKnownHeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.dat")
	store, err := blockstore.Open(path)
	require.NoError(t, err)

	blk, _, _ := genesisBlock(t)
	offset, err := store.InsertGenesis(blk)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	validSize := info.Size()

	// Append garbage bytes past the genesis record, simulating a crash
	// mid-write of block 1, then reopen and recover.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	store, err = blockstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Recover(0, func(h uint64) (uint64, bool, error) {
		if h == 0 {
			return offset, true, nil
		}
		return 0, false, nil
	}))

	got, err := store.Get(offset)
	require.NoError(t, err)
	require.Equal(t, uint64(0), got.Height)
	require.NoError(t, store.Close())

	info, err = os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, validSize, info.Size())
}

func mustHash(t *testing.T, blk *block.Block) crypto.Digest {
	t.Helper()
	h, err := blk.Hash()
	require.NoError(t, err)
	return h
}
