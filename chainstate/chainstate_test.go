package chainstate_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/block"
	"github.com/grael-network/graeld/blockstore"
	"github.com/grael-network/graeld/chainindex"
	"github.com/grael-network/graeld/chainindex/ldb"
	"github.com/grael-network/graeld/chainstate"
	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/script"
	"github.com/grael-network/graeld/tx"
)

type harness struct {
	t      *testing.T
	engine *chainstate.Engine
	index  *chainindex.Index
	store  *blockstore.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := ldb.Open(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	idx, err := chainindex.New(db)
	require.NoError(t, err)

	store, err := blockstore.Open(filepath.Join(t.TempDir(), "blocks.dat"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	return &harness{
		t:      t,
		engine: chainstate.New(idx, store, script.NopEngine{}),
		index:  idx,
		store:  store,
	}
}

type keypair struct {
	pub  crypto.PublicKey
	priv crypto.PrivateKey
}

func newKeypair(t *testing.T) keypair {
	t.Helper()
	pub, priv, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	return keypair{pub: pub, priv: priv}
}

func precompute(t *testing.T, txn tx.Tx) *tx.PrecomputedTx {
	t.Helper()
	p, err := tx.Precompute(txn)
	require.NoError(t, err)
	return p
}

func signedBlock(t *testing.T, height uint64, prevHash crypto.Digest, ts uint64, txs []*tx.PrecomputedTx, kp keypair) *block.Block {
	t.Helper()
	blk := block.New(height, prevHash, ts, txs)
	h, err := blk.Hash()
	require.NoError(t, err)
	blk.Sig = crypto.SignPair(kp.pub, kp.priv, h[:])
	return blk
}

// genesisOwnerBlock builds and signs height-0's block: a single OwnerTx
// rotating ownership to owner's own wallet script.
func genesisOwnerBlock(t *testing.T, owner keypair, ownerScript script.Script) (*block.Block, *tx.PrecomputedTx) {
	t.Helper()
	ownerTx := &tx.OwnerTx{
		TxData: tx.TxData{Nonce: 0},
		Minter: owner.pub,
		Wallet: ownerScript.Hash(),
		Script: ownerScript,
	}
	_, err := tx.AppendSign(ownerTx, owner.pub, owner.priv)
	require.NoError(t, err)
	p := precompute(t, ownerTx)
	blk := signedBlock(t, 0, crypto.Digest{}, 0, []*tx.PrecomputedTx{p}, owner)
	return blk, p
}

func TestInsertBlockGenesisThenMint(t *testing.T) {
	h := newHarness(t)
	owner := newKeypair(t)
	ownerScript := script.Script("owner-script")

	genesis, _ := genesisOwnerBlock(t, owner, ownerScript)
	require.NoError(t, h.engine.InsertBlock(genesis))

	props, err := h.engine.GetProperties()
	require.NoError(t, err)
	require.Equal(t, uint64(0), props.Height)
	require.NotNil(t, props.Owner)
	require.Equal(t, ownerScript.Hash(), props.Owner.Wallet)

	recipient := script.Script("recipient-script").Hash()
	mintTx := &tx.MintTx{
		TxData: tx.TxData{Nonce: 1},
		To:     recipient,
		Amount: asset.MustFromString("10.00000"),
		Script: ownerScript,
	}
	_, err = tx.AppendSign(mintTx, owner.pub, owner.priv)
	require.NoError(t, err)
	mp := precompute(t, mintTx)

	genesisHash, err := genesis.Hash()
	require.NoError(t, err)
	blk1 := signedBlock(t, 1, genesisHash, 1, []*tx.PrecomputedTx{mp}, owner)
	require.NoError(t, h.engine.InsertBlock(blk1))

	bal, err := h.engine.GetBalance(recipient)
	require.NoError(t, err)
	require.Equal(t, asset.MustFromString("10.00000"), bal)

	supply, err := h.index.TokenSupply()
	require.NoError(t, err)
	require.Equal(t, asset.MustFromString("10.00000"), supply)

	head, err := h.engine.GetChainHead()
	require.NoError(t, err)
	require.Equal(t, uint64(1), head.Height)
}

func TestInsertBlockRejectsBadHeight(t *testing.T) {
	h := newHarness(t)
	owner := newKeypair(t)
	genesis, _ := genesisOwnerBlock(t, owner, script.Script("owner-script"))
	genesis.Height = 1 // skip genesis height

	err := h.engine.InsertBlock(genesis)
	require.Error(t, err)
	var berr *chainstate.BlockError
	require.ErrorAs(t, err, &berr)
	require.Equal(t, chainstate.ErrInvalidBlockHeight, berr.Kind)
}

func TestInsertBlockRejectsBadMerkleRoot(t *testing.T) {
	h := newHarness(t)
	owner := newKeypair(t)
	genesis, _ := genesisOwnerBlock(t, owner, script.Script("owner-script"))
	genesis.TxMerkleRoot = crypto.DoubleSHA256([]byte("tampered"))
	// re-sign over the tampered header so the signature check doesn't
	// mask the merkle check.
	hh, err := genesis.Hash()
	require.NoError(t, err)
	genesis.Sig = crypto.SignPair(owner.pub, owner.priv, hh[:])

	err = h.engine.InsertBlock(genesis)
	require.Error(t, err)
	var berr *chainstate.BlockError
	require.ErrorAs(t, err, &berr)
	require.Equal(t, chainstate.ErrInvalidMerkleRoot, berr.Kind)
}

func TestInsertBlockRejectsBadPrevHash(t *testing.T) {
	h := newHarness(t)
	owner := newKeypair(t)
	genesis, _ := genesisOwnerBlock(t, owner, script.Script("owner-script"))
	require.NoError(t, h.engine.InsertBlock(genesis))

	mintTx := &tx.MintTx{TxData: tx.TxData{Nonce: 1}, To: script.Script("r").Hash(), Amount: asset.MustFromString("1.00000"), Script: script.Script("owner-script")}
	_, err := tx.AppendSign(mintTx, owner.pub, owner.priv)
	require.NoError(t, err)
	mp := precompute(t, mintTx)

	blk1 := signedBlock(t, 1, crypto.DoubleSHA256([]byte("wrong-prev")), 1, []*tx.PrecomputedTx{mp}, owner)
	err = h.engine.InsertBlock(blk1)
	require.Error(t, err)
	var berr *chainstate.BlockError
	require.ErrorAs(t, err, &berr)
	require.Equal(t, chainstate.ErrInvalidPrevHash, berr.Kind)
}

func TestInsertBlockRejectsWrongSigner(t *testing.T) {
	h := newHarness(t)
	owner := newKeypair(t)
	impostor := newKeypair(t)
	genesis, _ := genesisOwnerBlock(t, owner, script.Script("owner-script"))
	require.NoError(t, h.engine.InsertBlock(genesis))

	mintTx := &tx.MintTx{TxData: tx.TxData{Nonce: 1}, To: script.Script("r").Hash(), Amount: asset.MustFromString("1.00000"), Script: script.Script("owner-script")}
	_, err := tx.AppendSign(mintTx, owner.pub, owner.priv)
	require.NoError(t, err)
	mp := precompute(t, mintTx)

	genesisHash, err := genesis.Hash()
	require.NoError(t, err)
	blk1 := signedBlock(t, 1, genesisHash, 1, []*tx.PrecomputedTx{mp}, impostor)
	err = h.engine.InsertBlock(blk1)
	require.Error(t, err)
	var berr *chainstate.BlockError
	require.ErrorAs(t, err, &berr)
	require.Equal(t, chainstate.ErrInvalidSignature, berr.Kind)
}

func TestInsertBlockWrapsPerTxFailure(t *testing.T) {
	h := newHarness(t)
	owner := newKeypair(t)
	genesis, _ := genesisOwnerBlock(t, owner, script.Script("owner-script"))
	require.NoError(t, h.engine.InsertBlock(genesis))

	badMint := &tx.MintTx{
		TxData: tx.TxData{Nonce: 1, Fee: asset.MustFromString("0.00001")},
		To:     script.Script("r").Hash(),
		Amount: asset.MustFromString("1.00000"),
		Script: script.Script("owner-script"),
	}
	_, err := tx.AppendSign(badMint, owner.pub, owner.priv)
	require.NoError(t, err)
	mp := precompute(t, badMint)

	genesisHash, err := genesis.Hash()
	require.NoError(t, err)
	blk1 := signedBlock(t, 1, genesisHash, 1, []*tx.PrecomputedTx{mp}, owner)
	err = h.engine.InsertBlock(blk1)
	require.Error(t, err)
	var berr *chainstate.BlockError
	require.ErrorAs(t, err, &berr)
	require.Equal(t, chainstate.ErrTx, berr.Kind)
	require.Equal(t, 0, berr.TxIndex)
	var terr *chainstate.TxError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, chainstate.ErrInvalidFeeAmount, terr.Kind)
}
