package tx_test

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/script"
	"github.com/grael-network/graeld/tx"
)

func mustKeypair(t *testing.T) (crypto.PublicKey, crypto.PrivateKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	return pub, priv
}

func TestTransferTxRoundTrip(t *testing.T) {
	pub, priv := mustKeypair(t)
	sc := script.Script("pay-to-pubkey-script")

	transfer := &tx.TransferTx{
		TxData: tx.TxData{
			Nonce:  7,
			Expiry: 1893456000000,
			Fee:    asset.MustFromString("0.00100"),
		},
		From:   sc.Hash(),
		Script: sc,
		CallFn: 1,
		Args:   []byte{0xAA, 0xBB},
		Amount: asset.MustFromString("5.00000"),
		Memo:   []byte("payment"),
		To:     crypto.DoubleSHA256([]byte("recipient")),
	}
	_, err := tx.AppendSign(transfer, pub, priv)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tx.Encode(&buf, transfer))

	decoded, err := tx.Decode(&buf)
	require.NoError(t, err)

	got, ok := decoded.(*tx.TransferTx)
	require.True(t, ok, spew.Sdump(decoded))
	require.Equal(t, transfer.From, got.From)
	require.Equal(t, transfer.To, got.To)
	require.Equal(t, transfer.Amount, got.Amount)
	require.Equal(t, transfer.Memo, got.Memo)
	require.Equal(t, transfer.Base().Signatures, got.Base().Signatures)

	id1, err := tx.CalcTxId(transfer)
	require.NoError(t, err)
	id2, err := tx.CalcTxId(got)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestOwnerTxRoundTrip(t *testing.T) {
	pub, priv := mustKeypair(t)
	sc := script.Script("owner-script")
	owner := &tx.OwnerTx{
		TxData: tx.TxData{Nonce: 1, Expiry: 100},
		Minter: pub,
		Wallet: sc.Hash(),
		Script: sc,
	}
	_, err := tx.AppendSign(owner, pub, priv)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tx.Encode(&buf, owner))
	decoded, err := tx.Decode(&buf)
	require.NoError(t, err)
	got := decoded.(*tx.OwnerTx)
	require.Equal(t, owner.Minter, got.Minter)
	require.Equal(t, owner.Wallet, got.Wallet)
}

func TestCreateAccountTxRoundTrip(t *testing.T) {
	ca := &tx.CreateAccountTx{
		TxData:  tx.TxData{Nonce: 3},
		Creator: 42,
		Account: tx.Account{
			Id:      99,
			Balance: asset.MustFromString("10.00000"),
			Script:  script.Script("account-script"),
		},
	}
	var buf bytes.Buffer
	require.NoError(t, tx.Encode(&buf, ca))
	decoded, err := tx.Decode(&buf)
	require.NoError(t, err)
	got := decoded.(*tx.CreateAccountTx)
	require.Equal(t, ca.Creator, got.Creator)
	require.Equal(t, ca.Account, got.Account)
}

func TestTxIdExcludesSignatures(t *testing.T) {
	pub, priv := mustKeypair(t)
	sc := script.Script("s")
	mint := &tx.MintTx{
		TxData: tx.TxData{Nonce: 1},
		To:     sc.Hash(),
		Amount: asset.MustFromString("1.00000"),
		Script: sc,
	}
	idBefore, err := tx.CalcTxId(mint)
	require.NoError(t, err)

	_, err = tx.AppendSign(mint, pub, priv)
	require.NoError(t, err)

	idAfter, err := tx.CalcTxId(mint)
	require.NoError(t, err)
	require.Equal(t, idBefore, idAfter, "txid must not depend on signatures")
}

func TestPrecomputeMatchesCalcTxId(t *testing.T) {
	sc := script.Script("s")
	mint := &tx.MintTx{TxData: tx.TxData{Nonce: 9}, To: sc.Hash(), Amount: asset.MustFromString("1.00000"), Script: sc}
	p, err := tx.Precompute(mint)
	require.NoError(t, err)
	want, err := tx.CalcTxId(mint)
	require.NoError(t, err)
	require.Equal(t, want, p.TxId())
	require.Same(t, Tx(mint), Tx(p.Tx()))
}

// Tx is a tiny local alias so the require.Same comparison above compares
// interface identity, not a freshly boxed copy.
type Tx = tx.Tx

func TestDecodeRejectsUnknownType(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0xFF}) // version 0, bogus type tag
	_, err := tx.Decode(&buf)
	require.Error(t, err)
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x01, 0x00})
	_, err := tx.Decode(&buf)
	require.ErrorIs(t, err, tx.ErrUnsupportedVersion)
}
