package tx

import (
	"bytes"

	"github.com/grael-network/graeld/chainparams"
	"github.com/grael-network/graeld/crypto"
)

// CalcTxId derives t's txid: DoubleSHA256(CHAIN_ID || serialize_without_sigs(t)).
// Signatures are excluded from the preimage so that signers sign the txid
// itself (spec.md §3).
func CalcTxId(t Tx) (TxId, error) {
	var buf bytes.Buffer
	buf.Write(chainparams.ChainID)
	if err := EncodeWithoutSigs(&buf, t); err != nil {
		return TxId{}, err
	}
	return TxId(crypto.DoubleSHA256(buf.Bytes())), nil
}

// AppendSign computes t's txid, signs it with priv, and appends the
// resulting SigPair to t's signature list. It returns the txid it signed.
func AppendSign(t Tx, pub crypto.PublicKey, priv crypto.PrivateKey) (TxId, error) {
	id, err := CalcTxId(t)
	if err != nil {
		return TxId{}, err
	}
	sp := crypto.SignPair(pub, priv, id[:])
	base := t.Base()
	base.Signatures = append(base.Signatures, sp)
	return id, nil
}

// VerifySignatureBy reports whether any of t's signatures is a valid
// signature over id by pub.
func VerifySignatureBy(t Tx, id TxId, pub crypto.PublicKey) bool {
	for _, sp := range t.Base().Signatures {
		if sp.PubKey == pub && sp.Verify(id[:]) {
			return true
		}
	}
	return false
}
