package tx

import "github.com/grael-network/graeld/crypto"

// PrecomputedTx is the "copy-on-write" envelope from spec.md §9: it binds a
// transaction to its already-computed txid so that validation paths never
// re-hash a transaction they have already admitted. Construct it once, at
// admission time, via Precompute.
type PrecomputedTx struct {
	tx   Tx
	txid TxId
}

// Precompute computes t's txid once and returns the resulting envelope.
func Precompute(t Tx) (*PrecomputedTx, error) {
	id, err := CalcTxId(t)
	if err != nil {
		return nil, err
	}
	return &PrecomputedTx{tx: t, txid: id}, nil
}

// PrecomputeWithId wraps t and a txid already known to be correct (e.g. one
// read back from the block store, where recomputing would be redundant).
func PrecomputeWithId(t Tx, id TxId) *PrecomputedTx {
	return &PrecomputedTx{tx: t, txid: id}
}

// Tx returns the wrapped transaction.
func (p *PrecomputedTx) Tx() Tx { return p.tx }

// TxId returns the transaction's precomputed txid.
func (p *PrecomputedTx) TxId() TxId { return p.txid }

// VerifySignatureBy reports whether any signature on the wrapped
// transaction is a valid signature over its txid by pub.
func (p *PrecomputedTx) VerifySignatureBy(pub crypto.PublicKey) bool {
	return VerifySignatureBy(p.tx, p.txid, pub)
}
