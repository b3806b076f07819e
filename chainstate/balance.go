package chainstate

import (
	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/tx"
)

// GetBalance returns h's indexed balance, with no pending transactions
// folded in.
func (e *Engine) GetBalance(h crypto.Digest) (asset.Asset, error) {
	return e.index.Balance(h)
}

// GetBalanceWithTxs implements spec.md §4.2.3: start from h's indexed
// balance and fold pendingTxs in order. A folded arithmetic overflow
// yields ok == false rather than an error, matching "any arithmetic
// overflow yields absence".
func (e *Engine) GetBalanceWithTxs(h crypto.Digest, pendingTxs []*tx.PrecomputedTx) (bal asset.Asset, ok bool, err error) {
	bal, err = e.index.Balance(h)
	if err != nil {
		return 0, false, err
	}

	for _, p := range pendingTxs {
		var next asset.Asset
		var aerr error

		switch t := p.Tx().(type) {
		case *tx.MintTx:
			if t.To != h {
				continue
			}
			next, aerr = bal.Add(t.Amount)
		case *tx.RewardTx:
			if t.To != h {
				continue
			}
			next, aerr = bal.Add(t.Amount)
		case *tx.TransferTx:
			next = bal
			if t.From == h {
				next, aerr = next.Sub(t.Base().Fee)
				if aerr == nil {
					next, aerr = next.Sub(t.Amount)
				}
			}
			if aerr == nil && t.To == h {
				next, aerr = next.Add(t.Amount)
			}
		default:
			continue
		}

		if aerr != nil {
			return 0, false, nil
		}
		bal = next
	}

	return bal, true, nil
}
