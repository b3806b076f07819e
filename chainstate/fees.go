package chainstate

import (
	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/chainparams"
	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/tx"
)

// GetAddressFee implements spec.md §4.2.4's address fee curve: walk
// pendingTxs, then committed blocks from the head backward, counting
// TransferTxs spent from h until FeeResetWindow empty blocks are seen.
func (e *Engine) GetAddressFee(h crypto.Digest, pendingTxs []*tx.PrecomputedTx) (asset.Asset, bool, error) {
	count := uint(1)
	delta := 0

	for _, p := range pendingTxs {
		t, ok := p.Tx().(*tx.TransferTx)
		if !ok || t.From != h {
			continue
		}
		count++
		delta = 0
	}

	height, err := e.index.ChainHeight()
	if err != nil {
		return 0, false, err
	}

	for ht := int64(height); ht >= 0 && delta < chainparams.FeeResetWindow; ht-- {
		blk, err := e.GetBlock(uint64(ht))
		if err != nil {
			return 0, false, err
		}
		if blk == nil {
			break
		}
		matched := false
		for _, p := range blk.Transactions {
			t, ok := p.Tx().(*tx.TransferTx)
			if !ok || t.From != h {
				continue
			}
			count++
			matched = true
		}
		if matched {
			delta = 0
		} else {
			delta++
		}
	}

	mult, err := chainparams.GraelFeeMult.Pow(count)
	if err != nil {
		return 0, false, nil
	}
	fee, err := chainparams.GraelFeeMin.Mul(mult)
	if err != nil {
		return 0, false, nil
	}
	return fee, true, nil
}

// GetNetworkFee implements spec.md §4.2.4's network-wide fee curve.
func (e *Engine) GetNetworkFee() (asset.Asset, bool, error) {
	height, err := e.index.ChainHeight()
	if err != nil {
		return 0, false, err
	}

	maxHeight := height - (height % chainparams.NetworkFeeAvgWindow)
	minHeight := uint64(0)
	if maxHeight > chainparams.NetworkFeeAvgWindow {
		minHeight = maxHeight - chainparams.NetworkFeeAvgWindow
	}

	count := uint64(1)
	for h := minHeight; h <= maxHeight; h++ {
		blk, err := e.GetBlock(h)
		if err != nil {
			return 0, false, err
		}
		if blk == nil {
			continue
		}
		count += uint64(len(blk.Transactions))
	}
	count /= chainparams.NetworkFeeAvgWindow
	if count > 65535 {
		return 0, false, nil
	}

	mult, err := chainparams.GraelFeeNetMult.Pow(uint(count))
	if err != nil {
		return 0, false, nil
	}
	fee, err := chainparams.GraelFeeMin.Mul(mult)
	if err != nil {
		return 0, false, nil
	}
	return fee, true, nil
}

// GetTotalFee is the sum of the address and network fee components.
func (e *Engine) GetTotalFee(h crypto.Digest, pendingTxs []*tx.PrecomputedTx) (asset.Asset, bool, error) {
	addrFee, ok, err := e.GetAddressFee(h, pendingTxs)
	if err != nil || !ok {
		return 0, false, err
	}
	netFee, ok, err := e.GetNetworkFee()
	if err != nil || !ok {
		return 0, false, err
	}
	total, err := addrFee.Add(netFee)
	if err != nil {
		return 0, false, nil
	}
	return total, true, nil
}
