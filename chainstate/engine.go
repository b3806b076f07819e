// Package chainstate implements the chain state engine from spec.md
// §4.2: block and transaction verification, balance projection, the
// dynamic fee policy, and the indexing effects each admitted transaction
// has on the account/token-supply index.
package chainstate

import (
	"time"

	"github.com/pkg/errors"

	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/block"
	"github.com/grael-network/graeld/blockstore"
	"github.com/grael-network/graeld/chainindex"
	"github.com/grael-network/graeld/chainparams"
	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/script"
	"github.com/grael-network/graeld/tx"
)

// Properties is the snapshot returned by GetProperties.
type Properties struct {
	Height      uint64
	Owner       *tx.OwnerTx
	TokenSupply asset.Asset
	NetworkFee  asset.Asset
	HasFee      bool
}

// Engine is the chain state engine: a durable index plus the append-only
// block log, with script evaluation delegated to an external Engine.
type Engine struct {
	index   *chainindex.Index
	store   *blockstore.Store
	scripts script.Engine
}

// New wires index, store and scripts into an Engine.
func New(index *chainindex.Index, store *blockstore.Store, scripts script.Engine) *Engine {
	return &Engine{index: index, store: store, scripts: scripts}
}

// GetProperties implements spec.md §4.2's get_properties.
func (e *Engine) GetProperties() (Properties, error) {
	height, err := e.index.ChainHeight()
	if err != nil {
		return Properties{}, err
	}
	owner, _, err := e.index.NetworkOwner()
	if err != nil {
		return Properties{}, err
	}
	supply, err := e.index.TokenSupply()
	if err != nil {
		return Properties{}, err
	}
	fee, hasFee, err := e.GetNetworkFee()
	if err != nil {
		return Properties{}, err
	}
	return Properties{Height: height, Owner: owner, TokenSupply: supply, NetworkFee: fee, HasFee: hasFee}, nil
}

// GetBlock returns the block at height, or nil if none is indexed there.
func (e *Engine) GetBlock(height uint64) (*block.Block, error) {
	offset, ok, err := e.index.BlockOffset(height)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return e.store.Get(offset)
}

// GetChainHead returns the block at the current indexed chain height.
func (e *Engine) GetChainHead() (*block.Block, error) {
	height, err := e.index.ChainHeight()
	if err != nil {
		return nil, err
	}
	return e.GetBlock(height)
}

// InsertBlock implements spec.md §4.2.1's ordered block verification
// followed by §4.2.5's indexing, all inside a single atomic WriteBatch
// committed after the block body is durably appended to the block store.
func (e *Engine) InsertBlock(blk *block.Block) error {
	owner, hasOwner, err := e.index.NetworkOwner()
	if err != nil {
		return err
	}

	// A genesis insert (no owner_tx indexed yet) skips the prev-block
	// linkage checks — there is no prior block to link to.
	var prevHash crypto.Digest
	if !hasOwner {
		if blk.Height != 0 {
			return blockErr(ErrInvalidBlockHeight)
		}
	} else {
		height, err := e.index.ChainHeight()
		if err != nil {
			return err
		}
		prev, err := e.GetBlock(height)
		if err != nil {
			return err
		}
		if prev == nil || blk.Height != prev.Height+1 {
			return blockErr(ErrInvalidBlockHeight)
		}
		if prevHash, err = prev.Hash(); err != nil {
			return err
		}
	}

	wantRoot := block.MerkleRoot(idsOf(blk.Transactions))
	if blk.TxMerkleRoot != wantRoot {
		return blockErr(ErrInvalidMerkleRoot)
	}

	if hasOwner && blk.PreviousHash != prevHash {
		return blockErr(ErrInvalidPrevHash)
	}

	blockHash, err := blk.Hash()
	if err != nil {
		return err
	}
	if !blk.Sig.Verify(blockHash[:]) {
		return blockErr(ErrInvalidHash)
	}
	if hasOwner && blk.Sig.PubKey != owner.Minter {
		return blockErr(ErrInvalidSignature)
	}

	nowMs := uint64(time.Now().UnixMilli())
	for i, p := range blk.Transactions {
		if err := e.VerifyTx(p, blk.Transactions[:i], VerifyConfig{SkipReward: true, NowMs: nowMs}); err != nil {
			return blockTxErr(i, err)
		}
	}

	if err := e.index.PurgeExpired(nowMs, chainparams.TxExpiryAdjustment); err != nil {
		return errors.Wrap(err, "chainstate: purge expired tx-expiry entries")
	}

	offset, err := e.store.Insert(blk)
	if err != nil {
		return errors.Wrap(err, "chainstate: insert block body")
	}

	batch, err := e.index.Begin()
	if err != nil {
		return err
	}
	defer batch.Rollback()

	if err := e.applyIndexEffects(batch, blk); err != nil {
		return err
	}
	if err := batch.SetBlockOffset(blk.Height, offset); err != nil {
		return err
	}
	if err := batch.SetChainHeight(blk.Height); err != nil {
		return err
	}

	return batch.Commit()
}

func idsOf(txs []*tx.PrecomputedTx) []crypto.Digest {
	ids := make([]crypto.Digest, len(txs))
	for i, t := range txs {
		ids[i] = crypto.Digest(t.TxId())
	}
	return ids
}

// applyIndexEffects implements spec.md §4.2.5's per-tx indexing effects.
func (e *Engine) applyIndexEffects(batch *chainindex.WriteBatch, blk *block.Block) error {
	supply, err := e.index.TokenSupply()
	if err != nil {
		return err
	}

	for _, p := range blk.Transactions {
		t := p.Tx()
		if err := batch.RecordTxExpiry(p.TxId(), t.Base().Expiry); err != nil {
			return err
		}

		switch v := t.(type) {
		case *tx.OwnerTx:
			if err := batch.SetNetworkOwner(v); err != nil {
				return err
			}
		case *tx.MintTx:
			supply, err = supply.Add(v.Amount)
			if err != nil {
				return errors.Wrap(err, "chainstate: token supply overflow")
			}
			if err := batch.SetTokenSupply(supply); err != nil {
				return err
			}
			if err := batch.CreditBalance(v.To, v.Amount); err != nil {
				return err
			}
		case *tx.CreateAccountTx:
			if err := batch.SetAccountByID(v.Account); err != nil {
				return err
			}
		case *tx.RewardTx:
			if err := batch.CreditBalance(v.To, v.Amount); err != nil {
				return err
			}
		case *tx.TransferTx:
			debit, err := v.Base().Fee.Add(v.Amount)
			if err != nil {
				return errors.Wrap(err, "chainstate: transfer debit overflow")
			}
			if err := batch.CreditBalance(v.From, -debit); err != nil {
				return err
			}
			if err := batch.CreditBalance(v.To, v.Amount); err != nil {
				return err
			}
		}
	}
	return nil
}
