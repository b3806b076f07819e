package chainindex

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/logs"
	"github.com/grael-network/graeld/serialize"
	"github.com/grael-network/graeld/tx"
)

var log = logs.IDX()

// WriteBatch wraps a single Transaction and is the mutator of index state
// (spec.md §5's shared-resource policy), with one exception: PurgeExpired
// deletes stale txExpiry entries directly through the Database, outside
// any WriteBatch. chainstate.InsertBlock
// opens exactly one WriteBatch per block and commits it once the block
// body is durably appended to the block store.
//
// Cache invalidation happens only in Commit, never on an uncommitted
// stage, so a reader never observes effects from a batch that might still
// roll back.
type WriteBatch struct {
	idx *Index
	tx  Transaction

	// touched records which account/blockByPos cache entries to refresh
	// on a successful commit.
	touchedAccounts map[crypto.Digest]struct{}
	touchedBlockPos map[uint64]struct{}

	closed bool
}

// Begin opens a new WriteBatch against idx.
func (idx *Index) Begin() (*WriteBatch, error) {
	dbTx, err := idx.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "chainindex: begin write batch")
	}
	return &WriteBatch{
		idx:             idx,
		tx:              dbTx,
		touchedAccounts: make(map[crypto.Digest]struct{}),
		touchedBlockPos: make(map[uint64]struct{}),
	}, nil
}

// SetChainHeight records the new chain height.
func (b *WriteBatch) SetChainHeight(h uint64) error {
	var buf bytes.Buffer
	serialize.WriteUint64(&buf, h)
	return b.tx.Put(chainHeightKey, buf.Bytes())
}

// SetTokenSupply records the new total token supply.
func (b *WriteBatch) SetTokenSupply(supply asset.Asset) error {
	var buf bytes.Buffer
	serialize.WriteAsset(&buf, supply)
	return b.tx.Put(tokenSupplyKey, buf.Bytes())
}

// SetNetworkOwner replaces the indexed owner_tx, per spec.md §4.2.5's
// "Owner: replace owner_tx".
func (b *WriteBatch) SetNetworkOwner(owner *tx.OwnerTx) error {
	var buf bytes.Buffer
	if err := tx.Encode(&buf, owner); err != nil {
		return err
	}
	return b.tx.Put(networkOwnerKey, buf.Bytes())
}

// SetIndexStatus records the index's recovery status.
func (b *WriteBatch) SetIndexStatus(status IndexStatus) error {
	return b.tx.Put(indexStatusKey, []byte{byte(status)})
}

// SetBalance sets h's indexed balance to bal.
func (b *WriteBatch) SetBalance(h crypto.Digest, bal asset.Asset) error {
	var buf bytes.Buffer
	serialize.WriteAsset(&buf, bal)
	if err := b.tx.Put(accountBucket.Key(h[:]), buf.Bytes()); err != nil {
		return err
	}
	b.touchedAccounts[h] = struct{}{}
	return nil
}

// CreditBalance adds delta to h's indexed balance (delta may be negative
// via asset.Asset's own sign, since it is backed by a signed integer).
// The current balance is read through the batch, so several credits to
// the same h within one batch accumulate.
func (b *WriteBatch) CreditBalance(h crypto.Digest, delta asset.Asset) error {
	cur := asset.Zero
	raw, err := b.tx.Get(accountBucket.Key(h[:]))
	switch {
	case err == nil:
		if cur, err = serialize.ReadAsset(bytes.NewReader(raw)); err != nil {
			return err
		}
	case !IsNotFoundError(err):
		return err
	}
	next, err := cur.Add(delta)
	if err != nil {
		return errors.Wrapf(err, "chainindex: credit balance for %s", h)
	}
	return b.SetBalance(h, next)
}

// SetAccountByID materializes acc under its AccountId, per CreateAccountTx
// (SPEC_FULL.md §5.5.1).
func (b *WriteBatch) SetAccountByID(acc tx.Account) error {
	return b.tx.Put(accountsByIDBucket.Key(encodeAccountID(acc.Id)), encodeAccount(acc))
}

// SetBlockOffset records the byte offset of the block at height h.
func (b *WriteBatch) SetBlockOffset(h, offset uint64) error {
	var buf bytes.Buffer
	serialize.WriteUint64(&buf, offset)
	if err := b.tx.Put(blockByPosBucket.Key(keyOf(h)), buf.Bytes()); err != nil {
		return err
	}
	b.touchedBlockPos[h] = struct{}{}
	return nil
}

// RecordTxExpiry indexes id's expiry so HasExpired can reject a replay of
// an already-seen transaction and PurgeExpired can later reclaim the
// entry once it falls outside its grace period.
func (b *WriteBatch) RecordTxExpiry(id tx.TxId, expiryMs uint64) error {
	var buf bytes.Buffer
	serialize.WriteUint64(&buf, expiryMs)
	return b.tx.Put(txExpiryBucket.Key(id[:]), buf.Bytes())
}

// Commit applies every write in the batch atomically and refreshes the
// caches touched by it.
func (b *WriteBatch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return errors.Wrap(err, "chainindex: commit write batch")
	}
	b.closed = true
	for h := range b.touchedAccounts {
		b.idx.accountCache.Remove(h)
	}
	for h := range b.touchedBlockPos {
		b.idx.blockByPosCache.Remove(h)
	}
	log.Debugf("commit: %d account(s), %d block offset(s) invalidated", len(b.touchedAccounts), len(b.touchedBlockPos))
	return nil
}

// Rollback discards every write in the batch if Commit was never called.
func (b *WriteBatch) Rollback() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.tx.RollbackUnlessClosed(); err != nil {
		return err
	}
	log.Debugf("rollback: write batch discarded")
	return nil
}

func keyOf(h uint64) []byte {
	var buf bytes.Buffer
	serialize.WriteUint64(&buf, h)
	return buf.Bytes()
}
