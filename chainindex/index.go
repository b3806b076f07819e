package chainindex

import (
	"bytes"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/serialize"
	"github.com/grael-network/graeld/tx"
)

// Column families and scalar keys. Bucket-prefixed, mirroring
// daglabs-btcd's dbaccess module-level `var fooBucket = MakeBucket(...)`
// idiom.
var (
	blockByPosBucket   = MakeBucket([]byte("blockByPos"))
	accountBucket      = MakeBucket([]byte("account"))
	accountsByIDBucket = MakeBucket([]byte("accountsById"))
	txExpiryBucket     = MakeBucket([]byte("txExpiry"))

	chainHeightKey  = []byte("chainHeight")
	tokenSupplyKey  = []byte("tokenSupply")
	networkOwnerKey = []byte("networkOwner")
	indexStatusKey  = []byte("indexStatus")
)

// IndexStatus is the recovery flag stored under the indexStatus key.
// Nothing in this repository writes it (SetIndexStatus has no caller) and
// blockstore.Recover does not read it, so Status reports StatusClean for
// every index this code produces.
type IndexStatus uint8

const (
	StatusClean IndexStatus = iota
	StatusDirty
)

// accountCacheCap and blockByPosCacheCap bound the read-through LRU layers
// in front of their respective column families.
const (
	accountCacheCap    = 8192
	blockByPosCacheCap = 4096
)

// Index is the chainindex handle used by chainstate: a Database plus
// read-through LRU caches over the account and blockByPos column
// families, mirroring the teacher's lrucache.LRUCache staging pattern in
// acceptancedatastore/ghostdagdatastore.
type Index struct {
	db Database

	accountCache    *lru.Cache[crypto.Digest, asset.Asset]
	blockByPosCache *lru.Cache[uint64, uint64]
}

// New wraps db in an Index.
func New(db Database) (*Index, error) {
	accountCache, err := lru.New[crypto.Digest, asset.Asset](accountCacheCap)
	if err != nil {
		return nil, errors.Wrap(err, "chainindex: new account cache")
	}
	blockByPosCache, err := lru.New[uint64, uint64](blockByPosCacheCap)
	if err != nil {
		return nil, errors.Wrap(err, "chainindex: new blockByPos cache")
	}
	return &Index{db: db, accountCache: accountCache, blockByPosCache: blockByPosCache}, nil
}

// Close closes the underlying database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// ChainHeight returns the indexed chain height, or 0 if the index is
// empty (no block inserted yet).
func (idx *Index) ChainHeight() (uint64, error) {
	b, err := idx.db.Get(chainHeightKey)
	if IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return serialize.ReadUint64(bytes.NewReader(b))
}

// TokenSupply returns the indexed total token supply.
func (idx *Index) TokenSupply() (asset.Asset, error) {
	b, err := idx.db.Get(tokenSupplyKey)
	if IsNotFoundError(err) {
		return asset.Zero, nil
	}
	if err != nil {
		return asset.Zero, err
	}
	return serialize.ReadAsset(bytes.NewReader(b))
}

// NetworkOwner returns the currently indexed OwnerTx, if one has ever
// been applied.
func (idx *Index) NetworkOwner() (*tx.OwnerTx, bool, error) {
	b, err := idx.db.Get(networkOwnerKey)
	if IsNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	decoded, err := tx.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, false, err
	}
	owner, ok := decoded.(*tx.OwnerTx)
	if !ok {
		return nil, false, errors.New("chainindex: networkOwner key did not decode to an OwnerTx")
	}
	return owner, true, nil
}

// Status returns the index's recovery status.
func (idx *Index) Status() (IndexStatus, error) {
	b, err := idx.db.Get(indexStatusKey)
	if IsNotFoundError(err) {
		return StatusClean, nil
	}
	if err != nil {
		return StatusClean, err
	}
	if len(b) != 1 {
		return StatusClean, errors.New("chainindex: malformed indexStatus value")
	}
	return IndexStatus(b[0]), nil
}

// Balance returns the indexed balance for h, or asset.Zero if h has never
// been credited.
func (idx *Index) Balance(h crypto.Digest) (asset.Asset, error) {
	if bal, ok := idx.accountCache.Get(h); ok {
		return bal, nil
	}
	b, err := idx.db.Get(accountBucket.Key(h[:]))
	if IsNotFoundError(err) {
		return asset.Zero, nil
	}
	if err != nil {
		return asset.Zero, err
	}
	bal, err := serialize.ReadAsset(bytes.NewReader(b))
	if err != nil {
		return asset.Zero, err
	}
	idx.accountCache.Add(h, bal)
	return bal, nil
}

// AccountByID returns the materialized Account for id, if CreateAccountTx
// has ever indexed one.
func (idx *Index) AccountByID(id tx.AccountId) (tx.Account, bool, error) {
	b, err := idx.db.Get(accountsByIDBucket.Key(encodeAccountID(id)))
	if IsNotFoundError(err) {
		return tx.Account{}, false, nil
	}
	if err != nil {
		return tx.Account{}, false, err
	}
	acc, err := decodeAccount(b)
	if err != nil {
		return tx.Account{}, false, err
	}
	return acc, true, nil
}

// BlockOffset returns the byte offset of the block at height h within the
// block store.
func (idx *Index) BlockOffset(h uint64) (uint64, bool, error) {
	if off, ok := idx.blockByPosCache.Get(h); ok {
		return off, true, nil
	}
	b, err := idx.db.Get(blockByPosKey(h))
	if IsNotFoundError(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	off, err := serialize.ReadUint64(bytes.NewReader(b))
	if err != nil {
		return 0, false, err
	}
	idx.blockByPosCache.Add(h, off)
	return off, true, nil
}

// HasExpired reports whether id has already been recorded in the
// txExpiry column family, i.e. a presence check used for replay
// rejection (spec.md: "has(txid) is a presence check"). It does not
// compare against nowMs -- a txid recorded with RecordTxExpiry stays
// present (and therefore a replay) until PurgeExpired removes it past
// its grace period.
func (idx *Index) HasExpired(id tx.TxId) (bool, error) {
	_, err := idx.db.Get(txExpiryBucket.Key(id[:]))
	if IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired scans the txExpiry column family and deletes every entry
// whose expiry falls more than chainparams.TxExpiryAdjustment behind
// nowMs, per SPEC_FULL.md §5.8's grace-period purge.
func (idx *Index) PurgeExpired(nowMs uint64, gracePeriodMs uint64) error {
	if nowMs < gracePeriodMs {
		return nil
	}
	cutoff := nowMs - gracePeriodMs

	cursor, err := idx.db.Cursor(txExpiryBucket.Path())
	if err != nil {
		return errors.Wrap(err, "chainindex: purge expired: open cursor")
	}
	defer cursor.Close()

	ok, err := cursor.First()
	if err != nil {
		return errors.Wrap(err, "chainindex: purge expired: cursor")
	}

	var staleKeys [][]byte
	for ; ok; ok = cursor.Next() {
		val, err := cursor.Value()
		if err != nil {
			return errors.Wrap(err, "chainindex: purge expired: read value")
		}
		expiry, err := serialize.ReadUint64(bytes.NewReader(val))
		if err != nil {
			return errors.Wrap(err, "chainindex: purge expired: decode expiry")
		}
		if expiry >= cutoff {
			continue
		}
		key, err := cursor.Key()
		if err != nil {
			return errors.Wrap(err, "chainindex: purge expired: read key")
		}
		staleKeys = append(staleKeys, append([]byte(nil), key...))
	}
	if err := cursor.Error(); err != nil {
		return errors.Wrap(err, "chainindex: purge expired: iterate")
	}

	for _, key := range staleKeys {
		// key is the cursor's key with only the bucket path trimmed, so it
		// still starts with the separator; re-prefix the path alone.
		if err := idx.db.Delete(append(txExpiryBucket.Path(), key...)); err != nil {
			return errors.Wrap(err, "chainindex: purge expired: delete")
		}
	}
	return nil
}

func blockByPosKey(h uint64) []byte {
	var buf bytes.Buffer
	serialize.WriteUint64(&buf, h)
	return blockByPosBucket.Key(buf.Bytes())
}

func encodeAccountID(id tx.AccountId) []byte {
	var buf bytes.Buffer
	serialize.WriteUint64(&buf, uint64(id))
	return buf.Bytes()
}

func decodeAccount(b []byte) (tx.Account, error) {
	r := bytes.NewReader(b)
	id, err := serialize.ReadUint64(r)
	if err != nil {
		return tx.Account{}, err
	}
	bal, err := serialize.ReadAsset(r)
	if err != nil {
		return tx.Account{}, err
	}
	sc, err := serialize.ReadBytes(r)
	if err != nil {
		return tx.Account{}, err
	}
	perm, err := serialize.ReadUint8(r)
	if err != nil {
		return tx.Account{}, err
	}
	return tx.Account{Id: tx.AccountId(id), Balance: bal, Script: sc, Permissions: perm}, nil
}

func encodeAccount(acc tx.Account) []byte {
	var buf bytes.Buffer
	serialize.WriteUint64(&buf, uint64(acc.Id))
	serialize.WriteAsset(&buf, acc.Balance)
	serialize.WriteBytes(&buf, acc.Script)
	serialize.WriteUint8(&buf, acc.Permissions)
	return buf.Bytes()
}
