// Package chainindex implements the durable key/value index from spec.md
// §4.2.5/§6: the account, block-offset, and tx-expiry column families, the
// scalar chain-head fields, and the write-batch contract through which
// index state is mutated (Index.PurgeExpired is the one exception: it
// deletes stale txExpiry entries directly).
//
// Shaped after daglabs-btcd's database2/dbaccess bucket idiom: a
// Database/DataAccessor/Cursor/Transaction interface set over a concrete
// goleveldb-backed driver (chainindex/ldb), with bucket-prefixed keys
// instead of a table per column family.
package chainindex

import "github.com/pkg/errors"

// ErrNotFound is returned by DataAccessor.Get when the key is absent.
var ErrNotFound = errors.New("chainindex: key not found")

// IsNotFoundError reports whether err wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// DataAccessor is the common read/write surface shared by a Database
// handle and an open Transaction.
type DataAccessor interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Put(key []byte, value []byte) error
	Delete(key []byte) error
	Cursor(bucketPath []byte) (Cursor, error)
}

// Database begins transactions and cursors over the underlying store.
type Database interface {
	DataAccessor

	Begin() (Transaction, error)
	Close() error
}

// Transaction is a Database handle scoped to a single atomic batch of
// writes. Commit applies every Put/Delete issued against it atomically;
// RollbackUnlessClosed discards them if Commit was never called.
type Transaction interface {
	DataAccessor

	Commit() error
	RollbackUnlessClosed() error
}

// Cursor iterates over the key/value pairs under a bucket.
type Cursor interface {
	Next() bool
	Error() error
	First() (bool, error)
	Seek(key []byte) (bool, error)
	Key() ([]byte, error)
	Value() ([]byte, error)
	Close() error
}
