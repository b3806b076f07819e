// Package ldb is the goleveldb-backed chainindex.Database driver.
//
// Grounded on daglabs-btcd's database/ffldb/ldb (LevelDBCursor wraps a
// native goleveldb iterator scoped to a key prefix; batched writes commit
// through a single leveldb.Batch).
package ldb

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/grael-network/graeld/chainindex"
)

// DB is a chainindex.Database backed by a goleveldb store on disk.
type DB struct {
	ldb *leveldb.DB
}

// Open opens (creating if absent) a goleveldb store at path.
func Open(path string) (*DB, error) {
	ldb, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "ldb: open %s", path)
	}
	return &DB{ldb: ldb}, nil
}

// Get implements chainindex.DataAccessor.
func (db *DB) Get(key []byte) ([]byte, error) {
	v, err := db.ldb.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, chainindex.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "ldb: get")
	}
	return v, nil
}

// Has implements chainindex.DataAccessor.
func (db *DB) Has(key []byte) (bool, error) {
	ok, err := db.ldb.Has(key, nil)
	if err != nil {
		return false, errors.Wrap(err, "ldb: has")
	}
	return ok, nil
}

// Put implements chainindex.DataAccessor.
func (db *DB) Put(key, value []byte) error {
	return errors.Wrap(db.ldb.Put(key, value, nil), "ldb: put")
}

// Delete implements chainindex.DataAccessor.
func (db *DB) Delete(key []byte) error {
	return errors.Wrap(db.ldb.Delete(key, nil), "ldb: delete")
}

// Cursor implements chainindex.DataAccessor.
func (db *DB) Cursor(bucketPath []byte) (chainindex.Cursor, error) {
	it := db.ldb.NewIterator(util.BytesPrefix(bucketPath), nil)
	return &cursor{iter: it, prefix: bucketPath}, nil
}

// Begin implements chainindex.Database.
func (db *DB) Begin() (chainindex.Transaction, error) {
	tx, err := db.ldb.OpenTransaction()
	if err != nil {
		return nil, errors.Wrap(err, "ldb: begin transaction")
	}
	return &transaction{tx: tx}, nil
}

// Close implements chainindex.Database.
func (db *DB) Close() error {
	return errors.Wrap(db.ldb.Close(), "ldb: close")
}

type transaction struct {
	tx     *leveldb.Transaction
	closed bool
}

func (t *transaction) Get(key []byte) ([]byte, error) {
	v, err := t.tx.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, chainindex.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "ldb: tx get")
	}
	return v, nil
}

func (t *transaction) Has(key []byte) (bool, error) {
	ok, err := t.tx.Has(key, nil)
	if err != nil {
		return false, errors.Wrap(err, "ldb: tx has")
	}
	return ok, nil
}

func (t *transaction) Put(key, value []byte) error {
	return errors.Wrap(t.tx.Put(key, value, nil), "ldb: tx put")
}

func (t *transaction) Delete(key []byte) error {
	return errors.Wrap(t.tx.Delete(key, nil), "ldb: tx delete")
}

func (t *transaction) Cursor(bucketPath []byte) (chainindex.Cursor, error) {
	it := t.tx.NewIterator(util.BytesPrefix(bucketPath), nil)
	return &cursor{iter: it, prefix: bucketPath}, nil
}

func (t *transaction) Commit() error {
	if t.closed {
		return errors.New("ldb: transaction already closed")
	}
	t.closed = true
	return errors.Wrap(t.tx.Commit(), "ldb: commit")
}

func (t *transaction) RollbackUnlessClosed() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.tx.Discard()
	return nil
}

type cursor struct {
	iter   iterator.Iterator
	prefix []byte
	closed bool
}

func (c *cursor) Next() bool {
	if c.closed {
		return false
	}
	return c.iter.Next()
}

func (c *cursor) Error() error {
	return c.iter.Error()
}

func (c *cursor) First() (bool, error) {
	if c.closed {
		return false, errors.New("ldb: cursor closed")
	}
	return c.iter.First(), nil
}

func (c *cursor) Seek(key []byte) (bool, error) {
	if c.closed {
		return false, errors.New("ldb: cursor closed")
	}
	if !c.iter.Seek(key) {
		return false, nil
	}
	return bytes.Equal(c.iter.Key(), key), nil
}

func (c *cursor) Key() ([]byte, error) {
	if c.closed {
		return nil, errors.New("ldb: cursor closed")
	}
	full := c.iter.Key()
	if full == nil {
		return nil, chainindex.ErrNotFound
	}
	return bytes.TrimPrefix(full, c.prefix), nil
}

func (c *cursor) Value() ([]byte, error) {
	if c.closed {
		return nil, errors.New("ldb: cursor closed")
	}
	v := c.iter.Value()
	if v == nil {
		return nil, chainindex.ErrNotFound
	}
	return v, nil
}

func (c *cursor) Close() error {
	if c.closed {
		return errors.New("ldb: cursor already closed")
	}
	c.closed = true
	c.iter.Release()
	return nil
}
