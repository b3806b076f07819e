// Package blockstore implements the append-only block log from spec.md
// §4.3/§6: a `u32 length || block_bytes` record stream, guarded by a
// single mutex held for the duration of any insert or read (spec.md §5's
// scheduling model), with crash-recovery truncation at startup.
package blockstore

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/grael-network/graeld/block"
	"github.com/grael-network/graeld/logs"
	"github.com/grael-network/graeld/serialize"
)

var log = logs.BSTR()

// Store is the append-only block log file.
type Store struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens (creating if absent) the block log at path.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "blockstore: open %s", path)
	}
	return &Store{file: f}, nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Insert appends blk's canonical encoding to the log and fsyncs, per
// spec.md §4.3's "fsync ... required for durability on restart". It
// returns the byte offset at which the record begins, for the caller to
// record into the same block's index WriteBatch.
func (s *Store) Insert(blk *block.Block) (offset uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.Wrap(err, "blockstore: seek to end")
	}

	var body bytes.Buffer
	if err := block.Encode(&body, blk); err != nil {
		return 0, errors.Wrap(err, "blockstore: encode block")
	}

	if err := serialize.WriteUint32(s.file, uint32(body.Len())); err != nil {
		return 0, errors.Wrap(err, "blockstore: write record length")
	}
	if _, err := s.file.Write(body.Bytes()); err != nil {
		return 0, errors.Wrap(err, "blockstore: write record body")
	}
	if err := s.file.Sync(); err != nil {
		return 0, errors.Wrap(err, "blockstore: fsync")
	}

	return uint64(pos), nil
}

// InsertGenesis inserts blk (expected to be the height-0 block carrying
// exactly one OwnerTx) via the same path as Insert. The dedicated name
// exists for callers that want to assert at the call site that this is
// the bootstrap block, not because the write path differs.
func (s *Store) InsertGenesis(blk *block.Block) (offset uint64, err error) {
	return s.Insert(blk)
}

// Get reads and decodes the block record starting at offset.
func (s *Store) Get(offset uint64) (*block.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "blockstore: seek to offset")
	}
	length, err := serialize.ReadUint32(s.file)
	if err != nil {
		return nil, errors.Wrap(err, "blockstore: read record length")
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(s.file, body); err != nil {
		return nil, errors.Wrap(err, "blockstore: read record body")
	}
	blk, err := block.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "blockstore: decode block")
	}
	return blk, nil
}

// Recover truncates the log to the record boundary following the block
// at chainHeight, discarding any partial write left by a crash between a
// block append and its index commit (spec.md §5's "on crash between
// block append and index commit"). Call once at startup, before any
// Insert.
func (s *Store) Recover(chainHeight uint64, offsetOfHeight func(uint64) (uint64, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offset, ok, err := offsetOfHeight(chainHeight)
	if err != nil {
		return errors.Wrap(err, "blockstore: recover: look up chain height offset")
	}
	if !ok {
		// Nothing has ever been committed to the index; truncate to empty
		// so a half-written genesis record cannot linger.
		log.Infof("recover: no indexed height, truncating block log to empty")
		return s.file.Truncate(0)
	}

	if _, err := s.file.Seek(int64(offset), io.SeekStart); err != nil {
		return errors.Wrap(err, "blockstore: recover: seek to last known offset")
	}
	length, err := serialize.ReadUint32(s.file)
	if err != nil {
		return errors.Wrap(err, "blockstore: recover: read record length")
	}
	validEnd := offset + 4 + uint64(length)
	log.Infof("recover: chain height %d at offset %d, truncating block log to %d bytes", chainHeight, offset, validEnd)
	return errors.Wrap(s.file.Truncate(int64(validEnd)), "blockstore: recover: truncate")
}
