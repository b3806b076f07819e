// Package replicatedlog implements the Raft-style replicated entry log from
// spec.md §4.1: an in-memory unstable buffer backed by a stable storage
// tier, conflict-resolving commit, stabilization, and leader-election
// freshness comparison.
package replicatedlog

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/grael-network/graeld/logs"
)

var log = logs.RLOG()

// Entry is a single durable log record. Data is opaque to the log.
type Entry struct {
	Index uint64
	Term  uint64
	Data  []byte
}

// CommitErr enumerates the ways try_commit can reject a batch.
type CommitErr uint8

const (
	// CannotRevertStableIndex means the batch's first entry would revise
	// an index already made durable.
	CannotRevertStableIndex CommitErr = iota
	// IndexTooHigh means the batch's first entry leaves a gap before the
	// log's current head.
	IndexTooHigh
)

func (e CommitErr) String() string {
	switch e {
	case CannotRevertStableIndex:
		return "cannot revert stable index"
	case IndexTooHigh:
		return "index too high"
	default:
		return "unknown commit error"
	}
}

func (e CommitErr) Error() string { return e.String() }

// StableStorage is the durable tier entries migrate into on StabilizeTo.
// Per spec.md's resolved open question on log-term durability, an
// implementation must persist the full (index, term, data) triple, not
// just the opaque data payload, so GetEntryByIndex returns a stable
// entry's real term across a restart. ContainsEntry does not consult the
// stored term: it trusts every index at or below the stable boundary.
type StableStorage interface {
	StableIndex() uint64
	// CommitStableEntries appends entries, which are handed in ascending
	// index order.
	CommitStableEntries(entries []Entry) error
	// RetrieveStableEntry returns the full entry at index, or ok == false
	// if it isn't present.
	RetrieveStableEntry(index uint64) (entry Entry, ok bool)
}

// Log is the replicated log core: an unstable buffer in front of a
// StableStorage tier. Not safe for concurrent use — per spec.md's
// scheduling model, the log is single-writer, driven by one consensus
// thread.
type Log struct {
	unstable []Entry
	storage  StableStorage
	lastTerm uint64
}

// New wraps storage in a fresh Log with an empty unstable buffer.
func New(storage StableStorage) *Log {
	return &Log{storage: storage}
}

// LastIndex returns the index of the most recent entry, stable or not.
func (l *Log) LastIndex() uint64 {
	if n := len(l.unstable); n > 0 {
		return l.unstable[n-1].Index
	}
	return l.storage.StableIndex()
}

// LastTerm returns the term of the most recent successful commit.
func (l *Log) LastTerm() uint64 {
	return l.lastTerm
}

// StableIndex returns the highest index made durable.
func (l *Log) StableIndex() uint64 {
	return l.storage.StableIndex()
}

// TryCommit appends entries — assumed ordered by ascending index — to the
// log, resolving any conflict with the existing unstable tail by
// truncating it first. An empty batch is a no-op success.
func (l *Log) TryCommit(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	stableIndex := l.storage.StableIndex()
	first := entries[0].Index
	if first <= stableIndex {
		log.Debugf("try_commit: reject batch starting at %d, stable index is %d", first, stableIndex)
		return CannotRevertStableIndex
	}

	if n := len(l.unstable); n > 0 {
		if first > l.unstable[n-1].Index+1 {
			log.Debugf("try_commit: reject batch starting at %d, unstable tail ends at %d", first, l.unstable[n-1].Index)
			return IndexTooHigh
		}
	} else if first != stableIndex+1 {
		log.Debugf("try_commit: reject batch starting at %d, expected %d", first, stableIndex+1)
		return IndexTooHigh
	}

	if p, ok := l.firstConflict(entries); ok {
		l.unstable = l.unstable[:p]
	}
	l.unstable = append(l.unstable, entries...)
	l.lastTerm = entries[len(entries)-1].Term
	log.Debugf("try_commit: appended %d entries, unstable tail now at %d", len(entries), l.LastIndex())
	return nil
}

// firstConflict finds the first position in l.unstable whose index also
// appears in entries.
func (l *Log) firstConflict(entries []Entry) (int, bool) {
	wanted := make(map[uint64]struct{}, len(entries))
	for _, e := range entries {
		wanted[e.Index] = struct{}{}
	}
	for i, e := range l.unstable {
		if _, ok := wanted[e.Index]; ok {
			return i, true
		}
	}
	return 0, false
}

// StabilizeTo migrates unstable entries up to and including index i into
// stable storage. If i does not match any unstable entry's index and
// exceeds them all, every unstable entry is migrated.
func (l *Log) StabilizeTo(i uint64) error {
	if i <= l.storage.StableIndex() {
		return nil
	}

	cut := len(l.unstable)
	for idx, e := range l.unstable {
		if e.Index == i {
			cut = idx + 1
			break
		}
	}

	toCommit := l.unstable[:cut]
	if len(toCommit) == 0 {
		return nil
	}
	if err := l.storage.CommitStableEntries(toCommit); err != nil {
		return errors.Wrap(err, "replicatedlog: commit stable entries")
	}
	l.unstable = l.unstable[cut:]
	log.Debugf("stabilize_to: committed %d entries up to index %d", len(toCommit), toCommit[len(toCommit)-1].Index)
	return nil
}

// ContainsEntry reports whether the log holds an entry at index with the
// given term. Indices at or below the stable boundary are trusted without
// a term comparison against stable storage's own record, matching the
// historical semantics carried forward in spec.md §4.1.
func (l *Log) ContainsEntry(term, index uint64) bool {
	if index <= l.storage.StableIndex() {
		return true
	}
	for _, e := range l.unstable {
		if e.Index == index {
			return e.Term == term
		}
	}
	return false
}

// IsUpToDate implements the Raft-style freshness check used during leader
// election: a candidate is at least as fresh as this log if its last term
// is strictly greater, or equal with an index at least as high.
func (l *Log) IsUpToDate(theirLastIndex, theirLastTerm uint64) bool {
	lastTerm := l.LastTerm()
	if theirLastTerm > lastTerm {
		return true
	}
	return theirLastTerm == lastTerm && theirLastIndex >= l.LastIndex()
}

// GetEntryByIndex returns the entry at index, from the unstable buffer or
// stable storage. A stable read before the log's resolved term-durability
// fix would fabricate a term; this implementation trusts whatever term
// storage actually persisted (see MemoryStorage).
//
// An index at or below the stable boundary that storage cannot produce is
// an internal invariant violation, not a caller error — it means
// StabilizeTo committed an index storage then lost. That is a bug, and
// the only case in this package where a failure is not a return value.
func (l *Log) GetEntryByIndex(i uint64) (Entry, bool) {
	for _, e := range l.unstable {
		if e.Index == i {
			return e, true
		}
	}
	if i <= l.storage.StableIndex() {
		e, ok := l.storage.RetrieveStableEntry(i)
		if !ok {
			panic(fmt.Sprintf("replicatedlog: index %d claimed stable but absent from storage", i))
		}
		return e, true
	}
	return Entry{}, false
}
