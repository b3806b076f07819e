package replicatedlog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grael-network/graeld/replicatedlog"
)

func entries(startIndex, endIndex uint64, term uint64, data byte) []replicatedlog.Entry {
	out := make([]replicatedlog.Entry, 0, endIndex-startIndex+1)
	for i := startIndex; i <= endIndex; i++ {
		out = append(out, replicatedlog.Entry{Index: i, Term: term, Data: []byte{data}})
	}
	return out
}

// Seed scenario 1: empty-log append.
func TestTryCommitEmptyLogAppend(t *testing.T) {
	storage := replicatedlog.NewMemoryStorageAt(100)
	log := replicatedlog.New(storage)

	require.NoError(t, log.TryCommit(entries(101, 125, 1, 1)))
	require.Equal(t, uint64(125), log.LastIndex())
}

// Seed scenario 2: gap rejection.
func TestTryCommitRejectsGap(t *testing.T) {
	storage := replicatedlog.NewMemoryStorageAt(100)
	log := replicatedlog.New(storage)

	err := log.TryCommit(entries(102, 110, 1, 1))
	require.ErrorIs(t, err, replicatedlog.IndexTooHigh)
}

func TestTryCommitRejectsStableRevert(t *testing.T) {
	storage := replicatedlog.NewMemoryStorageAt(100)
	log := replicatedlog.New(storage)

	err := log.TryCommit(entries(50, 60, 1, 1))
	require.ErrorIs(t, err, replicatedlog.CannotRevertStableIndex)
}

// Seed scenario 3: conflict truncation.
func TestTryCommitConflictTruncation(t *testing.T) {
	log := replicatedlog.New(replicatedlog.NewMemoryStorage())

	require.NoError(t, log.TryCommit(entries(1, 25, 1, 1)))
	require.NoError(t, log.TryCommit(entries(20, 44, 2, 2)))

	require.Equal(t, uint64(44), log.LastIndex())

	for i := uint64(1); i <= 19; i++ {
		e, ok := log.GetEntryByIndex(i)
		require.True(t, ok)
		require.Equal(t, byte(1), e.Data[0])
	}
	for i := uint64(20); i <= 44; i++ {
		e, ok := log.GetEntryByIndex(i)
		require.True(t, ok)
		require.Equal(t, byte(2), e.Data[0])
	}
}

// Seed scenario 4: stabilize below head.
func TestStabilizeToBelowHead(t *testing.T) {
	log := replicatedlog.New(replicatedlog.NewMemoryStorage())
	require.NoError(t, log.TryCommit(entries(1, 25, 1, 1)))

	require.NoError(t, log.StabilizeTo(20))
	require.Equal(t, uint64(20), log.StableIndex())
	require.Equal(t, uint64(25), log.LastIndex())
}

func TestStabilizeToNoOpBelowCurrentStable(t *testing.T) {
	log := replicatedlog.New(replicatedlog.NewMemoryStorage())
	require.NoError(t, log.TryCommit(entries(1, 25, 1, 1)))
	require.NoError(t, log.StabilizeTo(20))
	require.NoError(t, log.StabilizeTo(10))
	require.Equal(t, uint64(20), log.StableIndex())
}

func TestStabilizeToBeyondUnstableMovesAll(t *testing.T) {
	log := replicatedlog.New(replicatedlog.NewMemoryStorage())
	require.NoError(t, log.TryCommit(entries(1, 25, 1, 1)))
	require.NoError(t, log.StabilizeTo(1000))
	require.Equal(t, uint64(25), log.StableIndex())
}

func TestTryCommitEmptyBatchIsNoOp(t *testing.T) {
	log := replicatedlog.New(replicatedlog.NewMemoryStorageAt(5))
	require.NoError(t, log.TryCommit(nil))
	require.Equal(t, uint64(5), log.LastIndex())
}

func TestContainsEntry(t *testing.T) {
	log := replicatedlog.New(replicatedlog.NewMemoryStorage())
	require.NoError(t, log.TryCommit(entries(1, 10, 3, 1)))
	require.NoError(t, log.StabilizeTo(5))

	require.True(t, log.ContainsEntry(999, 3)) // stable: term untrusted, always true
	require.True(t, log.ContainsEntry(3, 8))
	require.False(t, log.ContainsEntry(4, 8))
	require.False(t, log.ContainsEntry(3, 11))
}

func TestIsUpToDate(t *testing.T) {
	log := replicatedlog.New(replicatedlog.NewMemoryStorage())
	require.NoError(t, log.TryCommit(entries(1, 10, 3, 1)))

	require.True(t, log.IsUpToDate(10, 3))
	require.True(t, log.IsUpToDate(20, 3))
	require.False(t, log.IsUpToDate(5, 3))
	require.True(t, log.IsUpToDate(0, 4))
	require.False(t, log.IsUpToDate(100, 2))
}

func TestGetEntryByIndexUnknown(t *testing.T) {
	log := replicatedlog.New(replicatedlog.NewMemoryStorage())
	_, ok := log.GetEntryByIndex(1)
	require.False(t, ok)
}

func TestGetEntryByIndexPreservesTermAfterStabilize(t *testing.T) {
	log := replicatedlog.New(replicatedlog.NewMemoryStorage())
	require.NoError(t, log.TryCommit(entries(1, 5, 7, 9)))
	require.NoError(t, log.StabilizeTo(5))

	e, ok := log.GetEntryByIndex(3)
	require.True(t, ok)
	require.Equal(t, uint64(7), e.Term, "stable reads must not fabricate the term")
}
