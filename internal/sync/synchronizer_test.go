package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/larkvale/docdeck/internal/api"
)

func records(indexed ...bool) []api.FileRecord {
	files := make([]api.FileRecord, 0, len(indexed))
	for i, ix := range indexed {
		files = append(files, api.FileRecord{ID: i + 1, Filename: "doc", IsIndexed: ix})
	}
	return files
}

func TestApplyDiscardsStaleResponse(t *testing.T) {
	s := New(3 * time.Second)

	older := s.Begin()
	newer := s.Begin()

	sched, ok := s.Apply(older, records(true, true))
	require.False(t, ok)
	require.True(t, sched.Zero())
	require.Empty(t, s.Files())

	sched, ok = s.Apply(newer, records(true))
	require.True(t, ok)
	require.True(t, sched.Zero())
	require.Len(t, s.Files(), 1)
}

func TestApplyGoesIdleWhenCollectionIndexed(t *testing.T) {
	s := New(3 * time.Second)

	seq := s.Begin()
	sched, ok := s.Apply(seq, records(true, true, true))
	require.True(t, ok)
	require.True(t, sched.Zero())
	require.Equal(t, PollIdle, s.State())
	require.True(t, s.AllIndexed())
	require.Zero(t, s.PendingCount())
}

func TestApplySchedulesWhileAnyRecordPending(t *testing.T) {
	s := New(3 * time.Second)

	seq := s.Begin()
	sched, ok := s.Apply(seq, records(true, false, true))
	require.True(t, ok)
	require.Equal(t, 3*time.Second, sched.After)
	require.Equal(t, PollScheduled, s.State())
	require.Equal(t, 1, s.PendingCount())
	require.True(t, s.TickDue(sched.Gen))
}

func TestAllIndexedOnEmptyCollection(t *testing.T) {
	s := New(3 * time.Second)

	seq := s.Begin()
	sched, ok := s.Apply(seq, nil)
	require.True(t, ok)
	require.True(t, sched.Zero())
	require.Equal(t, PollIdle, s.State())
}

func TestTickFromSupersededGenerationIsStale(t *testing.T) {
	s := New(3 * time.Second)

	seq := s.Begin()
	sched, ok := s.Apply(seq, records(false))
	require.True(t, ok)
	require.True(t, s.TickDue(sched.Gen))

	// A new fetch (e.g. a manual /refresh) invalidates the outstanding
	// timer before it fires.
	s.Begin()
	require.False(t, s.TickDue(sched.Gen))
}

func TestManualRefreshSupersedesScheduledPoll(t *testing.T) {
	s := New(3 * time.Second)

	seq := s.Begin()
	first, ok := s.Apply(seq, records(false))
	require.True(t, ok)

	seq = s.Begin()
	second, ok := s.Apply(seq, records(false))
	require.True(t, ok)

	require.False(t, s.TickDue(first.Gen))
	require.True(t, s.TickDue(second.Gen))
}

func TestFailBacksOffExponentiallyThenGoesIdle(t *testing.T) {
	s := New(3 * time.Second)

	wantDelays := []time.Duration{
		3 * time.Second,
		6 * time.Second,
		12 * time.Second,
		24 * time.Second, // capped
	}
	for _, want := range wantDelays {
		seq := s.Begin()
		sched, ok := s.Fail(seq)
		require.True(t, ok)
		require.Equal(t, want, sched.After)
		require.Equal(t, PollScheduled, s.State())
		require.True(t, s.TickDue(sched.Gen))
	}

	// Retry budget spent: the chain stops until a manual refresh.
	seq := s.Begin()
	sched, ok := s.Fail(seq)
	require.True(t, ok)
	require.True(t, sched.Zero())
	require.Equal(t, PollIdle, s.State())
}

func TestFailDiscardsStaleSequence(t *testing.T) {
	s := New(3 * time.Second)

	older := s.Begin()
	s.Begin()

	sched, ok := s.Fail(older)
	require.False(t, ok)
	require.True(t, sched.Zero())
}

func TestRefreshAfterExhaustionStartsFreshBackoff(t *testing.T) {
	s := New(3 * time.Second)

	for i := 0; i < 5; i++ {
		seq := s.Begin()
		_, ok := s.Fail(seq)
		require.True(t, ok)
	}
	require.Equal(t, PollIdle, s.State())

	// A manual refresh from idle gets the full retry budget again rather
	// than dying on its first failure.
	seq := s.Begin()
	sched, ok := s.Fail(seq)
	require.True(t, ok)
	require.Equal(t, 3*time.Second, sched.After)
	require.Equal(t, PollScheduled, s.State())
}

func TestSuccessResetsRetryBudget(t *testing.T) {
	s := New(3 * time.Second)

	seq := s.Begin()
	_, ok := s.Fail(seq)
	require.True(t, ok)

	seq = s.Begin()
	_, ok = s.Fail(seq)
	require.True(t, ok)

	seq = s.Begin()
	_, ok = s.Apply(seq, records(false))
	require.True(t, ok)

	// Backoff starts over after a successful fetch.
	seq = s.Begin()
	sched, ok := s.Fail(seq)
	require.True(t, ok)
	require.Equal(t, 3*time.Second, sched.After)
}
