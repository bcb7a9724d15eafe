// Package sync keeps the client's file collection eventually consistent
// with the backend without a push channel. Fetches carry monotonic sequence
// numbers so a slow response can never overwrite a newer one, and the poll
// timer is single-flight: scheduling a new poll always supersedes the old
// one, so at most one timer is outstanding system-wide.
package sync

import (
	"time"

	"github.com/larkvale/docdeck/internal/api"
)

// PollState tracks the single cancellable unit in the client.
type PollState int

const (
	PollIdle PollState = iota
	PollScheduled
	PollRunning
)

func (s PollState) String() string {
	switch s {
	case PollScheduled:
		return "scheduled"
	case PollRunning:
		return "running"
	default:
		return "idle"
	}
}

// Schedule asks the event loop to deliver a poll tick. A zero Schedule
// means no follow-up. Gen identifies the schedule generation; ticks from a
// superseded generation must be dropped.
type Schedule struct {
	After time.Duration
	Gen   uint64
}

// Zero reports whether no follow-up was requested.
func (s Schedule) Zero() bool { return s.After == 0 }

const (
	defaultMaxRetries = 4
	backoffCap        = 24 * time.Second
)

// Synchronizer drives fetchFiles polling until every record in the
// collection reaches a terminal indexing status. The termination predicate
// is collection-wide: one slow file keeps the whole collection polling.
type Synchronizer struct {
	interval   time.Duration
	maxRetries int

	seq     uint64 // latest issued fetch
	applied uint64 // latest applied fetch
	gen     uint64 // current schedule generation
	state   PollState
	retries int

	files []api.FileRecord
}

// New creates a Synchronizer with the given poll interval.
func New(interval time.Duration) *Synchronizer {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Synchronizer{interval: interval, maxRetries: defaultMaxRetries}
}

// Begin marks a fetch as issued and returns its sequence number. Any
// scheduled poll is cancelled first: its generation is invalidated before
// the new fetch decides whether to schedule again. A fetch issued from
// idle starts a fresh retry budget; one issued mid-chain keeps it.
func (s *Synchronizer) Begin() uint64 {
	s.gen++
	if s.state == PollIdle {
		s.retries = 0
	}
	s.state = PollRunning
	s.seq++
	return s.seq
}

// Apply replaces the collection wholesale with the result of fetch seq.
// Stale responses (a newer fetch was issued since) are discarded and the
// second return is false. On the latest response, a follow-up poll is
// scheduled exactly when some record is still unindexed.
func (s *Synchronizer) Apply(seq uint64, files []api.FileRecord) (Schedule, bool) {
	if seq != s.seq {
		return Schedule{}, false
	}
	s.files = files
	s.applied = seq
	s.retries = 0

	if s.AllIndexed() {
		s.state = PollIdle
		return Schedule{}, true
	}
	return s.schedule(s.interval), true
}

// Fail records a failed fetch. Instead of the silent stop a naive client
// would exhibit, the chain is rescheduled with bounded exponential backoff;
// once the retry budget is spent the synchronizer goes idle and waits for a
// manual refresh.
func (s *Synchronizer) Fail(seq uint64) (Schedule, bool) {
	if seq != s.seq {
		return Schedule{}, false
	}
	s.retries++
	if s.retries > s.maxRetries {
		s.state = PollIdle
		return Schedule{}, true
	}
	delay := s.interval << (s.retries - 1)
	if delay > backoffCap {
		delay = backoffCap
	}
	return s.schedule(delay), true
}

func (s *Synchronizer) schedule(after time.Duration) Schedule {
	s.gen++
	s.state = PollScheduled
	return Schedule{After: after, Gen: s.gen}
}

// TickDue reports whether a delivered tick still corresponds to the live
// schedule. Ticks from superseded generations are stale and must be
// ignored.
func (s *Synchronizer) TickDue(gen uint64) bool {
	return s.state == PollScheduled && gen == s.gen
}

// Files returns the last applied collection.
func (s *Synchronizer) Files() []api.FileRecord {
	return s.files
}

// AllIndexed reports the polling termination predicate over the entire
// collection.
func (s *Synchronizer) AllIndexed() bool {
	for _, f := range s.files {
		if !f.IsIndexed {
			return false
		}
	}
	return true
}

// PendingCount returns how many records are still awaiting indexing.
func (s *Synchronizer) PendingCount() int {
	n := 0
	for _, f := range s.files {
		if !f.IsIndexed {
			n++
		}
	}
	return n
}

// State exposes the poll state for status rendering and tests.
func (s *Synchronizer) State() PollState { return s.state }
