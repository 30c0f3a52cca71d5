package refresh

import (
	"sync"
	"time"
)

// SourceStats counts fetch outcomes for one source, for the status API.
type SourceStats struct {
	mu          sync.Mutex
	successes   uint64
	failures    uint64
	lastSuccess time.Time
}

// SourceStatsView is an immutable copy of a source's counters.
type SourceStatsView struct {
	Successes   uint64    `json:"successes"`
	Failures    uint64    `json:"failures"`
	LastSuccess time.Time `json:"lastSuccess"`
}

func (s *SourceStats) Success(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes++
	s.lastSuccess = at
}

func (s *SourceStats) Failure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
}

func (s *SourceStats) View() SourceStatsView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SourceStatsView{
		Successes:   s.successes,
		Failures:    s.failures,
		LastSuccess: s.lastSuccess,
	}
}

// Stats aggregates per-source fetch statistics.
type Stats struct {
	Trips   SourceStats
	Weather SourceStats
}
