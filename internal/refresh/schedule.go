package refresh

import "time"

// Schedule decides how long a producer loop sleeps after a completed
// fetch-and-publish cycle. anchor is the authoritative timestamp carried by
// the fetched value (or the cycle completion time for fixed schedules).
// The second return reports that the fallback interval was used because the
// anchor could not be trusted.
type Schedule interface {
	NextDelay(anchor, now time.Time) (time.Duration, bool)
}

// FixedInterval sleeps a constant duration after each cycle.
type FixedInterval struct {
	Every time.Duration
}

func (p FixedInterval) NextDelay(_, _ time.Time) (time.Duration, bool) {
	return p.Every, false
}

// AnchoredInterval schedules the next fetch relative to the upstream's own
// freshness timestamp: next = anchor + Period + Offset. This keeps polling in
// phase with an upstream that refreshes on its own boundaries; naive fixed
// polling drifts and either wastes calls on stale data or misses fresh data
// by minutes. An anchor in the future, or a computed delay that is zero or
// negative, falls back to the fixed Fallback duration.
type AnchoredInterval struct {
	Period   time.Duration
	Offset   time.Duration
	Fallback time.Duration
}

func (p AnchoredInterval) NextDelay(anchor, now time.Time) (time.Duration, bool) {
	if anchor.After(now) {
		return p.Fallback, true
	}

	delay := anchor.Add(p.Period + p.Offset).Sub(now)
	if delay <= 0 {
		return p.Fallback, true
	}
	return delay, false
}
