package refresh

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/antonkvm/transit-display/internal/store"
	"github.com/antonkvm/transit-display/internal/transit"
	"github.com/antonkvm/transit-display/internal/weather"
)

// cycleState captures what a producer cycle left behind: the accepted cell
// content, its acceptance time, and whether this cycle raised the signal.
type cycleState struct {
	departures []transit.Departure
	updatedAt  time.Time
	raised     bool
}

func TestTripsProducerThreeCycleScenario(t *testing.T) {
	cells := store.New()
	sig := NewSignal()
	stats := &Stats{}

	cycles := [][]transit.Departure{
		{dep("trip-1", "M41", "10:00", 0)}, // first cycle publishes
		{dep("trip-2", "M41", "10:00", 0)}, // same trip, reissued ID: no update
		{dep("trip-3", "M41", "10:00", 2)}, // delay changed: update
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		fetches int
		states  []cycleState
	)

	p := &TripsProducer{
		FetchStation: func(_ context.Context, _ transit.Station) ([]transit.Departure, error) {
			mu.Lock()
			defer mu.Unlock()
			script := cycles[fetches]
			fetches++
			return script, nil
		},
		Stations:   []transit.Station{{Name: "Zoologischer Garten", ID: 900023201}},
		Cells:      cells,
		Signal:     sig,
		Schedule:   FixedInterval{Every: time.Millisecond},
		RetryDelay: time.Millisecond,
		Stats:      &stats.Trips,
		Log:        zap.NewNop().Sugar(),
		Sleep: func(_ context.Context, _ time.Duration) bool {
			departures, updatedAt := cells.Departures()
			states = append(states, cycleState{departures, updatedAt, sig.Drain()})
			if len(states) == len(cycles) {
				cancel()
				return false
			}
			return true
		},
	}
	p.Run(ctx)

	require.Len(t, states, 3)

	// Cycle 1: published and raised, snapshot is exactly the fetched record.
	require.True(t, states[0].raised)
	require.Len(t, states[0].departures, 1)
	require.Equal(t, "trip-1", states[0].departures[0].TripID)
	require.Equal(t, 0, states[0].departures[0].DelayMinutes)

	// Cycle 2: trip ID churn only, no re-publish and no wake-up.
	require.False(t, states[1].raised)
	require.Equal(t, states[0].updatedAt, states[1].updatedAt)
	require.Equal(t, "trip-1", states[1].departures[0].TripID)

	// Cycle 3: delay change is a meaningful update.
	require.True(t, states[2].raised)
	require.Equal(t, "trip-3", states[2].departures[0].TripID)
	require.Equal(t, 2, states[2].departures[0].DelayMinutes)
	require.True(t, states[2].updatedAt.After(states[1].updatedAt))

	view := stats.Trips.View()
	require.Equal(t, uint64(3), view.Successes)
}

func TestTripsProducerMergesStationsSorted(t *testing.T) {
	cells := store.New()
	sig := NewSignal()
	stats := &Stats{}

	byStation := map[int][]transit.Departure{
		1: {dep("a", "M41", "10:20", 0)},
		2: {dep("b", "U2", "10:05", 0)},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &TripsProducer{
		FetchStation: func(_ context.Context, st transit.Station) ([]transit.Departure, error) {
			return byStation[st.ID], nil
		},
		Stations:   []transit.Station{{Name: "A", ID: 1}, {Name: "B", ID: 2}},
		Cells:      cells,
		Signal:     sig,
		Schedule:   FixedInterval{Every: time.Millisecond},
		RetryDelay: time.Millisecond,
		Stats:      &stats.Trips,
		Log:        zap.NewNop().Sugar(),
		Sleep: func(_ context.Context, _ time.Duration) bool {
			cancel()
			return false
		},
	}
	p.Run(ctx)

	departures, _ := cells.Departures()
	require.Len(t, departures, 2)
	require.Equal(t, "10:05", departures[0].When)
	require.Equal(t, "10:20", departures[1].When)
}

func TestWeatherProducerAnchoredScheduling(t *testing.T) {
	cells := store.New()
	sig := NewSignal()
	stats := &Stats{}

	now := time.Now()
	readings := []weather.Reading{
		{Timestamp: now.Add(-time.Minute), Temperature: 20.0},      // fresh anchor
		{Timestamp: now.Add(-30 * time.Minute), Temperature: 21.0}, // stale anchor
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		fetches int
		delays  []time.Duration
	)

	fallback := 42 * time.Minute
	p := &WeatherProducer{
		Fetch: func(_ context.Context) (weather.Reading, error) {
			r := readings[fetches]
			fetches++
			return r, nil
		},
		Cells:  cells,
		Signal: sig,
		Schedule: AnchoredInterval{
			Period:   15 * time.Minute,
			Offset:   1 * time.Minute,
			Fallback: fallback,
		},
		RetryDelay: time.Millisecond,
		Stats:      &stats.Weather,
		Log:        zap.NewNop().Sugar(),
		Sleep: func(_ context.Context, d time.Duration) bool {
			delays = append(delays, d)
			if len(delays) == len(readings) {
				cancel()
				return false
			}
			return true
		},
	}
	p.Run(ctx)

	require.Len(t, delays, 2)

	// Fresh anchor: sleep until anchor + period + offset, about 15 minutes out.
	require.Greater(t, delays[0], 14*time.Minute)
	require.LessOrEqual(t, delays[0], 16*time.Minute)

	// Stale anchor: the fixed fallback, never a zero or negative sleep.
	require.Equal(t, fallback, delays[1])

	// Both readings differed, so both were published.
	reading, _, ok := cells.Weather()
	require.True(t, ok)
	require.Equal(t, 21.0, reading.Temperature)
	require.True(t, sig.Drain())
}
