package refresh

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/antonkvm/transit-display/internal/retry"
	"github.com/antonkvm/transit-display/internal/store"
	"github.com/antonkvm/transit-display/internal/transit"
	"github.com/antonkvm/transit-display/internal/weather"
)

// SleepFunc suspends for d or until ctx ends, reporting false on cancellation.
// Injectable so producer cycles can be stepped deterministically in tests.
type SleepFunc func(ctx context.Context, d time.Duration) bool

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// TripsProducer runs the departures refresh loop: fetch every configured
// station (each retried until success), publish to the shared cell when the
// merged list meaningfully changed, then sleep out the schedule.
type TripsProducer struct {
	FetchStation func(ctx context.Context, station transit.Station) ([]transit.Departure, error)
	Stations     []transit.Station
	Cells        *store.Cells
	Signal       *Signal
	Schedule     Schedule
	RetryDelay   time.Duration
	Stats        *SourceStats
	Log          *zap.SugaredLogger

	Clock func() time.Time // defaults to time.Now
	Sleep SleepFunc        // defaults to sleepCtx
}

// Run loops until ctx ends. It never terminates on fetch failures; those are
// retried inside the cycle.
func (p *TripsProducer) Run(ctx context.Context) {
	for {
		departures, err := p.fetchAllStations(ctx)
		if err != nil {
			return // ctx ended mid-retry
		}

		now := p.now()
		p.Stats.Success(now)

		old, _ := p.Cells.Departures()
		if DeparturesChanged(old, departures) {
			p.Cells.SetDepartures(departures, now)
			p.Signal.Raise()
			p.Log.Infow("Published departures update", "departures", len(departures))
		}

		delay, _ := p.Schedule.NextDelay(now, now)
		if !p.sleep(ctx, delay) {
			return
		}
	}
}

// fetchAllStations queries every station concurrently, one transient worker
// goroutine per station, joined before returning. Each station is retried
// until success, so the merged result covers every station or the context
// ended.
func (p *TripsProducer) fetchAllStations(ctx context.Context) ([]transit.Departure, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		merged []transit.Departure
	)

	for _, station := range p.Stations {
		station := station
		wg.Add(1)
		go func() {
			defer wg.Done()

			departures, err := retry.UntilSuccess(ctx, p.RetryDelay,
				func() ([]transit.Departure, error) {
					return p.FetchStation(ctx, station)
				},
				func(err error, next time.Duration) {
					p.Stats.Failure()
					p.Log.Warnw("Departures fetch failed, retrying",
						"station", station.Name, "retry_in", next, "error", err)
				})
			if err != nil {
				return
			}

			mu.Lock()
			merged = append(merged, departures...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].When < merged[j].When
	})
	return merged, nil
}

func (p *TripsProducer) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}

func (p *TripsProducer) sleep(ctx context.Context, d time.Duration) bool {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}

// WeatherProducer runs the weather refresh loop. The next fetch is anchored to
// the server-attributed timestamp of the reading just accepted.
type WeatherProducer struct {
	Fetch      func(ctx context.Context) (weather.Reading, error)
	Cells      *store.Cells
	Signal     *Signal
	Schedule   Schedule
	RetryDelay time.Duration
	Stats      *SourceStats
	Log        *zap.SugaredLogger

	Clock func() time.Time
	Sleep SleepFunc
}

// Run loops until ctx ends.
func (p *WeatherProducer) Run(ctx context.Context) {
	for {
		reading, err := retry.UntilSuccess(ctx, p.RetryDelay,
			func() (weather.Reading, error) {
				return p.Fetch(ctx)
			},
			func(err error, next time.Duration) {
				p.Stats.Failure()
				p.Log.Warnw("Weather fetch failed, retrying", "retry_in", next, "error", err)
			})
		if err != nil {
			return
		}

		now := p.now()
		p.Stats.Success(now)

		var old *weather.Reading
		if current, _, ok := p.Cells.Weather(); ok {
			old = &current
		}
		if WeatherChanged(old, reading) {
			p.Cells.SetWeather(reading, now)
			p.Signal.Raise()
			p.Log.Infow("Published weather update", "server_time", reading.Timestamp)
		}

		delay, fellBack := p.Schedule.NextDelay(reading.Timestamp, now)
		if fellBack {
			p.Log.Warnw("Server timestamp cannot anchor the next fetch, using fallback interval",
				"server_time", reading.Timestamp, "fallback", delay)
		} else {
			p.Log.Infow("Scheduled next weather fetch", "sleep", delay)
		}

		if !p.sleep(ctx, delay) {
			return
		}
	}
}

func (p *WeatherProducer) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}

func (p *WeatherProducer) sleep(ctx context.Context, d time.Duration) bool {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}
