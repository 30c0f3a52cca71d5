package store

import (
	"sync"
	"time"

	"github.com/antonkvm/transit-display/internal/transit"
	"github.com/antonkvm/transit-display/internal/weather"
)

// Cells holds the latest accepted value per source. Each source has its own
// mutex-guarded cell with exactly one writer (that source's producer loop) and
// one reader (the render consumer). A reader can never observe a half-written
// value; cross-source reads are independently locked and not atomic as a group.
type Cells struct {
	departures departureCell
	weather    weatherCell
}

type departureCell struct {
	mu        sync.RWMutex
	value     []transit.Departure
	updatedAt time.Time
}

type weatherCell struct {
	mu        sync.RWMutex
	value     weather.Reading
	updatedAt time.Time
	present   bool
}

// Snapshot is a consistent per-cell copy of every source's latest value,
// taken by the consumer at one instant. Never mutated after creation.
type Snapshot struct {
	TakenAt             time.Time           `json:"takenAt"`
	Departures          []transit.Departure `json:"departures"`
	DeparturesUpdatedAt time.Time           `json:"departuresUpdatedAt"`
	Weather             *weather.Reading    `json:"weather,omitempty"`
	WeatherUpdatedAt    time.Time           `json:"weatherUpdatedAt"`
}

// New creates an empty Cells store.
func New() *Cells {
	return &Cells{}
}

// Departures returns a copy of the latest accepted departure list and when it
// was accepted. The copy keeps the cell's slice unshared with callers.
func (c *Cells) Departures() ([]transit.Departure, time.Time) {
	c.departures.mu.RLock()
	defer c.departures.mu.RUnlock()

	if c.departures.value == nil {
		return nil, c.departures.updatedAt
	}
	cp := make([]transit.Departure, len(c.departures.value))
	copy(cp, c.departures.value)
	return cp, c.departures.updatedAt
}

// SetDepartures atomically replaces the accepted departure list.
func (c *Cells) SetDepartures(departures []transit.Departure, now time.Time) {
	c.departures.mu.Lock()
	defer c.departures.mu.Unlock()

	c.departures.value = departures
	c.departures.updatedAt = now
}

// Weather returns the latest accepted reading, or false if none was accepted yet.
func (c *Cells) Weather() (weather.Reading, time.Time, bool) {
	c.weather.mu.RLock()
	defer c.weather.mu.RUnlock()

	return c.weather.value, c.weather.updatedAt, c.weather.present
}

// SetWeather atomically replaces the accepted weather reading.
func (c *Cells) SetWeather(reading weather.Reading, now time.Time) {
	c.weather.mu.Lock()
	defer c.weather.mu.Unlock()

	c.weather.value = reading
	c.weather.updatedAt = now
	c.weather.present = true
}

// Snapshot assembles the consumer's view of all cells. Each cell is read under
// its own short-lived lock; no lock is held across cells.
func (c *Cells) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{TakenAt: now}

	snap.Departures, snap.DeparturesUpdatedAt = c.Departures()

	if reading, updatedAt, ok := c.Weather(); ok {
		r := reading
		snap.Weather = &r
		snap.WeatherUpdatedAt = updatedAt
	}

	return snap
}
