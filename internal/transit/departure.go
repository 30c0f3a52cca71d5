package transit

import (
	"fmt"
	"strings"
)

// Category is one of the closed set of BVG service categories.
type Category string

const (
	CategorySuburban Category = "suburban"
	CategorySubway   Category = "subway"
	CategoryTram     Category = "tram"
	CategoryBus      Category = "bus"
	CategoryFerry    Category = "ferry"
	CategoryExpress  Category = "express"
	CategoryRegional Category = "regional"
)

// Categories lists every service category in request-parameter order.
var Categories = []Category{
	CategorySuburban,
	CategorySubway,
	CategoryTram,
	CategoryBus,
	CategoryFerry,
	CategoryExpress,
	CategoryRegional,
}

// Station is one configured stop to poll for departures.
type Station struct {
	Name     string     `json:"name"`
	ID       int        `json:"stationID"`
	Products []Category `json:"fetchProducts"`
}

// Departure is one upcoming departure from a station. Values are immutable
// once built; producers hand fresh slices to the store, never mutate old ones.
type Departure struct {
	TripID       string   `json:"tripId"`
	Line         string   `json:"line"`
	Destination  string   `json:"destination"`
	When         string   `json:"when"` // display time, HH:MM
	DelayMinutes int      `json:"delayMinutes"`
	Category     Category `json:"category"`
}

// Key is the identity used for deduplication and change detection.
// The trip ID is deliberately excluded: BVG may reissue a new tripId for a
// physically identical trip between polls, and that must not count as a change.
type Key struct {
	Line         string
	When         string
	DelayMinutes int
	Category     Category
}

// Key returns the comparison key for this departure.
func (d Departure) Key() Key {
	return Key{
		Line:         d.Line,
		When:         d.When,
		DelayMinutes: d.DelayMinutes,
		Category:     d.Category,
	}
}

// DelayString renders the delay for display: "+2", "-1", or "" when on time.
func (d Departure) DelayString() string {
	switch {
	case d.DelayMinutes > 0:
		return fmt.Sprintf("+%d", d.DelayMinutes)
	case d.DelayMinutes < 0:
		return fmt.Sprintf("%d", d.DelayMinutes)
	default:
		return ""
	}
}

// decorateDestination applies the display tweaks the board expects: ring-line
// direction markers for S41/S42 and the redundant "(Berlin)" suffix stripped.
func decorateDestination(line, destination string) string {
	switch line {
	case "S41":
		destination = "⟳ " + destination
	case "S42":
		destination = "⟲ " + destination
	}
	return strings.TrimSpace(strings.ReplaceAll(destination, "(Berlin)", ""))
}
