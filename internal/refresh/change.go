package refresh

import (
	"github.com/antonkvm/transit-display/internal/transit"
	"github.com/antonkvm/transit-display/internal/weather"
)

// DeparturesChanged decides whether a freshly fetched departure list is a
// meaningful update over the previously accepted one. Both sides are treated
// as unordered sets under the per-departure comparison key, so reordering or
// trip-ID churn between polls never counts as a change. An empty fresh list is
// never an update: a transient empty response must not blank the board (the
// fetcher already rejects empty results as errors, so this is a backstop).
func DeparturesChanged(old, fresh []transit.Departure) bool {
	if len(fresh) == 0 {
		return false
	}
	if len(old) == 0 {
		return true
	}

	oldSet := keySet(old)
	freshSet := keySet(fresh)

	if len(oldSet) != len(freshSet) {
		return true
	}
	for k := range freshSet {
		if _, ok := oldSet[k]; !ok {
			return true
		}
	}
	return false
}

func keySet(departures []transit.Departure) map[transit.Key]struct{} {
	set := make(map[transit.Key]struct{}, len(departures))
	for _, d := range departures {
		set[d.Key()] = struct{}{}
	}
	return set
}

// WeatherChanged decides whether a fresh reading is a meaningful update.
// Weather is a composite scalar: any single field difference counts.
func WeatherChanged(old *weather.Reading, fresh weather.Reading) bool {
	if old == nil {
		return true
	}
	return !old.Equal(fresh)
}
