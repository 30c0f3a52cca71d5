package weather

import "time"

// Reading is one weather observation plus the day's extremes. The Timestamp is
// attributed by the upstream server and is authoritative for scheduling the
// next fetch; wall-clock time at fetch completion is irrelevant because the
// server refreshes on its own quarter-hour boundaries.
type Reading struct {
	Timestamp           time.Time `json:"timestamp"`
	Temperature         float64   `json:"temperature"`
	UVIndex             float64   `json:"uvIndex"`
	TemperatureDailyMin float64   `json:"temperatureDailyMin"`
	TemperatureDailyMax float64   `json:"temperatureDailyMax"`
	UVIndexDailyMax     float64   `json:"uvIndexDailyMax"`
}

// Equal reports full structural equality. A single field difference counts as
// a meaningful change for the display.
func (r Reading) Equal(other Reading) bool {
	return r.Timestamp.Equal(other.Timestamp) &&
		r.Temperature == other.Temperature &&
		r.UVIndex == other.UVIndex &&
		r.TemperatureDailyMin == other.TemperatureDailyMin &&
		r.TemperatureDailyMax == other.TemperatureDailyMax &&
		r.UVIndexDailyMax == other.UVIndexDailyMax
}
