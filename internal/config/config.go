package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// AppConfig carries every tunable of the refresh pipeline. Values come from
// the environment with defaults matching the deployed display; a malformed
// value falls back to its default with a warning rather than failing startup.
type AppConfig struct {
	// Trips source.
	TripsInterval   time.Duration
	TripsRetryDelay time.Duration
	BVGBaseURL      string
	StationsFile    string

	// Weather source.
	WeatherRetryDelay time.Duration
	WeatherPeriod     time.Duration
	WeatherOffset     time.Duration
	WeatherFallback   time.Duration
	WeatherBaseURL    string
	Latitude          float64
	Longitude         float64
	Timezone          string

	// Consumer.
	RenderMaxWait time.Duration

	// Connectivity watchdog.
	ProbeInterval  time.Duration
	WifiConnection string // empty = auto-detect

	// Surfaces.
	Port        string
	HTTPTimeout time.Duration
}

// Load reads configuration from the environment with deployment defaults.
func Load(log *zap.SugaredLogger) *AppConfig {
	return &AppConfig{
		TripsInterval:   getenvDuration(log, "TRIPS_FETCH_INTERVAL", 15*time.Second),
		TripsRetryDelay: getenvDuration(log, "TRIPS_RETRY_DELAY", 5*time.Second),
		BVGBaseURL:      os.Getenv("BVG_BASE_URL"),
		StationsFile:    getenvDefault("STATIONS_FILE", "stations.yaml"),

		WeatherRetryDelay: getenvDuration(log, "WEATHER_RETRY_DELAY", 15*time.Second),
		WeatherPeriod:     getenvDuration(log, "WEATHER_REFRESH_PERIOD", 15*time.Minute),
		WeatherOffset:     getenvDuration(log, "WEATHER_SAFETY_OFFSET", 1*time.Minute),
		WeatherFallback:   getenvDuration(log, "WEATHER_FALLBACK_INTERVAL", 15*time.Minute),
		WeatherBaseURL:    os.Getenv("WEATHER_BASE_URL"),
		Latitude:          getenvFloat(log, "LATITUDE", 52.5136),
		Longitude:         getenvFloat(log, "LONGITUDE", 13.3265),
		Timezone:          getenvDefault("TIMEZONE", "Europe/Berlin"),

		RenderMaxWait: getenvDuration(log, "RENDER_MAX_WAIT", 15*time.Second),

		ProbeInterval:  getenvDuration(log, "PROBE_INTERVAL", 30*time.Second),
		WifiConnection: os.Getenv("WIFI_CONNECTION"),

		Port:        getenvDefault("PORT", "8080"),
		HTTPTimeout: getenvDuration(log, "HTTP_TIMEOUT", 10*time.Second),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(log *zap.SugaredLogger, key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warnw("Malformed duration override, using default",
			"key", key, "value", v, "default", def)
		return def
	}
	return d
}

func getenvFloat(log *zap.SugaredLogger, key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warnw("Malformed numeric override, using default",
			"key", key, "value", v, "default", def)
		return def
	}
	return f
}
