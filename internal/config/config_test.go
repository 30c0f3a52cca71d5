package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := Load(zap.NewNop().Sugar())
	assert.Equal(t, "stations.yaml", cfg.StationsFile)
	assert.Positive(t, cfg.TripsInterval)
	assert.Positive(t, cfg.WeatherPeriod)
	assert.Positive(t, cfg.RenderMaxWait)
}

func TestLoadWarnsOnMalformedOverride(t *testing.T) {
	t.Setenv("TRIPS_FETCH_INTERVAL", "fifteen")
	t.Setenv("LATITUDE", "north")

	core, logs := observer.New(zapcore.WarnLevel)
	cfg := Load(zap.New(core).Sugar())

	// Malformed overrides fall back to their defaults.
	assert.Equal(t, 15*time.Second, cfg.TripsInterval)
	assert.Equal(t, 52.5136, cfg.Latitude)

	// And each fallback is logged so a typo'd override is visible.
	require.Equal(t, 2, logs.Len())
	keys := make(map[string]bool)
	for _, entry := range logs.All() {
		keys[entry.ContextMap()["key"].(string)] = true
	}
	assert.True(t, keys["TRIPS_FETCH_INTERVAL"])
	assert.True(t, keys["LATITUDE"])
}

func TestLoadValidOverride(t *testing.T) {
	t.Setenv("TRIPS_FETCH_INTERVAL", "30s")

	core, logs := observer.New(zapcore.WarnLevel)
	cfg := Load(zap.New(core).Sugar())

	assert.Equal(t, 30*time.Second, cfg.TripsInterval)
	assert.Zero(t, logs.Len())
}
