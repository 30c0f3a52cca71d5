package transit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cockroachdb/errors"
)

const departuresPayload = `{
  "departures": [
    {
      "tripId": "trip-late",
      "when": "2026-08-25T10:20:00+02:00",
      "delay": 120,
      "destination": {"name": "S Hauptbahnhof (Berlin)"},
      "line": {"name": "M41", "product": "bus"}
    },
    {
      "tripId": "trip-early",
      "when": "2026-08-25T10:05:00+02:00",
      "delay": null,
      "destination": {"name": "Ringbahn"},
      "line": {"name": "S41", "product": "suburban"}
    },
    {
      "tripId": "trip-early-reissued",
      "when": "2026-08-25T10:05:00+02:00",
      "delay": null,
      "destination": {"name": "Ringbahn"},
      "line": {"name": "S41", "product": "suburban"}
    },
    {
      "tripId": "trip-cancelled",
      "when": "2026-08-25T10:10:00+02:00",
      "delay": 0,
      "cancelled": true,
      "destination": {"name": "Nowhere"},
      "line": {"name": "U2", "product": "subway"}
    }
  ]
}`

func testStation() Station {
	return Station{
		Name:     "Zoologischer Garten",
		ID:       900023201,
		Products: []Category{CategoryBus, CategorySuburban},
	}
}

func TestFetchDeparturesMapsAndFilters(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		assert.Equal(t, "/stops/900023201/departures", r.URL.Path)
		fmt.Fprint(w, departuresPayload)
	}))
	defer server.Close()

	c := NewClient(&http.Client{Timeout: time.Second}, server.URL, zap.NewNop().Sugar())
	departures, err := c.FetchDepartures(context.Background(), testStation())
	require.NoError(t, err)

	// Requested products reflect the station config.
	assert.Equal(t, "true", gotQuery["bus"][0])
	assert.Equal(t, "true", gotQuery["suburban"][0])
	assert.Equal(t, "false", gotQuery["subway"][0])

	// Cancelled trip dropped, reissued duplicate collapsed, sorted by time.
	require.Len(t, departures, 2)
	assert.Equal(t, "10:05", departures[0].When)
	assert.Equal(t, "⟳ Ringbahn", departures[0].Destination)
	assert.Equal(t, 0, departures[0].DelayMinutes)

	assert.Equal(t, "10:20", departures[1].When)
	assert.Equal(t, "S Hauptbahnhof", departures[1].Destination)
	assert.Equal(t, 2, departures[1].DelayMinutes)
	assert.Equal(t, CategoryBus, departures[1].Category)
}

func TestFetchDeparturesEmptyIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"departures": []}`)
	}))
	defer server.Close()

	c := NewClient(&http.Client{Timeout: time.Second}, server.URL, zap.NewNop().Sugar())
	_, err := c.FetchDepartures(context.Background(), testStation())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyDepartures))
}

func TestFetchDeparturesAllCancelledIsError(t *testing.T) {
	payload := `{"departures": [{
		"tripId": "t", "when": "2026-08-25T10:10:00+02:00", "cancelled": true,
		"destination": {"name": "X"}, "line": {"name": "U2", "product": "subway"}
	}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	}))
	defer server.Close()

	c := NewClient(&http.Client{Timeout: time.Second}, server.URL, zap.NewNop().Sugar())
	_, err := c.FetchDepartures(context.Background(), testStation())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyDepartures))
}
