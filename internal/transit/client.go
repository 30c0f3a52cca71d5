package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/antonkvm/transit-display/internal/httpx"
)

// DefaultBaseURL is the public BVG REST endpoint.
const DefaultBaseURL = "https://v6.bvg.transport.rest"

// ErrEmptyDepartures marks a fetch that succeeded at the HTTP level but
// carried no usable departures. A transient empty response must never blank
// out a currently displayed list, so it is surfaced as a fetch failure and
// retried like any other.
var ErrEmptyDepartures = errors.New("empty departures list")

// Client fetches departures from the BVG REST API.
type Client struct {
	baseURL string
	httpCfg httpx.ClientConfig
	circuit *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
}

// NewClient creates a BVG client with the shared resilience defaults.
func NewClient(client *http.Client, baseURL string, log *zap.SugaredLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "bvg",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL: baseURL,
		httpCfg: httpx.ClientConfig{
			Client: client,
			Backoff: httpx.BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
		log:     log,
	}
}

// FetchDepartures fetches the upcoming departures for one station, restricted
// to the station's configured product categories. Cancelled trips are dropped,
// duplicates collapse under the comparison key, and the result is sorted by
// display time. An empty result is an error, never a valid value.
func (c *Client) FetchDepartures(ctx context.Context, station Station) ([]Departure, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("when", "now")
		values.Set("duration", "600")
		values.Set("results", "12")
		values.Set("linesOfStops", "false")
		values.Set("remarks", "true")
		values.Set("language", "de")
		for _, cat := range Categories {
			values.Set(string(cat), strconv.FormatBool(station.wantsProduct(cat)))
		}

		u := fmt.Sprintf("%s/stops/%d/departures?%s", c.baseURL, station.ID, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := httpx.Do(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: departures request failed", station.Name)
	}
	defer resp.Body.Close()

	var payload struct {
		Departures []struct {
			TripID      string `json:"tripId"`
			When        string `json:"when"`
			Delay       *int   `json:"delay"` // seconds, may be null
			Cancelled   bool   `json:"cancelled"`
			Destination struct {
				Name string `json:"name"`
			} `json:"destination"`
			Line struct {
				Name    string `json:"name"`
				Product string `json:"product"`
			} `json:"line"`
		} `json:"departures"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrapf(err, "%s: decoding departures", station.Name)
	}

	departures := make([]Departure, 0, len(payload.Departures))
	seen := make(map[Key]struct{}, len(payload.Departures))

	for _, raw := range payload.Departures {
		if raw.Cancelled {
			continue
		}

		when, err := time.Parse(time.RFC3339, raw.When)
		if err != nil {
			c.log.Warnw("Skipping departure with unparseable time",
				"station", station.Name, "when", raw.When)
			continue
		}

		delaySeconds := 0
		if raw.Delay != nil {
			delaySeconds = *raw.Delay
		}

		d := Departure{
			TripID:       raw.TripID,
			Line:         raw.Line.Name,
			Destination:  decorateDestination(raw.Line.Name, raw.Destination.Name),
			When:         when.Format("15:04"),
			DelayMinutes: delaySeconds / 60,
			Category:     Category(raw.Line.Product),
		}

		if _, dup := seen[d.Key()]; dup {
			continue
		}
		seen[d.Key()] = struct{}{}
		departures = append(departures, d)
	}

	if len(departures) == 0 {
		return nil, errors.Wrapf(ErrEmptyDepartures, "station %s", station.Name)
	}

	// Lexicographic order works for HH:MM strings (departures straddling
	// midnight sort to the front, which the board tolerates).
	sort.Slice(departures, func(i, j int) bool {
		return departures[i].When < departures[j].When
	})

	return departures, nil
}

func (s Station) wantsProduct(cat Category) bool {
	for _, p := range s.Products {
		if p == cat {
			return true
		}
	}
	return false
}
