package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/antonkvm/transit-display/internal/httpx"
)

// DefaultBaseURL is the Open-Meteo forecast endpoint (no API key required).
const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// Open-Meteo returns local times without a zone designator when the timezone
// request parameter is set.
const serverTimeLayout = "2006-01-02T15:04"

var errIncompleteDaily = errors.New("daily aggregates missing from response")

// Client fetches current conditions and daily extremes from Open-Meteo.
type Client struct {
	baseURL  string
	lat, lon float64
	loc      *time.Location
	httpCfg  httpx.ClientConfig
	circuit  *gobreaker.CircuitBreaker
	log      *zap.SugaredLogger
}

// NewClient creates an Open-Meteo client for one fixed coordinate pair.
func NewClient(client *http.Client, baseURL string, lat, lon float64, loc *time.Location, log *zap.SugaredLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL: baseURL,
		lat:     lat,
		lon:     lon,
		loc:     loc,
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

// Fetch retrieves the current reading. The returned Reading carries the
// server's own attributed timestamp.
func (c *Client) Fetch(ctx context.Context) (Reading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", c.lat))
		values.Set("longitude", fmt.Sprintf("%f", c.lon))
		values.Set("timezone", c.loc.String())
		values.Set("current", "temperature_2m,uv_index")
		values.Set("daily", "temperature_2m_min,temperature_2m_max,uv_index_max")
		values.Set("forecast_days", "1")

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := httpx.Do(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return Reading{}, errors.Wrap(err, "weather request failed")
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Time        string  `json:"time"`
			Temperature float64 `json:"temperature_2m"`
			UVIndex     float64 `json:"uv_index"`
		} `json:"current"`
		Daily struct {
			TemperatureMin []float64 `json:"temperature_2m_min"`
			TemperatureMax []float64 `json:"temperature_2m_max"`
			UVIndexMax     []float64 `json:"uv_index_max"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Reading{}, errors.Wrap(err, "decoding weather response")
	}

	ts, err := time.ParseInLocation(serverTimeLayout, payload.Current.Time, c.loc)
	if err != nil {
		return Reading{}, errors.Wrapf(err, "parsing server timestamp %q", payload.Current.Time)
	}

	if len(payload.Daily.TemperatureMin) == 0 ||
		len(payload.Daily.TemperatureMax) == 0 ||
		len(payload.Daily.UVIndexMax) == 0 {
		return Reading{}, errIncompleteDaily
	}

	c.log.Debugw("Fetched weather reading", "server_time", payload.Current.Time)

	return Reading{
		Timestamp:           ts,
		Temperature:         round1(payload.Current.Temperature),
		UVIndex:             round1(payload.Current.UVIndex),
		TemperatureDailyMin: round1(payload.Daily.TemperatureMin[0]),
		TemperatureDailyMax: round1(payload.Daily.TemperatureMax[0]),
		UVIndexDailyMax:     round1(payload.Daily.UVIndexMax[0]),
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
