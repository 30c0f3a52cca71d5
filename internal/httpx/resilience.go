package httpx

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff for a single upstream call.
// These retries are short and bounded; the long-haul "keep trying forever"
// policy lives one layer up, in the retry driver.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ClientConfig bundles the HTTP client and resilience settings shared by
// all outbound feed clients.
type ClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	ErrRateLimited = errors.New("rate limited")
	ErrServerError = errors.New("server error")
	ErrBadStatus   = errors.New("unexpected status code")
	ErrCircuitOpen = errors.New("circuit breaker open")

	errNoClient      = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// Do executes an HTTP request with bounded retries, exponential backoff and a
// circuit breaker. buildRequest is invoked once per attempt so request bodies
// are never reused across attempts.
func Do(
	ctx context.Context,
	cfg ClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				resp.Body.Close()
				return nil, ErrRateLimited
			case resp.StatusCode >= 500:
				resp.Body.Close()
				return nil, ErrServerError
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				resp.Body.Close()
				return nil, errors.Wrapf(ErrBadStatus, "%d", resp.StatusCode)
			}

			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, errors.New("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// An open circuit means the upstream is known-bad; retrying here
		// would only keep it open longer.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Wrap(ErrCircuitOpen, err.Error())
		}

		lastErr = err
		if attempt >= cfg.Backoff.MaxRetries {
			return nil, lastErr
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if cfg.Backoff.MaxInterval > 0 && delay > cfg.Backoff.MaxInterval {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
