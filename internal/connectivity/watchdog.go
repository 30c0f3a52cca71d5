// Package connectivity monitors network reachability and drives a bounded
// reconnection procedure. It runs orthogonally to the data feeds: it only
// affects network availability, never the shared state store.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// ErrReconnectExhausted is fatal: indefinite silent reconnection failure would
// leave the display showing stale data with no operator visibility.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// State of the watchdog's two-state machine.
type State string

const (
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// Prober is the external collaborator the watchdog drives.
type Prober interface {
	// Connected reports whether the network is currently reachable.
	Connected() (bool, error)
	// Reconnect attempts to reestablish connectivity once.
	Reconnect() error
}

// Watchdog polls a Prober at a fixed cadence. On a connected -> disconnected
// transition it enters a bounded reconnection procedure with an escalating
// retry delay; exhausting the attempt budget is fatal.
type Watchdog struct {
	Prober   Prober
	Interval time.Duration
	Log      *zap.SugaredLogger

	// Reconnection procedure tuning. Zero values take the defaults below.
	InitialDelay   time.Duration // delay between early attempts
	EscalatedDelay time.Duration // delay once EscalateAfter attempts failed
	EscalateAfter  int
	MaxAttempts    int

	mu    sync.Mutex
	state State
}

const (
	defaultInitialDelay   = 10 * time.Second
	defaultEscalatedDelay = 60 * time.Second
	defaultEscalateAfter  = 10
	defaultMaxAttempts    = 20
)

// Start registers the probe job on s. SingletonMode keeps a long reconnection
// procedure from overlapping with the next probe tick. onFatal receives the
// exhaustion error; the caller decides how to terminate.
func (w *Watchdog) Start(s *gocron.Scheduler, onFatal func(error)) error {
	_, err := s.Every(w.Interval).SingletonMode().Do(func() {
		if err := w.Check(context.Background()); err != nil {
			onFatal(err)
		}
	})
	return err
}

// State returns the current connectivity state.
func (w *Watchdog) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == "" {
		return StateConnected
	}
	return w.state
}

func (w *Watchdog) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Check runs one probe cycle: probe, and on lost connectivity run the bounded
// reconnection procedure. The returned error is nil unless reconnection was
// exhausted, which is fatal.
func (w *Watchdog) Check(ctx context.Context) error {
	connected, err := w.Prober.Connected()
	if err != nil {
		// A failing probe command is treated as lost connectivity: we cannot
		// tell the difference from here, and reconnecting is the only lever.
		w.Log.Errorw("Connectivity probe failed", "error", err)
		connected = false
	}
	if connected {
		w.setState(StateConnected)
		return nil
	}

	w.setState(StateDisconnected)
	w.Log.Errorw("Connectivity lost, attempting to reconnect")

	if err := w.reconnect(ctx); err != nil {
		return err
	}

	w.setState(StateConnected)
	w.Log.Infow("Connectivity reestablished")
	return nil
}

func (w *Watchdog) reconnect(ctx context.Context) error {
	initial, escalated := w.InitialDelay, w.EscalatedDelay
	escalateAfter, maxAttempts := w.EscalateAfter, w.MaxAttempts
	if initial <= 0 {
		initial = defaultInitialDelay
	}
	if escalated <= 0 {
		escalated = defaultEscalatedDelay
	}
	if escalateAfter <= 0 {
		escalateAfter = defaultEscalateAfter
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	attempts := 0
	op := func() (struct{}, error) {
		attempts++

		if err := w.Prober.Reconnect(); err != nil {
			return struct{}{}, errors.Wrap(err, "reconnect command failed")
		}
		ok, err := w.Prober.Connected()
		if err != nil {
			return struct{}{}, errors.Wrap(err, "probe after reconnect failed")
		}
		if !ok {
			return struct{}{}, errors.New("still disconnected after reconnect")
		}
		return struct{}{}, nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(
			&escalatingBackOff{initial: initial, escalated: escalated, escalateAfter: escalateAfter},
			uint64(maxAttempts),
		),
		ctx,
	)

	_, err := backoff.RetryNotifyWithData(op, b, func(err error, next time.Duration) {
		w.Log.Warnw("Reconnect attempt failed",
			"attempt", attempts, "retry_in", next, "error", err)
	})
	if err != nil {
		return errors.Wrapf(ErrReconnectExhausted, "giving up after %d attempts: %s", attempts, err)
	}
	return nil
}

// escalatingBackOff returns a fixed delay for the first escalateAfter
// attempts and a longer one thereafter.
type escalatingBackOff struct {
	attempts      int
	initial       time.Duration
	escalated     time.Duration
	escalateAfter int
}

func (b *escalatingBackOff) NextBackOff() time.Duration {
	b.attempts++
	if b.attempts > b.escalateAfter {
		return b.escalated
	}
	return b.initial
}

func (b *escalatingBackOff) Reset() {
	b.attempts = 0
}
