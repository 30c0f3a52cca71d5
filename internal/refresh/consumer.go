package refresh

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/antonkvm/transit-display/internal/store"
)

// Renderer is the external collaborator consuming snapshots. A render error is
// unrecoverable and terminates the consumer.
type Renderer interface {
	Render(snapshot store.Snapshot) error
}

// Consumer is the single downstream sink: it wakes on the update signal (or
// after MaxWait, so the on-screen clock advances even with zero feed
// activity), drains the signal, snapshots every cell and renders.
type Consumer struct {
	Cells    *store.Cells
	Signal   *Signal
	Renderer Renderer
	MaxWait  time.Duration
	Log      *zap.SugaredLogger

	Clock func() time.Time
}

// Run renders until ctx ends or rendering fails. Render failures are not
// retried; the returned error is fatal to the process.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		c.Signal.Wait(ctx, c.MaxWait)
		if ctx.Err() != nil {
			return nil
		}

		// Drain before snapshotting: a raise landing during the render below
		// is deferred to the next cycle, never dropped.
		c.Signal.Drain()

		snapshot := c.Cells.Snapshot(c.now())
		if err := c.Renderer.Render(snapshot); err != nil {
			return errors.Wrap(err, "render failed")
		}
	}
}

func (c *Consumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}
