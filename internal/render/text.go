// Package render turns snapshots into display output. The pixel-level GUI is
// a separate concern; this text renderer is the departure board in terminal
// form and the default sink when no framebuffer is attached.
package render

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"

	"github.com/antonkvm/transit-display/internal/store"
)

// TextRenderer writes the departure board and weather footer as text.
type TextRenderer struct {
	Out   io.Writer
	Clock func() time.Time
}

// Render writes one full board for the snapshot. The whole frame is buffered
// and written in a single call so a concurrent reader of Out never sees a
// torn frame.
func (r *TextRenderer) Render(snapshot store.Snapshot) error {
	var buf bytes.Buffer

	now := r.now()
	fmt.Fprintf(&buf, "== %s ==\n", now.Format("Mon 02 Jan 15:04"))

	if len(snapshot.Departures) == 0 {
		buf.WriteString("No departures yet\n")
	} else {
		table := tablewriter.NewWriter(&buf)
		table.SetHeader([]string{"Line", "Destination", "Time", "Delay"})
		table.SetBorder(false)
		for _, d := range snapshot.Departures {
			table.Append([]string{d.Line, d.Destination, d.When, d.DelayString()})
		}
		table.Render()
	}

	if w := snapshot.Weather; w != nil {
		fmt.Fprintf(&buf, "%.1f°C (%.1f–%.1f)  UV %.1f (max %.1f)\n",
			w.Temperature, w.TemperatureDailyMin, w.TemperatureDailyMax,
			w.UVIndex, w.UVIndexDailyMax)
	}

	if _, err := r.Out.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing frame")
	}
	return nil
}

// RenderError writes a best-effort diagnostic screen. Used on the fatal exit
// paths; failures here are swallowed since the process is dying anyway.
func (r *TextRenderer) RenderError(message string) {
	fmt.Fprintf(r.Out, "\n!!! DISPLAY FAILURE !!!\n%s\n", message)
}

func (r *TextRenderer) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}
