// Package httpapi exposes a small diagnostics surface for the headless
// display: the wall-mounted box has no attached keyboard, so freshness and
// connectivity questions are answered over the network.
package httpapi

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/antonkvm/transit-display/internal/connectivity"
	"github.com/antonkvm/transit-display/internal/refresh"
	"github.com/antonkvm/transit-display/internal/store"
	"github.com/antonkvm/transit-display/internal/transit"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, cells *store.Cells, watchdog *connectivity.Watchdog, stats *refresh.Stats) {
	v1 := app.Group("/api/v1")

	v1.Get("/snapshot", func(c *fiber.Ctx) error {
		return c.JSON(cells.Snapshot(time.Now()))
	})

	v1.Get("/departures", func(c *fiber.Ctx) error {
		var q departuresQuery
		q.Category = c.Query("category")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		departures, updatedAt := cells.Departures()
		if departures == nil {
			return fiber.NewError(fiber.StatusNotFound, "no departures accepted yet")
		}
		if q.Category != "" {
			departures = filterByCategory(departures, transit.Category(q.Category))
		}

		return c.JSON(fiber.Map{
			"departures": departures,
			"updatedAt":  updatedAt,
		})
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		reading, updatedAt, ok := cells.Weather()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no weather reading accepted yet")
		}
		return c.JSON(fiber.Map{
			"reading":   reading,
			"updatedAt": updatedAt,
		})
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		state := connectivity.StateConnected
		if watchdog != nil {
			state = watchdog.State()
		}
		return c.JSON(fiber.Map{
			"connectivity": state,
			"sources": fiber.Map{
				"trips":   stats.Trips.View(),
				"weather": stats.Weather.View(),
			},
		})
	})
}

type departuresQuery struct {
	Category string `validate:"omitempty,oneof=suburban subway tram bus ferry express regional"`
}

func filterByCategory(departures []transit.Departure, cat transit.Category) []transit.Departure {
	filtered := make([]transit.Departure, 0, len(departures))
	for _, d := range departures {
		if d.Category == cat {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
