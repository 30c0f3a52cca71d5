package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/antonkvm/transit-display/internal/transit"
)

var validate = validator.New()

// DefaultStations is the hardcoded fallback when the stations file cannot be
// loaded. A broken config must never keep the display from starting.
var DefaultStations = []transit.Station{
	{
		Name:     "Zoologischer Garten",
		ID:       900023201,
		Products: []transit.Category{transit.CategoryBus},
	},
}

type stationsFile struct {
	Stations []stationEntry `yaml:"stations" validate:"required,min=1,dive"`
}

type stationEntry struct {
	Name     string   `yaml:"name" validate:"required"`
	ID       int      `yaml:"stationID" validate:"required,gt=0"`
	Products []string `yaml:"fetch_products" validate:"required,min=1,dive,oneof=suburban subway tram bus ferry express regional"`
}

// LoadStations reads the ordered station list from a yaml file. Any failure
// (missing file, bad yaml, invalid entry) is fully absorbed: the error is
// logged and DefaultStations is returned, never propagated.
func LoadStations(path string, log *zap.SugaredLogger) []transit.Station {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Errorw("Failed to read stations file, using default station",
			"path", path, "default", DefaultStations[0].Name, "error", err)
		return DefaultStations
	}

	var parsed stationsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		log.Errorw("Failed to parse stations file, using default station",
			"path", path, "default", DefaultStations[0].Name, "error", err)
		return DefaultStations
	}

	if err := validate.Struct(parsed); err != nil {
		log.Errorw("Invalid stations file, using default station",
			"path", path, "default", DefaultStations[0].Name, "error", err)
		return DefaultStations
	}

	stations := make([]transit.Station, 0, len(parsed.Stations))
	for _, entry := range parsed.Stations {
		products := make([]transit.Category, 0, len(entry.Products))
		for _, p := range entry.Products {
			products = append(products, transit.Category(p))
		}
		stations = append(stations, transit.Station{
			Name:     entry.Name,
			ID:       entry.ID,
			Products: products,
		})
	}
	return stations
}
