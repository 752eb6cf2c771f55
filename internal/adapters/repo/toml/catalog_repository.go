package toml

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/bnema/warehouse-showcase/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const catalogPathKey = "catalog.path"

//go:embed seed_catalog.toml
var seedCatalog []byte

// CatalogRepository loads the seed parts and stations. Without a configured
// path it serves the embedded showcase catalog.
type CatalogRepository struct {
	path string
}

var _ ports.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(cfg *viper.Viper) (*CatalogRepository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	path := cfg.GetString(catalogPathKey)
	if path == "" {
		return &CatalogRepository{}, nil
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &CatalogRepository{path: path}, nil
}

func (r *CatalogRepository) Load(ctx context.Context) (domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return domain.Catalog{}, err
	}

	data := seedCatalog
	if r.path != "" {
		var err error
		data, err = os.ReadFile(r.path)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("read catalog file: %w", err)
		}
	}

	var file catalogFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return domain.Catalog{}, fmt.Errorf("decode catalog file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return domain.Catalog{}, err
	}
	file.applyDefaults()

	return fromCatalogSchema(file)
}

func fromCatalogSchema(file catalogFileSchema) (domain.Catalog, error) {
	catalog := domain.Catalog{
		Parts:    make([]domain.Part, 0, len(file.Parts)),
		Stations: make([]domain.Station, 0, len(file.Stations)),
	}

	seenParts := make(map[string]struct{}, len(file.Parts))
	for _, entry := range file.Parts {
		if entry.ID == "" {
			return domain.Catalog{}, errors.New("catalog part without id")
		}
		if _, dup := seenParts[entry.ID]; dup {
			return domain.Catalog{}, fmt.Errorf("duplicate catalog part %q", entry.ID)
		}
		seenParts[entry.ID] = struct{}{}
		catalog.Parts = append(catalog.Parts, fromPartSchema(entry))
	}

	seenStations := make(map[string]struct{}, len(file.Stations))
	for _, entry := range file.Stations {
		if entry.ID == "" {
			return domain.Catalog{}, errors.New("catalog station without id")
		}
		if _, dup := seenStations[entry.ID]; dup {
			return domain.Catalog{}, fmt.Errorf("duplicate catalog station %q", entry.ID)
		}
		seenStations[entry.ID] = struct{}{}

		station := domain.Station{ID: domain.StationID(entry.ID), Name: entry.Name}
		if entry.Position != nil {
			station.Position = &domain.Position{X: entry.Position.X, Y: entry.Position.Y}
		}
		catalog.Stations = append(catalog.Stations, station)
	}

	if len(catalog.Stations) == 0 {
		return domain.Catalog{}, errors.New("catalog defines no stations")
	}

	return catalog, nil
}

func toPartSchema(part domain.Part) partSchema {
	return partSchema{
		ID:          string(part.ID),
		Name:        part.Name,
		Category:    part.Category,
		Description: part.Description,
		ImageURL:    part.ImageURL,
		TrayID:      part.TrayID,
	}
}

func fromPartSchema(part partSchema) domain.Part {
	return domain.Part{
		ID:          domain.PartID(part.ID),
		Name:        part.Name,
		Category:    part.Category,
		Description: part.Description,
		ImageURL:    part.ImageURL,
		TrayID:      part.TrayID,
	}
}
