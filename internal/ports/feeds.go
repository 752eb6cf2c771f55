package ports

import (
	"context"

	"github.com/bnema/warehouse-showcase/internal/domain"
)

type PartsFeed interface {
	// FetchParts returns the parts of a category, or every part when category is empty.
	FetchParts(ctx context.Context, category string) ([]domain.FeedPart, error)
	FetchCategories(ctx context.Context) ([]string, error)
}

type StationsFeed interface {
	FetchStations(ctx context.Context) ([]domain.FeedStation, error)
}
