package geosearch

import (
	"context"

	"github.com/hillwalk/munroquery/internal/domain/geo"
	"github.com/hillwalk/munroquery/internal/domain/hill"
	"github.com/hillwalk/munroquery/internal/domain/intent"
	"github.com/hillwalk/munroquery/internal/domain/search"
)

// Geocoder resolves a place name to a coordinate. A location that does not
// resolve returns domain.ErrLocationNotFound.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (geo.Point, error)
}

// Corpus is the read-only hill set ranked by distance.
type Corpus interface {
	Hills() []*hill.Hill
}

// Lexical is the fallback engine used when the location cannot be resolved.
type Lexical interface {
	Search(ctx context.Context, in *intent.Intent) *search.Result
}
