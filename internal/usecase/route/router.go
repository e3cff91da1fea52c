// Package route dispatches a validated intent to the engine that can serve
// it. Pure branching, kept as a named seam so each engine stays
// independently testable.
package route

import (
	"context"

	"github.com/hillwalk/munroquery/internal/domain/intent"
	"github.com/hillwalk/munroquery/internal/domain/search"
	"github.com/hillwalk/munroquery/internal/metrics"
)

// Engine executes a search for an intent.
type Engine interface {
	Search(ctx context.Context, in *intent.Intent) *search.Result
}

// Router picks the engine per request.
type Router struct {
	lexical  Engine
	location Engine
}

// New creates a router over the two engines.
func New(lexical, location Engine) *Router {
	return &Router{lexical: lexical, location: location}
}

// Search routes to the location-ranked engine when the intent carries a
// location, to the lexical engine otherwise.
func (r *Router) Search(ctx context.Context, in *intent.Intent) *search.Result {
	var res *search.Result
	if in.HasLocation() {
		res = r.location.Search(ctx, in)
	} else {
		res = r.lexical.Search(ctx, in)
	}
	metrics.SearchesTotal.WithLabelValues(string(res.Trace.Mode)).Inc()
	return res
}
