// Package assist orchestrates the chat pipeline: extract an intent, route
// it to a search engine, compose the response. Stateless; one pass per
// request with no signaling beyond the returned value.
package assist

import (
	"context"

	"github.com/hillwalk/munroquery/internal/domain/intent"
	"github.com/hillwalk/munroquery/internal/domain/search"
	"github.com/hillwalk/munroquery/internal/usecase/compose"
)

// Extractor builds a validated intent from free text.
type Extractor interface {
	Extract(ctx context.Context, message string, limit int) *intent.Intent
}

// Searcher executes a search for an intent.
type Searcher interface {
	Search(ctx context.Context, in *intent.Intent) *search.Result
}

// Composer renders the uniform response.
type Composer interface {
	Compose(ctx context.Context, userMsg string, in *intent.Intent, res *search.Result, useModel bool) *compose.Response
}

// Service is the chat pipeline.
type Service struct {
	extractor Extractor
	router    Searcher
	composer  Composer
}

// New creates the chat pipeline.
func New(extractor Extractor, router Searcher, composer Composer) *Service {
	return &Service{extractor: extractor, router: router, composer: composer}
}

// Chat answers a free-text route request.
func (s *Service) Chat(ctx context.Context, message string, limit int) *compose.Response {
	in := s.extractor.Extract(ctx, message, limit)
	res := s.router.Search(ctx, in)
	return s.composer.Compose(ctx, message, in, res, true)
}

// Query answers an already-structured request (the plain-filter endpoint);
// the answer is always the deterministic template.
func (s *Service) Query(ctx context.Context, in *intent.Intent) *compose.Response {
	res := s.router.Search(ctx, in)
	return s.composer.Compose(ctx, in.Query, in, res, false)
}
