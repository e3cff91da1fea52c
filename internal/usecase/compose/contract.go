package compose

import (
	"context"

	"github.com/hillwalk/munroquery/internal/domain/hill"
)

// AnswerModel writes a short natural-language answer grounded in the
// retrieved candidates, and selects routes from a compact corpus listing
// when retrieval found nothing. The composer degrades to a deterministic
// template when the model errors or times out.
type AnswerModel interface {
	Answer(ctx context.Context, userMsg, candidateContext string) (string, error)
	// PickRoutes returns route names chosen from routeList that match the
	// request. Only names appearing verbatim in routeList count.
	PickRoutes(ctx context.Context, userMsg, routeList string) ([]string, error)
}

// Catalogue exposes the corpus to the broad model fallback. Nil disables
// the fallback.
type Catalogue interface {
	Hills() []*hill.Hill
}
