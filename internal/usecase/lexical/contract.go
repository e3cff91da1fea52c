package lexical

import (
	"context"

	"github.com/hillwalk/munroquery/internal/domain/hill"
	"github.com/hillwalk/munroquery/internal/domain/search"
)

// Corpus is the read-only hill index the engine searches over.
type Corpus interface {
	Size() int
	Hills() []*hill.Hill
	TextSearch(terms []string) map[int64]float64
	FuzzySearch(terms []string) map[int64]float64
}

// TextIndex is a server-side full-text index over the corpus. Nil means
// the engine runs on the in-process index alone (embedded use).
type TextIndex interface {
	TextSearch(ctx context.Context, terms []string, topK int) ([]search.TextHit, error)
}
