// Package hills serves the plain catalogue views: list, detail, and tag
// usage counts.
package hills

import (
	"context"
	"fmt"
	"strings"

	"github.com/hillwalk/munroquery/internal/corpus"
	"github.com/hillwalk/munroquery/internal/domain"
	"github.com/hillwalk/munroquery/internal/domain/hill"
	"github.com/hillwalk/munroquery/internal/domain/text"
)

// Corpus is the read-only record store the catalogue reads from.
type Corpus interface {
	Hills() []*hill.Hill
	Get(id int64) (*hill.Hill, bool)
	TagCounts() []corpus.TagCount
}

// Filter narrows the catalogue listing.
type Filter struct {
	Grade  *int
	BogMax *int
	Search string // case-insensitive substring over name/summary/description
	ID     *int64
}

// Service is the hill catalogue.
type Service struct {
	corpus Corpus
}

// New creates a catalogue service.
func New(c Corpus) *Service {
	return &Service{corpus: c}
}

// List returns records matching the filter, ordered by ID.
func (s *Service) List(_ context.Context, f Filter) []*hill.Hill {
	needle := text.Fold(strings.TrimSpace(f.Search))

	var out []*hill.Hill
	for _, h := range s.corpus.Hills() {
		if f.ID != nil && h.ID != *f.ID {
			continue
		}
		if f.Grade != nil && h.Grade != *f.Grade {
			continue
		}
		if f.BogMax != nil && h.Bog > *f.BogMax {
			continue
		}
		if needle != "" && !matchesText(h, needle) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Get returns a single record by ID.
func (s *Service) Get(_ context.Context, id int64) (*hill.Hill, error) {
	h, ok := s.corpus.Get(id)
	if !ok {
		return nil, fmt.Errorf("hill %d: %w", id, domain.ErrHillNotFound)
	}
	return h, nil
}

// TagCounts returns tag usage across the corpus for filter UIs.
func (s *Service) TagCounts(_ context.Context) []corpus.TagCount {
	return s.corpus.TagCounts()
}

func matchesText(h *hill.Hill, needle string) bool {
	return strings.Contains(text.Fold(h.Name), needle) ||
		strings.Contains(text.Fold(h.Summary), needle) ||
		strings.Contains(text.Fold(h.Description), needle)
}
