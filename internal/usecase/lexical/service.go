// Package lexical implements full-text + tag + numeric retrieval over the
// hill corpus, with fallback tiers tried in order: full-text relevance,
// fuzzy matching, tag/numeric-only.
package lexical

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hillwalk/munroquery/internal/domain/intent"
	"github.com/hillwalk/munroquery/internal/domain/search"
	"github.com/hillwalk/munroquery/internal/domain/text"
	"github.com/hillwalk/munroquery/internal/logger"
)

// Service is the lexical/tag search engine.
type Service struct {
	corpus Corpus
	index  TextIndex // nil: full-text tier runs on the in-process index

	// permissiveRatio rejects a free-text tier whose hit count exceeds this
	// fraction of the corpus: matching nearly everything means the query
	// expansion carried no signal.
	permissiveRatio float64
}

// New creates a lexical engine. index may be nil.
func New(corpus Corpus, index TextIndex, permissiveRatio float64) *Service {
	if permissiveRatio <= 0 || permissiveRatio > 1 {
		permissiveRatio = 0.8
	}
	return &Service{corpus: corpus, index: index, permissiveRatio: permissiveRatio}
}

// tier is one retrieval strategy: a function from expanded terms to scored
// candidates, tried in order until one is accepted.
type tier struct {
	mode    search.Mode
	applies bool
	run     func(ctx context.Context) map[int64]float64
	// checkRatio guards free-text tiers against matching most of the
	// corpus; explicit tag filters are the user's own choice and exempt.
	checkRatio bool
}

func (s *Service) tiers(in *intent.Intent, terms []string) []tier {
	hasTerms := len(terms) > 0
	return []tier{
		{
			mode:       search.ModeFTS,
			applies:    hasTerms,
			run:        func(ctx context.Context) map[int64]float64 { return s.textScores(ctx, terms) },
			checkRatio: true,
		},
		{
			mode:       search.ModeFuzzy,
			applies:    hasTerms,
			run:        func(context.Context) map[int64]float64 { return s.corpus.FuzzySearch(terms) },
			checkRatio: true,
		},
		{
			mode:    search.ModeTags,
			applies: len(in.IncludeTags) > 0 || !hasTerms,
			run: func(context.Context) map[int64]float64 {
				scores := make(map[int64]float64)
				for _, h := range s.corpus.Hills() {
					scores[h.ID] = 0
				}
				return scores
			},
		},
	}
}

// textScores runs the full-text tier. The server-side index is preferred;
// on error the in-process index answers instead so a search never fails on
// an index round-trip.
func (s *Service) textScores(ctx context.Context, terms []string) map[int64]float64 {
	if s.index == nil {
		return s.corpus.TextSearch(terms)
	}

	hits, err := s.index.TextSearch(ctx, terms, s.corpus.Size())
	if err != nil {
		logger.FromContext(ctx).Warn("text index unavailable, using in-process index",
			zap.Error(err))
		return s.corpus.TextSearch(terms)
	}

	scores := make(map[int64]float64, len(hits))
	for _, h := range hits {
		scores[h.ID] = h.Score
	}
	return scores
}

// Search runs the tiered strategy and returns a ranked result. Numeric
// bounds and tag sets are hard filters in every tier. Ranking within a
// tier: text score descending, matched include-tag count descending, ID
// ascending.
func (s *Service) Search(ctx context.Context, in *intent.Intent) *search.Result {
	log := logger.FromContext(ctx)
	terms := text.ExpandQuery(in.Query)

	for _, t := range s.tiers(in, terms) {
		if !t.applies {
			continue
		}

		matches := s.collect(t.run(ctx), in)
		if len(matches) == 0 {
			continue
		}
		if t.checkRatio && float64(len(matches)) > s.permissiveRatio*float64(s.corpus.Size()) {
			log.Debug("tier rejected as too permissive",
				zap.String("mode", string(t.mode)), zap.Int("hits", len(matches)))
			continue
		}

		rank(matches)
		total := len(matches)
		if len(matches) > in.Limit {
			matches = matches[:in.Limit]
		}
		return &search.Result{
			Matches: matches,
			Trace:   s.trace(t.mode, in, terms, total),
		}
	}

	return &search.Result{Trace: s.trace(search.ModeNone, in, terms, 0)}
}

// collect applies the hard tag/numeric filters to scored candidates.
func (s *Service) collect(scores map[int64]float64, in *intent.Intent) []search.Match {
	var out []search.Match
	for _, h := range s.corpus.Hills() {
		score, hit := scores[h.ID]
		if !hit {
			continue
		}
		if !PassesTags(h, in) || !PassesBounds(h, in) {
			continue
		}
		out = append(out, search.Match{
			Hill:        h,
			Score:       score,
			MatchedTags: MatchedTags(h, in.IncludeTags),
		})
	}
	return out
}

func rank(matches []search.Match) {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if len(a.MatchedTags) != len(b.MatchedTags) {
			return len(a.MatchedTags) > len(b.MatchedTags)
		}
		return a.Hill.ID < b.Hill.ID
	})
}

func (s *Service) trace(mode search.Mode, in *intent.Intent, terms []string, total int) search.Trace {
	params := map[string]any{
		"include_tags": in.IncludeTags,
		"exclude_tags": in.ExcludeTags,
		"limit":        in.Limit,
		"total":        total,
	}
	if len(terms) > 0 {
		params["terms"] = terms
	}
	addBound(params, "bog_max", in.BogMax)
	addBound(params, "grade_max", in.GradeMax)
	addBound(params, "grade_min", in.GradeMin)
	addBound(params, "distance_min_km", in.DistanceMinKM)
	addBound(params, "distance_max_km", in.DistanceMaxKM)
	addBound(params, "time_min_h", in.TimeMinH)
	addBound(params, "time_max_h", in.TimeMaxH)

	return search.Trace{
		Mode:          mode,
		ExecutedQuery: fmt.Sprintf("%s(query=%q, include=%v, exclude=%v)", mode, in.Query, in.IncludeTags, in.ExcludeTags),
		Params:        params,
	}
}

func addBound[T any](params map[string]any, key string, v *T) {
	if v != nil {
		params[key] = *v
	}
}
