// Package search defines the ephemeral result and trace types produced by
// the retrieval engines. Nothing here is ever persisted.
package search

import (
	"github.com/hillwalk/munroquery/internal/domain/hill"
)

// Mode identifies the retrieval strategy that produced a result set.
type Mode string

const (
	// ModeFTS is tier 1 of the lexical engine: full-text relevance search.
	ModeFTS Mode = "fts"
	// ModeFuzzy is tier 2: approximate text matching.
	ModeFuzzy Mode = "fuzzy"
	// ModeTags is tier 3: tag/numeric filtering without free text.
	ModeTags Mode = "tags"
	// ModeLocation is distance ranking from a resolved coordinate.
	ModeLocation Mode = "location"
	// ModeBroad marks candidates picked by the chat model from a compact
	// corpus slice after every retrieval tier came back empty.
	ModeBroad Mode = "llm_broad"
	// ModeNone marks an empty result where no tier produced candidates.
	ModeNone Mode = "none"
)

// TextHit is a scored document reference from a full-text index.
type TextHit struct {
	ID    int64
	Score float64
}

// Match is one qualified hill with its ranking signals.
type Match struct {
	Hill        *hill.Hill
	Score       float64  // text relevance (lexical) — higher is better
	MatchedTags []string // include/optional tags the record actually carries
	DistanceKM  float64  // populated in location mode only
}

// Trace is the explainability payload: how a result set was produced.
type Trace struct {
	Mode          Mode           `json:"mode"`
	Fallback      bool           `json:"fallback"` // location → lexical degradation occurred
	ExecutedQuery string         `json:"executed_query"`
	Params        map[string]any `json:"params"`
}

// Result is an ordered candidate list plus its trace, built fresh per
// request and discarded after the response is sent.
type Result struct {
	Matches []Match
	Trace   Trace
}
