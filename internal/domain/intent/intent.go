// Package intent defines the structured, validated interpretation of a
// free-text route request. One Intent exists per inbound request and is
// discarded once the response is sent.
package intent

import (
	"github.com/hillwalk/munroquery/internal/domain/tag"
	"github.com/hillwalk/munroquery/internal/domain/text"
)

// Intent is the executable form of a route request. Nil numeric pointers
// mean "no bound". An empty Location means the lexical engine handles the
// request.
type Intent struct {
	Query       string   `json:"query,omitempty"`
	IncludeTags []string `json:"include_tags,omitempty"`
	ExcludeTags []string `json:"exclude_tags,omitempty"`

	BogMax   *int `json:"bog_max,omitempty"`
	GradeMax *int `json:"grade_max,omitempty"`
	GradeMin *int `json:"grade_min,omitempty"`

	DistanceMinKM *float64 `json:"distance_min_km,omitempty"`
	DistanceMaxKM *float64 `json:"distance_max_km,omitempty"`
	TimeMinH      *float64 `json:"time_min_h,omitempty"`
	TimeMaxH      *float64 `json:"time_max_h,omitempty"`

	Location string `json:"location,omitempty"`
	Limit    int    `json:"limit"`

	// ModelUsed records whether the language model contributed to this
	// intent, or the deterministic fallback built it alone.
	ModelUsed bool `json:"model_used"`

	// Warnings collects non-fatal sanitation notes (dropped tags, flooded
	// tag sets). Informational only, never an error.
	Warnings []string `json:"warnings,omitempty"`
}

// HasLocation reports whether the intent carries a location signal.
func (in *Intent) HasLocation() bool { return in.Location != "" }

// HasTextQuery reports whether the intent carries free-text query terms
// that survive stopword stripping. A query made only of stopwords is no
// query at all.
func (in *Intent) HasTextQuery() bool { return len(text.ExpandQuery(in.Query)) > 0 }

// minGrade is the lowest meaningful route grade; lower values are raised
// to it (sub-grade-3 Munro routes are effectively nonexistent).
const minGrade = 3

// Normalize applies the cross-cutting tag sanitation policy and bound
// enforcement in place, returning the intent for chaining.
//
// Invariants established: both tag sets are subsets of the ontology and
// disjoint (overlap is dropped from the exclude set — an explicit include
// wish outranks an exclusion of the same tag), limit is within
// [1, maxLimit] with defaultLimit for the zero value, and inverted numeric
// ranges are kept as-is (they legitimately produce an empty result).
func (in *Intent) Normalize(ont *tag.Ontology, floodRatio float64, defaultLimit, maxLimit int) *Intent {
	inc := ont.Sanitize(in.IncludeTags, floodRatio)
	exc := ont.Sanitize(in.ExcludeTags, floodRatio)
	in.IncludeTags = inc.Tags
	in.ExcludeTags = exc.Tags

	for _, d := range inc.Dropped {
		in.Warnings = append(in.Warnings, "unknown include tag dropped: "+d)
	}
	for _, d := range exc.Dropped {
		in.Warnings = append(in.Warnings, "unknown exclude tag dropped: "+d)
	}
	if inc.Flooded {
		in.Warnings = append(in.Warnings, "include tag set discarded: covers most of the ontology")
	}
	if exc.Flooded {
		in.Warnings = append(in.Warnings, "exclude tag set discarded: covers most of the ontology")
	}

	if len(in.IncludeTags) > 0 && len(in.ExcludeTags) > 0 {
		included := make(map[string]struct{}, len(in.IncludeTags))
		for _, t := range in.IncludeTags {
			included[t] = struct{}{}
		}
		kept := in.ExcludeTags[:0]
		for _, t := range in.ExcludeTags {
			if _, clash := included[t]; clash {
				in.Warnings = append(in.Warnings, "tag excluded and included, keeping include: "+t)
				continue
			}
			kept = append(kept, t)
		}
		in.ExcludeTags = kept
	}

	if in.GradeMax != nil && *in.GradeMax < minGrade {
		g := minGrade
		in.GradeMax = &g
	}

	if in.Limit <= 0 {
		in.Limit = defaultLimit
	}
	if in.Limit > maxLimit {
		in.Limit = maxLimit
	}

	return in
}
