package lexical

import (
	"github.com/hillwalk/munroquery/internal/domain/hill"
	"github.com/hillwalk/munroquery/internal/domain/intent"
)

// PassesBounds reports whether the record satisfies every numeric hard
// filter in the intent. A zero (unset) attribute passes: the dataset only
// guarantees bounds for attributes it actually extracted.
func PassesBounds(h *hill.Hill, in *intent.Intent) bool {
	if in.BogMax != nil && h.Bog > *in.BogMax {
		return false
	}
	if in.GradeMax != nil && h.Grade != 0 && h.Grade > *in.GradeMax {
		return false
	}
	if in.GradeMin != nil && h.Grade != 0 && h.Grade < *in.GradeMin {
		return false
	}
	if in.DistanceMinKM != nil && h.DistanceKM != 0 && h.DistanceKM < *in.DistanceMinKM {
		return false
	}
	if in.DistanceMaxKM != nil && h.DistanceKM != 0 && h.DistanceKM > *in.DistanceMaxKM {
		return false
	}
	if in.TimeMinH != nil && h.TimeHours != 0 && h.TimeHours < *in.TimeMinH {
		return false
	}
	if in.TimeMaxH != nil && h.TimeHours != 0 && h.TimeHours > *in.TimeMaxH {
		return false
	}
	return true
}

// PassesTags reports whether the record carries every include tag and none
// of the exclude tags.
func PassesTags(h *hill.Hill, in *intent.Intent) bool {
	for _, t := range in.IncludeTags {
		if !h.HasTag(t) {
			return false
		}
	}
	for _, t := range in.ExcludeTags {
		if h.HasTag(t) {
			return false
		}
	}
	return true
}

// MatchedTags returns the subset of tags the record carries, in the given
// order.
func MatchedTags(h *hill.Hill, tags []string) []string {
	var out []string
	for _, t := range tags {
		if h.HasTag(t) {
			out = append(out, t)
		}
	}
	return out
}
