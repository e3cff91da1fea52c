package extract

import (
	"github.com/hillwalk/munroquery/internal/domain/tag"
	"github.com/hillwalk/munroquery/internal/domain/text"
)

// tagAliases maps message tokens to ontology tags where the user's wording
// differs from the vocabulary token. Ontology tags themselves always match
// directly.
var tagAliases = map[string]string{
	"exposed":   "airy",
	"buses":     "bus",
	"trains":    "train",
	"rail":      "train",
	"railway":   "train",
	"cycle":     "bike",
	"cycling":   "bike",
	"bog":       "boggy",
	"bogs":      "boggy",
	"scrambles": "scramble",
	"hands":     "handson",
	"crowded":   "popular",
	"busy":      "popular",
	"wade":      "river_crossing",
	"ford":      "river_crossing",
	"ridges":    "ridge",
	"knife":     "knifeedge",
	"waterfall": "waterfalls",
	"bothies":   "bothy",
	"camp":      "camping",
	"kids":      "family",
	"children":  "family",
}

// MatchTags returns ontology tags directly implied by message tokens.
// Conservative by construction: only exact token hits and the alias table,
// no stemming beyond that.
func MatchTags(message string, ont *tag.Ontology) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	for _, tok := range text.Tokenize(message) {
		if ont.Contains(tok) {
			add(tok)
			continue
		}
		if alias, ok := tagAliases[tok]; ok && ont.Contains(alias) {
			add(alias)
		}
	}
	return out
}
