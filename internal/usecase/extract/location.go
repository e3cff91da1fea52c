package extract

import (
	"regexp"
	"strings"
)

// locationRe captures the phrase after a location preposition, up to
// sentence punctuation. "near" is tried before the more ambiguous "from".
var locationRe = regexp.MustCompile(
	`(?i)\b(?:near|around|close\s+to|next\s+to|starting\s+(?:at|in)|from)\s+([A-Za-z][^,.;!?\n]{0,60})`)

// cutMarkers end a location phrase when a constraint clause follows it
// without punctuation ("near Glen Coe under 6 hours").
var cutMarkers = []string{
	" under ", " over ", " within ", " between ", " at least", " at most",
	" less than", " more than", " up to ", " no more than", " with ",
	" without ", " that ", " which ", " and ", " by ", " via ",
}

// ParseLocation recovers a place name from phrases like "near Glen Coe".
// Returns "" when no location phrase is present. The heuristic runs on top
// of the model output and wins over it: a phrase the user literally typed
// beats a model guess.
func ParseLocation(message string) string {
	m := locationRe.FindStringSubmatch(message)
	if m == nil {
		return ""
	}

	loc := m[1]
	lower := strings.ToLower(loc)
	for _, marker := range cutMarkers {
		if i := strings.Index(lower, marker); i >= 0 {
			loc = loc[:i]
			lower = lower[:i]
		}
	}

	loc = strings.TrimSpace(loc)
	loc = strings.TrimPrefix(loc, "the ")
	loc = strings.TrimSpace(loc)

	// A "from 10" style match is a numeric phrase, not a place.
	if loc == "" || !startsWithLetter(loc) {
		return ""
	}
	return loc
}

func startsWithLetter(s string) bool {
	c := s[0]
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
