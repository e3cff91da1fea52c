// Package text provides the tokenization and query-expansion rules shared
// by the corpus index and the lexical search engine.
package text

import (
	"strings"
	"unicode"
)

// stopwords are dropped from free-text queries before matching.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "of": {}, "to": {}, "in": {},
	"on": {}, "by": {}, "for": {}, "with": {}, "at": {}, "from": {}, "near": {},
}

// synonyms expands common request phrasings into the vocabulary the route
// descriptions actually use.
var synonyms = map[string][]string{
	"scramble":  {"scramble", "scrambling"},
	"scrambles": {"scramble", "scrambling"},
	"airy":      {"airy", "exposed", "exposure"},
	"bus":       {"bus", "buses"},
	"train":     {"train", "rail", "railway", "station"},
}

// IsStopword reports whether the token is a query stopword.
func IsStopword(t string) bool {
	_, ok := stopwords[t]
	return ok
}

// Tokenize lowercases the input and splits it on anything that is not a
// letter, digit, or apostrophe.
func Tokenize(s string) []string {
	s = Fold(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// Fold normalizes curly quotes and lowercases the string.
func Fold(s string) string {
	r := strings.NewReplacer("’", "'", "‘", "'", "`", "'")
	return strings.ToLower(r.Replace(s))
}

// ExpandQuery tokenizes a free-text query, strips stopwords, applies the
// synonym table, and deduplicates preserving first-seen order.
func ExpandQuery(q string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, t := range Tokenize(q) {
		if IsStopword(t) {
			continue
		}
		expanded, ok := synonyms[t]
		if !ok {
			expanded = []string{t}
		}
		for _, e := range expanded {
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// PrefixLen is the prefix length used for prefix-tolerant token matching.
// Query tokens at least this long also match indexed tokens sharing their
// first PrefixLen characters.
const PrefixLen = 5

// WithinDistance reports whether the Levenshtein distance between a and b
// is at most max. Early-outs on length difference.
func WithinDistance(a, b string, max int) bool {
	la, lb := len(a), len(b)
	if la-lb > max || lb-la > max {
		return false
	}
	// Single-row dynamic programming over bytes; route names and query
	// terms are effectively ASCII after Fold.
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		rowMin := cur[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d := prev[j] + 1
			if cur[j-1]+1 < d {
				d = cur[j-1] + 1
			}
			if prev[j-1]+cost < d {
				d = prev[j-1] + cost
			}
			cur[j] = d
			if d < rowMin {
				rowMin = d
			}
		}
		if rowMin > max {
			return false
		}
		prev, cur = cur, prev
	}
	return prev[lb] <= max
}
