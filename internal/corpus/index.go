package corpus

import (
	"math"
	"sort"
	"strings"

	"github.com/hillwalk/munroquery/internal/domain/hill"
	"github.com/hillwalk/munroquery/internal/domain/text"
)

// Field weights for the inverted index. A name hit outranks a summary hit,
// which outranks description and keyword hits.
const (
	weightName     = 3.0
	weightSummary  = 2.0
	weightKeywords = 1.5
	weightBody     = 1.0
)

type posting struct {
	id     int64
	weight float64 // sum of field weights over occurrences
}

// index is the full-text structure built once per corpus load.
type index struct {
	n          int
	inv        map[string][]posting
	tokens     []string // sorted unique indexed tokens, for prefix scans
	hillTokens map[int64][]string
	haystack   map[int64]string // folded name+summary+description per record
}

func buildIndex(hills []*hill.Hill) *index {
	ix := &index{
		n:          len(hills),
		inv:        make(map[string][]posting),
		hillTokens: make(map[int64][]string),
		haystack:   make(map[int64]string),
	}

	for _, h := range hills {
		weights := make(map[string]float64)
		addField := func(s string, w float64) {
			for _, t := range text.Tokenize(s) {
				if text.IsStopword(t) {
					continue
				}
				weights[t] += w
			}
		}
		addField(h.Name, weightName)
		addField(h.Summary, weightSummary)
		addField(h.Keywords, weightKeywords)
		addField(h.Description, weightBody)

		toks := make([]string, 0, len(weights))
		for t, w := range weights {
			ix.inv[t] = append(ix.inv[t], posting{id: h.ID, weight: w})
			toks = append(toks, t)
		}
		sort.Strings(toks)
		ix.hillTokens[h.ID] = toks

		ix.haystack[h.ID] = text.Fold(h.Name + " " + h.Summary + " " + h.Description)
	}

	ix.tokens = make([]string, 0, len(ix.inv))
	for t := range ix.inv {
		ix.tokens = append(ix.tokens, t)
	}
	sort.Strings(ix.tokens)

	return ix
}

// textSearch scores records for the given terms. Each term matches indexed
// tokens exactly, or by shared prefix for terms of at least text.PrefixLen
// characters. A matching token contributes fieldWeight * idf, where
// idf = log(1 + N/df) dampens ubiquitous words.
func (ix *index) textSearch(terms []string) map[int64]float64 {
	scores := make(map[int64]float64)
	for _, term := range terms {
		for _, tok := range ix.matchTokens(term) {
			postings := ix.inv[tok]
			idf := math.Log(1 + float64(ix.n)/float64(len(postings)))
			for _, p := range postings {
				scores[p.id] += p.weight * idf
			}
		}
	}
	return scores
}

// matchTokens returns the distinct indexed tokens a query term reaches.
func (ix *index) matchTokens(term string) []string {
	if len(term) < text.PrefixLen {
		if _, ok := ix.inv[term]; ok {
			return []string{term}
		}
		return nil
	}

	prefix := term[:text.PrefixLen]
	lo := sort.SearchStrings(ix.tokens, prefix)
	var out []string
	for i := lo; i < len(ix.tokens) && strings.HasPrefix(ix.tokens[i], prefix); i++ {
		out = append(out, ix.tokens[i])
	}
	return out
}

// fuzzySearch scores records by approximate matching: one point per term
// found as a substring of the record text, or within edit distance 1 of an
// indexed token (terms of PrefixLen or longer only, to keep short words
// from matching everything).
func (ix *index) fuzzySearch(terms []string) map[int64]float64 {
	scores := make(map[int64]float64)
	for id, hay := range ix.haystack {
		var hits float64
		for _, term := range terms {
			if strings.Contains(hay, term) {
				hits++
				continue
			}
			if len(term) < text.PrefixLen {
				continue
			}
			for _, tok := range ix.hillTokens[id] {
				if text.WithinDistance(term, tok, 1) {
					hits++
					break
				}
			}
		}
		if hits > 0 {
			scores[id] = hits
		}
	}
	return scores
}
