// Package search backs the full-text retrieval tier with an FT index over
// the hill corpus. Records are written as hashes at startup and queried
// through FT.SEARCH with engine-side relevance scoring.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hillwalk/munroquery/internal/db"
	"github.com/hillwalk/munroquery/internal/domain/hill"
	"github.com/hillwalk/munroquery/internal/domain/search"
	"github.com/hillwalk/munroquery/internal/domain/text"
)

const (
	indexName = "munroquery:hills:idx"
	keyPrefix = "munroquery:hill:"
)

// Field weights for the FT schema. A name hit outranks a summary hit,
// which outranks description and keyword hits.
const (
	weightName     = 3.0
	weightSummary  = 2.0
	weightKeywords = 1.5
)

// store is the consumer interface for the hill index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements usecase/lexical.TextIndex over a db store.
type Repo struct {
	store store
}

// New creates a hill index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the hill FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:     indexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "name", Type: db.IndexFieldText, TextWeight: weightName},
			{Name: "summary", Type: db.IndexFieldText, TextWeight: weightSummary},
			{Name: "keywords", Type: db.IndexFieldText, TextWeight: weightKeywords},
			{Name: "description", Type: db.IndexFieldText},
			{Name: "tags", Type: db.IndexFieldTag, TagSeparator: ","},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", indexName, err)
	}
	return nil
}

// IndexHills writes the corpus as hash documents under the index prefix.
// Re-indexing overwrites in place; records never disappear between loads
// of the same dataset.
func (r *Repo) IndexHills(ctx context.Context, hills []*hill.Hill) error {
	items := make([]db.HashSetItem, 0, len(hills))
	for _, h := range hills {
		items = append(items, db.HashSetItem{
			Key: keyPrefix + strconv.FormatInt(h.ID, 10),
			Fields: map[string]string{
				"id":          strconv.FormatInt(h.ID, 10),
				"name":        h.Name,
				"summary":     h.Summary,
				"keywords":    h.Keywords,
				"description": h.Description,
				"tags":        strings.Join(h.Tags, ","),
			},
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("index hills: %w", err)
	}
	return nil
}

// TextSearch scores records against already-expanded query terms via
// FT.SEARCH. Terms are OR-ed; terms of at least text.PrefixLen characters
// also match by prefix.
func (r *Repo) TextSearch(ctx context.Context, terms []string, topK int) ([]search.TextHit, error) {
	if len(terms) == 0 || topK <= 0 {
		return nil, nil
	}

	q := &db.TextQuery{
		IndexName:    indexName,
		Query:        buildQuery(terms),
		TopK:         topK,
		ReturnFields: []string{"id"},
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	hits := make([]search.TextHit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id, err := entryID(entry)
		if err != nil {
			continue
		}
		hits = append(hits, search.TextHit{ID: id, Score: entry.Score})
	}
	return hits, nil
}

// buildQuery renders expanded terms as an FT disjunction. A term of
// text.PrefixLen or more characters gets a prefix wildcard so inflected
// forms still hit.
func buildQuery(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		escaped := escapeTerm(term)
		if len(term) >= text.PrefixLen {
			escaped += "*"
		}
		parts = append(parts, escaped)
	}
	return "(" + strings.Join(parts, "|") + ")"
}

func entryID(entry db.SearchEntry) (int64, error) {
	if v, ok := entry.Fields["id"]; ok {
		return strconv.ParseInt(v, 10, 64)
	}
	return strconv.ParseInt(strings.TrimPrefix(entry.Key, keyPrefix), 10, 64)
}

func escapeTerm(s string) string {
	return termEscaper.Replace(s)
}

var termEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
