// Package corpus holds the in-memory hill corpus: the read-only reference
// data every request searches over. Loaded once at startup, indexed, and
// never mutated — concurrent readers need no coordination.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hillwalk/munroquery/internal/domain"
	"github.com/hillwalk/munroquery/internal/domain/geo"
	"github.com/hillwalk/munroquery/internal/domain/hill"
	"github.com/hillwalk/munroquery/internal/domain/tag"
)

// Corpus is the immutable hill dataset plus its text and tag indexes.
type Corpus struct {
	hills []*hill.Hill // sorted by ID ascending
	byID  map[int64]*hill.Hill
	byTag map[string][]*hill.Hill

	idx *index
}

// TagCount is a tag with its usage frequency across the corpus.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Load reads the hill dataset from a JSON file and indexes it. Every tag
// attached to a record must belong to the ontology; a violation means the
// dataset was produced outside the tagging pipeline and the corpus is
// treated as corrupt.
func Load(path string, ont *tag.Ontology) (*Corpus, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	var hills []hill.Hill
	if err := json.Unmarshal(data, &hills); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	c, err := New(hills, ont)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return c, nil
}

// New indexes an already-parsed set of hill records.
func New(hills []hill.Hill, ont *tag.Ontology) (*Corpus, error) {
	if len(hills) == 0 {
		return nil, fmt.Errorf("%w: empty dataset", domain.ErrCorpusUnavailable)
	}

	c := &Corpus{
		byID:  make(map[int64]*hill.Hill, len(hills)),
		byTag: make(map[string][]*hill.Hill),
	}

	for i := range hills {
		h := &hills[i]
		if h.ID <= 0 {
			return nil, fmt.Errorf("%w: record %q has invalid id %d", domain.ErrCorpusUnavailable, h.Name, h.ID)
		}
		if h.Name == "" {
			return nil, fmt.Errorf("%w: record id %d has no name", domain.ErrCorpusUnavailable, h.ID)
		}
		if _, dup := c.byID[h.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", domain.ErrCorpusUnavailable, h.ID)
		}
		if h.Slug == "" {
			h.Slug = slugify(h.Name)
		}
		for _, t := range h.Tags {
			if !ont.Contains(t) {
				return nil, fmt.Errorf("%w: record %d carries unknown tag %q", domain.ErrCorpusUnavailable, h.ID, t)
			}
		}
		sort.Strings(h.Tags)

		if !h.HasCoords && (h.Lat != 0 || h.Lon != 0) {
			h.HasCoords = true
		}
		if h.HasCoords && !geo.Valid(h.Lat, h.Lon) {
			return nil, fmt.Errorf("%w: record %d has invalid coordinates (%f, %f)",
				domain.ErrCorpusUnavailable, h.ID, h.Lat, h.Lon)
		}

		c.byID[h.ID] = h
		c.hills = append(c.hills, h)
		for _, t := range h.Tags {
			c.byTag[t] = append(c.byTag[t], h)
		}
	}

	sort.Slice(c.hills, func(i, j int) bool { return c.hills[i].ID < c.hills[j].ID })

	c.idx = buildIndex(c.hills)
	return c, nil
}

// Size returns the number of records.
func (c *Corpus) Size() int { return len(c.hills) }

// Hills returns all records ordered by ID. Shared slice, read-only.
func (c *Corpus) Hills() []*hill.Hill { return c.hills }

// Get returns a record by ID.
func (c *Corpus) Get(id int64) (*hill.Hill, bool) {
	h, ok := c.byID[id]
	return h, ok
}

// WithTag returns all records carrying the tag, ordered by ID.
func (c *Corpus) WithTag(t string) []*hill.Hill { return c.byTag[t] }

// TagCounts returns usage counts for every tag present in the corpus,
// ordered by count descending then tag ascending.
func (c *Corpus) TagCounts() []TagCount {
	out := make([]TagCount, 0, len(c.byTag))
	for t, hs := range c.byTag {
		out = append(out, TagCount{Tag: t, Count: len(hs)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// TextSearch scores records against already-expanded query terms using the
// inverted index. See index.go for the scoring model.
func (c *Corpus) TextSearch(terms []string) map[int64]float64 {
	return c.idx.textSearch(terms)
}

// FuzzySearch scores records by approximate matching: substring containment
// over the record text, or edit-distance-1 token matches for longer terms.
func (c *Corpus) FuzzySearch(terms []string) map[int64]float64 {
	return c.idx.fuzzySearch(terms)
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
