// Package tag holds the closed route-tag vocabulary and the sanitation
// policy applied wherever tags enter or leave the pipeline.
package tag

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ontology is the fixed vocabulary of valid route tags, grouped by category.
// Immutable after load; safe for concurrent readers.
type Ontology struct {
	version    int
	categories map[string][]string
	members    map[string]struct{}
	sorted     []string
}

type ontologyFile struct {
	Version    int                 `yaml:"version"`
	Categories map[string][]string `yaml:"categories"`
}

// Load reads an ontology from a YAML file.
func Load(path string) (*Ontology, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read ontology %s: %w", path, err)
	}
	var f ontologyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ontology: %w", err)
	}
	return New(f.Version, f.Categories)
}

// New builds an ontology from category → tags. Tags must already be
// normalized (lowercase, no surrounding whitespace).
func New(version int, categories map[string][]string) (*Ontology, error) {
	members := make(map[string]struct{})
	for cat, tags := range categories {
		if len(tags) == 0 {
			return nil, fmt.Errorf("ontology category %q is empty", cat)
		}
		for _, t := range tags {
			if t != strings.ToLower(strings.TrimSpace(t)) || t == "" {
				return nil, fmt.Errorf("ontology tag %q in category %q is not normalized", t, cat)
			}
			if _, dup := members[t]; dup {
				return nil, fmt.Errorf("ontology tag %q appears in more than one category", t)
			}
			members[t] = struct{}{}
		}
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("ontology has no tags")
	}

	sorted := make([]string, 0, len(members))
	for t := range members {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	return &Ontology{
		version:    version,
		categories: categories,
		members:    members,
		sorted:     sorted,
	}, nil
}

// Version returns the ontology file version.
func (o *Ontology) Version() int { return o.version }

// Size returns the number of tags in the vocabulary.
func (o *Ontology) Size() int { return len(o.members) }

// Contains reports whether the tag belongs to the vocabulary.
func (o *Ontology) Contains(t string) bool {
	_, ok := o.members[t]
	return ok
}

// Tags returns all tags in sorted order. The returned slice is shared;
// callers must not modify it.
func (o *Ontology) Tags() []string { return o.sorted }

// Categories returns the category → tags mapping. Shared, read-only.
func (o *Ontology) Categories() map[string][]string { return o.categories }

// SanitizeResult describes the outcome of sanitizing an external tag set.
type SanitizeResult struct {
	Tags    []string // surviving ontology tags, deduplicated, sorted
	Dropped []string // inputs rejected as outside the vocabulary
	Flooded bool     // true when the surviving set was discarded as suspiciously broad
}

// Sanitize normalizes an externally supplied tag collection: lowercase and
// trim, deduplicate, intersect with the vocabulary. When the surviving set
// covers more than floodRatio of the whole vocabulary the source is treated
// as misbehaving and the entire set is discarded (Flooded=true).
func (o *Ontology) Sanitize(raw []string, floodRatio float64) SanitizeResult {
	var res SanitizeResult
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		t := strings.ToLower(strings.TrimSpace(r))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if o.Contains(t) {
			res.Tags = append(res.Tags, t)
		} else {
			res.Dropped = append(res.Dropped, t)
		}
	}
	sort.Strings(res.Tags)

	if floodRatio > 0 && float64(len(res.Tags)) > floodRatio*float64(o.Size()) {
		res.Flooded = true
		res.Tags = nil
	}
	return res
}
