package extract

import (
	"reflect"
	"testing"

	"github.com/hillwalk/munroquery/internal/domain/tag"
)

func tagsOntology(t *testing.T) *tag.Ontology {
	t.Helper()
	ont, err := tag.New(1, map[string][]string{
		"terrain": {"ridge", "scramble", "boggy", "airy", "knifeedge"},
		"access":  {"bus", "train", "bike"},
		"hazards": {"river_crossing"},
		"feat":    {"views"},
	})
	if err != nil {
		t.Fatalf("ontology: %v", err)
	}
	return ont
}

func TestMatchTags(t *testing.T) {
	ont := tagsOntology(t)

	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{"direct hits", "an airy ridge with views", []string{"airy", "ridge", "views"}},
		{"aliases", "reachable by rail, not too exposed", []string{"train", "airy"}},
		{"ford alias", "no ford on the way out", []string{"river_crossing"}},
		{"dedupe", "ridge after ridge", []string{"ridge"}},
		{"unknown words ignored", "a grand day out", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchTags(tt.message, ont)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MatchTags(%q) = %v, expected %v", tt.message, got, tt.want)
			}
		})
	}
}
