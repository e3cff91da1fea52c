package intent

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hillwalk/munroquery/internal/domain/tag"
)

func testOntology(t *testing.T) *tag.Ontology {
	t.Helper()
	ont, err := tag.New(1, map[string][]string{
		"terrain": {"ridge", "scramble", "boggy"},
		"access":  {"bus", "train"},
	})
	if err != nil {
		t.Fatalf("ontology: %v", err)
	}
	return ont
}

func TestNormalize_DropsUnknownTagsWithWarning(t *testing.T) {
	in := &Intent{IncludeTags: []string{"ridge", "helicopter"}}
	in.Normalize(testOntology(t), 0.9, 8, 20)

	if !reflect.DeepEqual(in.IncludeTags, []string{"ridge"}) {
		t.Errorf("expected [ridge], got %v", in.IncludeTags)
	}
	if len(in.Warnings) != 1 || !strings.Contains(in.Warnings[0], "helicopter") {
		t.Errorf("expected a warning naming the dropped tag, got %v", in.Warnings)
	}
}

func TestNormalize_IncludeWinsOverlap(t *testing.T) {
	in := &Intent{
		IncludeTags: []string{"ridge", "bus"},
		ExcludeTags: []string{"ridge", "boggy"},
	}
	in.Normalize(testOntology(t), 0.9, 8, 20)

	if !reflect.DeepEqual(in.IncludeTags, []string{"bus", "ridge"}) {
		t.Errorf("expected include [bus ridge], got %v", in.IncludeTags)
	}
	if !reflect.DeepEqual(in.ExcludeTags, []string{"boggy"}) {
		t.Errorf("expected exclude [boggy], got %v", in.ExcludeTags)
	}
}

func TestNormalize_GradeFloor(t *testing.T) {
	one := 1
	in := &Intent{GradeMax: &one}
	in.Normalize(testOntology(t), 0.9, 8, 20)

	if in.GradeMax == nil || *in.GradeMax != 3 {
		t.Errorf("expected grade_max floored to 3, got %v", in.GradeMax)
	}
}

func TestNormalize_LimitClamp(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero takes default", 0, 8},
		{"negative takes default", -4, 8},
		{"above max clamps", 100, 20},
		{"in range kept", 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &Intent{Limit: tt.limit}
			in.Normalize(testOntology(t), 0.9, 8, 20)
			if in.Limit != tt.want {
				t.Errorf("expected limit %d, got %d", tt.want, in.Limit)
			}
		})
	}
}

func TestNormalize_FloodedSetDiscarded(t *testing.T) {
	in := &Intent{IncludeTags: []string{"ridge", "scramble", "boggy", "bus", "train"}}
	in.Normalize(testOntology(t), 0.7, 8, 20)

	if in.IncludeTags != nil {
		t.Errorf("expected flooded include set discarded, got %v", in.IncludeTags)
	}
	if len(in.Warnings) == 0 {
		t.Error("expected a flood warning")
	}
}

func TestHasLocation(t *testing.T) {
	in := &Intent{}
	if in.HasLocation() {
		t.Error("expected no location")
	}
	in.Location = "Glen Coe"
	if !in.HasLocation() {
		t.Error("expected location")
	}
}
