package tag

import (
	"errors"
	"testing"
)

func testOntology(t *testing.T) *Ontology {
	t.Helper()
	ont, err := New(1, map[string][]string{
		"terrain": {"ridge", "scramble", "boggy", "steep"},
		"access":  {"bus", "train"},
		"hazards": {"river_crossing", "exposure"},
		"feat":    {"views", "classic"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ont
}

func TestNew_RejectsDuplicateAcrossCategories(t *testing.T) {
	_, err := New(1, map[string][]string{
		"a": {"ridge"},
		"b": {"ridge"},
	})
	if err == nil {
		t.Fatal("expected error for duplicate tag, got nil")
	}
}

func TestNew_RejectsUnnormalizedTag(t *testing.T) {
	cases := []string{"Ridge", "", " steep"}
	for _, bad := range cases {
		_, err := New(1, map[string][]string{"a": {bad}})
		if err == nil {
			t.Errorf("expected error for tag %q, got nil", bad)
		}
	}
}

func TestOntology_Contains(t *testing.T) {
	ont := testOntology(t)

	if !ont.Contains("ridge") {
		t.Error("expected ridge to be in ontology")
	}
	if ont.Contains("helicopter") {
		t.Error("expected helicopter to be outside ontology")
	}
	if ont.Size() != 10 {
		t.Errorf("expected size 10, got %d", ont.Size())
	}
}

func TestSanitize_SubsetDedupe(t *testing.T) {
	ont := testOntology(t)

	res := ont.Sanitize([]string{"Ridge", "ridge", " bus ", "helicopter", "views"}, 0.7)

	want := []string{"bus", "ridge", "views"}
	if len(res.Tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, res.Tags)
	}
	for i, tg := range want {
		if res.Tags[i] != tg {
			t.Errorf("tag %d: expected %q, got %q", i, tg, res.Tags[i])
		}
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "helicopter" {
		t.Errorf("expected dropped [helicopter], got %v", res.Dropped)
	}
	if res.Flooded {
		t.Error("expected no flood for a small set")
	}
}

func TestSanitize_FloodDiscardsWholeSet(t *testing.T) {
	ont := testOntology(t)

	// 9 of 10 tags — covers most of the vocabulary, carries no signal.
	res := ont.Sanitize([]string{
		"ridge", "scramble", "boggy", "steep", "bus", "train",
		"river_crossing", "exposure", "views",
	}, 0.7)

	if !res.Flooded {
		t.Fatal("expected flooded set to be flagged")
	}
	if res.Tags != nil {
		t.Errorf("expected nil tags after flood, got %v", res.Tags)
	}
}

func TestSanitize_ZeroRatioDisablesFloodCheck(t *testing.T) {
	ont := testOntology(t)
	res := ont.Sanitize(ont.Tags(), 0)
	if res.Flooded {
		t.Error("expected flood check disabled for ratio 0")
	}
	if len(res.Tags) != ont.Size() {
		t.Errorf("expected all %d tags, got %d", ont.Size(), len(res.Tags))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, nil) {
		t.Fatal("unreachable")
	}
}
