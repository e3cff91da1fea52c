package munroquery

import (
	"context"
	"errors"
	"testing"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_LoadsBundledDataset(t *testing.T) {
	c := newTestClient(t)

	routes := c.Routes(context.Background())
	if len(routes) == 0 {
		t.Fatal("expected a non-empty corpus")
	}
	for _, r := range routes {
		if r.ID <= 0 || r.Name == "" {
			t.Errorf("incomplete route: %+v", r)
		}
	}
}

func TestNew_MissingDataset(t *testing.T) {
	if _, err := New(WithDataset("no/such/file.json")); err == nil {
		t.Fatal("expected error for a missing dataset")
	}
}

func TestAsk_RequiresMessage(t *testing.T) {
	c := newTestClient(t)

	if _, err := c.Ask(context.Background(), ""); err == nil {
		t.Fatal("expected error for an empty message")
	}
}

func TestAsk_Deterministic(t *testing.T) {
	c := newTestClient(t)

	a, err := c.Ask(context.Background(), "a ridge scramble")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if a.Text == "" {
		t.Error("expected a non-empty answer")
	}
	if len(a.Routes) == 0 {
		t.Fatal("expected matching routes")
	}
	for _, r := range a.Routes {
		if !hasTag(r.Tags, "ridge") || !hasTag(r.Tags, "scramble") {
			t.Errorf("route %q missing a required tag: %v", r.Name, r.Tags)
		}
	}
}

func TestAsk_NumericPhraseHonored(t *testing.T) {
	c := newTestClient(t)

	a, err := c.Ask(context.Background(), "a ridge scramble under 7 hours")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	for _, r := range a.Routes {
		full, err := c.Route(context.Background(), r.ID)
		if err != nil {
			t.Fatalf("Route(%d): %v", r.ID, err)
		}
		if full.TimeHours > 7 {
			t.Errorf("route %q takes %.1f h, over the asked bound", full.Name, full.TimeHours)
		}
	}
}

func TestSearch_StructuredFilters(t *testing.T) {
	c := newTestClient(t)
	six := 6.0

	a, err := c.Search(context.Background(), Query{
		IncludeTags: []string{"quiet"},
		TimeMaxH:    &six,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(a.Routes) == 0 {
		t.Fatal("expected matching routes")
	}
	for _, r := range a.Routes {
		full, _ := c.Route(context.Background(), r.ID)
		if !hasTag(full.Tags, "quiet") {
			t.Errorf("route %q missing the quiet tag", full.Name)
		}
		if full.TimeHours > six {
			t.Errorf("route %q takes %.1f h", full.Name, full.TimeHours)
		}
	}
}

func TestSearch_UnknownTagDroppedWithWarning(t *testing.T) {
	c := newTestClient(t)

	a, err := c.Search(context.Background(), Query{IncludeTags: []string{"helicopter", "ridge"}})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(a.Warnings) == 0 {
		t.Error("expected a warning for the unknown tag")
	}
	if len(a.Routes) == 0 {
		t.Error("expected the known tag to still match routes")
	}
}

func TestSearch_DeterministicAcrossRuns(t *testing.T) {
	c := newTestClient(t)

	first, err := c.Search(context.Background(), Query{IncludeTags: []string{"views"}})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.Search(context.Background(), Query{IncludeTags: []string{"views"}})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(again.Routes) != len(first.Routes) {
			t.Fatalf("run %d: %d routes, expected %d", i, len(again.Routes), len(first.Routes))
		}
		for j := range again.Routes {
			if again.Routes[j].ID != first.Routes[j].ID {
				t.Fatalf("run %d: order differs at %d", i, j)
			}
		}
	}
}

func TestRoute_NotFound(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Route(context.Background(), 99999)
	if !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("expected ErrRouteNotFound, got %v", err)
	}
}

func TestTags_OrderedByUsage(t *testing.T) {
	c := newTestClient(t)

	counts := c.Tags(context.Background())
	if len(counts) == 0 {
		t.Fatal("expected tag counts")
	}
	for i := 1; i < len(counts); i++ {
		if counts[i].Count > counts[i-1].Count {
			t.Fatalf("counts not descending at %d: %+v", i, counts)
		}
	}
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
