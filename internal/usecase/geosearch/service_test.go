package geosearch

import (
	"context"
	"errors"
	"testing"

	"github.com/hillwalk/munroquery/internal/domain"
	"github.com/hillwalk/munroquery/internal/domain/geo"
	"github.com/hillwalk/munroquery/internal/domain/hill"
	"github.com/hillwalk/munroquery/internal/domain/intent"
	"github.com/hillwalk/munroquery/internal/domain/search"
)

// --- Mocks ---

type mockGeocoder struct {
	point geo.Point
	err   error
}

func (m *mockGeocoder) Geocode(_ context.Context, _ string) (geo.Point, error) {
	return m.point, m.err
}

type mockCorpus struct {
	hills []*hill.Hill
}

func (m *mockCorpus) Hills() []*hill.Hill { return m.hills }

type mockLexical struct {
	result *search.Result
	got    *intent.Intent
}

func (m *mockLexical) Search(_ context.Context, in *intent.Intent) *search.Result {
	m.got = in
	if m.result != nil {
		return m.result
	}
	return &search.Result{Trace: search.Trace{Mode: search.ModeNone, Params: map[string]any{}}}
}

// glenCoe is the reference point for the fixtures below.
var glenCoe = geo.Point{Lat: 56.666, Lon: -5.101}

func testHills() []*hill.Hill {
	return []*hill.Hill{
		// ~2 km from Glen Coe.
		{ID: 1, Name: "Pap of Glencoe", TimeHours: 3.5, Tags: []string{"steep"},
			Lat: 56.687, Lon: -5.075, HasCoords: true},
		// ~4 km away, carries the wanted tag.
		{ID: 2, Name: "Bidean nam Bian", TimeHours: 7, Tags: []string{"ridge"},
			Lat: 56.662, Lon: -5.029, HasCoords: true},
		// ~13 km away.
		{ID: 3, Name: "Buachaille Etive Mor", TimeHours: 5.5, Tags: []string{"ridge"},
			Lat: 56.646, Lon: -4.901, HasCoords: true},
		// No coordinates: cannot be distance-ranked.
		{ID: 4, Name: "Mystery Hill", TimeHours: 2, Tags: []string{"ridge"}},
	}
}

func testIntent(mut func(*intent.Intent)) *intent.Intent {
	in := &intent.Intent{Location: "Glen Coe", Limit: 8}
	if mut != nil {
		mut(in)
	}
	return in
}

func TestSearch_DistanceOrder(t *testing.T) {
	svc := New(&mockGeocoder{point: glenCoe}, &mockCorpus{hills: testHills()}, &mockLexical{}, Options{})

	res := svc.Search(context.Background(), testIntent(nil))

	if res.Trace.Mode != search.ModeLocation {
		t.Fatalf("expected location mode, got %s", res.Trace.Mode)
	}
	if len(res.Matches) != 3 {
		t.Fatalf("expected 3 ranked records (no coords excluded), got %d", len(res.Matches))
	}
	wantOrder := []int64{1, 2, 3}
	for i, id := range wantOrder {
		if res.Matches[i].Hill.ID != id {
			t.Errorf("position %d: expected id %d, got %d", i, id, res.Matches[i].Hill.ID)
		}
	}
	for i := 1; i < len(res.Matches); i++ {
		if res.Matches[i].DistanceKM < res.Matches[i-1].DistanceKM {
			t.Errorf("distances not ascending at %d", i)
		}
	}
}

func TestSearch_HardBoundsStayHard(t *testing.T) {
	svc := New(&mockGeocoder{point: glenCoe}, &mockCorpus{hills: testHills()}, &mockLexical{}, Options{})
	six := 6.0

	res := svc.Search(context.Background(), testIntent(func(in *intent.Intent) {
		in.TimeMaxH = &six
	}))

	for _, m := range res.Matches {
		if m.Hill.TimeHours > six {
			t.Errorf("record %d violates the time bound", m.Hill.ID)
		}
	}
	if len(res.Matches) != 2 {
		t.Errorf("expected records 1 and 3, got %d matches", len(res.Matches))
	}
}

func TestSearch_IncludeTagsAreSoft(t *testing.T) {
	svc := New(&mockGeocoder{point: glenCoe}, &mockCorpus{hills: testHills()}, &mockLexical{}, Options{NearBandKM: 5})

	res := svc.Search(context.Background(), testIntent(func(in *intent.Intent) {
		in.IncludeTags = []string{"ridge"}
	}))

	// Record 1 lacks the tag but stays in the result (soft), while record 2
	// matches the tag inside the near band and sorts first.
	if len(res.Matches) != 3 {
		t.Fatalf("expected 3 matches (include tags must not filter), got %d", len(res.Matches))
	}
	if res.Matches[0].Hill.ID != 2 {
		t.Errorf("expected tag-matching record 2 boosted to front, got %d", res.Matches[0].Hill.ID)
	}
	if res.Matches[1].Hill.ID != 1 {
		t.Errorf("expected record 1 second, got %d", res.Matches[1].Hill.ID)
	}
}

func TestSearch_ExcludeTagsStayHard(t *testing.T) {
	svc := New(&mockGeocoder{point: glenCoe}, &mockCorpus{hills: testHills()}, &mockLexical{}, Options{})

	res := svc.Search(context.Background(), testIntent(func(in *intent.Intent) {
		in.ExcludeTags = []string{"ridge"}
	}))

	if len(res.Matches) != 1 || res.Matches[0].Hill.ID != 1 {
		t.Errorf("expected only record 1, got %+v", res.Matches)
	}
}

func TestSearch_GeocodeFailureFallsBack(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not found", domain.ErrLocationNotFound},
		{"upstream error", errors.New("timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := &mockLexical{}
			svc := New(&mockGeocoder{err: tt.err}, &mockCorpus{hills: testHills()}, fallback, Options{})

			res := svc.Search(context.Background(), testIntent(func(in *intent.Intent) {
				in.Query = "ridges"
			}))

			if !res.Trace.Fallback {
				t.Error("expected fallback flag in trace")
			}
			if res.Trace.Params["unresolved_location"] != "Glen Coe" {
				t.Errorf("expected unresolved location in params, got %v", res.Trace.Params)
			}
			if fallback.got == nil {
				t.Fatal("expected the lexical fallback to run")
			}
			if fallback.got.HasLocation() {
				t.Error("expected location stripped before fallback")
			}
		})
	}
}

func TestSearch_LimitApplied(t *testing.T) {
	svc := New(&mockGeocoder{point: glenCoe}, &mockCorpus{hills: testHills()}, &mockLexical{}, Options{})

	res := svc.Search(context.Background(), testIntent(func(in *intent.Intent) {
		in.Limit = 2
	}))

	if len(res.Matches) != 2 {
		t.Errorf("expected 2 matches, got %d", len(res.Matches))
	}
	if total, _ := res.Trace.Params["total"].(int); total != 3 {
		t.Errorf("expected total 3, got %v", res.Trace.Params["total"])
	}
}
