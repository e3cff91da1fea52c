package text

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Sgurr a’ Mhaim — 2 Munros, fine scrambling!")
	want := []string{"sgurr", "a'", "mhaim", "2", "munros", "fine", "scrambling"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExpandQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "stopwords stripped",
			query: "routes near the station with a view",
			want:  []string{"routes", "station", "view"},
		},
		{
			name:  "scramble expands",
			query: "easy scramble",
			want:  []string{"easy", "scramble", "scrambling"},
		},
		{
			name:  "airy expands to exposure vocabulary",
			query: "airy ridge",
			want:  []string{"airy", "exposed", "exposure", "ridge"},
		},
		{
			name:  "dedupe preserves first-seen order",
			query: "scramble scrambling scramble",
			want:  []string{"scramble", "scrambling"},
		},
		{
			name:  "empty query",
			query: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandQuery(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestWithinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		max  int
		want bool
	}{
		{"buachaille", "buachaile", 1, true},
		{"liathach", "liathach", 1, true},
		{"nevis", "nevas", 1, true},
		{"nevis", "navas", 1, false},
		{"ben", "benmore", 1, false},
		{"suilven", "suilvan", 1, true},
	}

	for _, tt := range tests {
		if got := WithinDistance(tt.a, tt.b, tt.max); got != tt.want {
			t.Errorf("WithinDistance(%q, %q, %d) = %v, expected %v", tt.a, tt.b, tt.max, got, tt.want)
		}
	}
}
