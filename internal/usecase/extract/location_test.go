package extract

import "testing"

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"near", "easy hills near Glen Coe", "Glen Coe"},
		{"around", "anything around Torridon?", "Torridon"},
		{"close to", "routes close to Fort William, please", "Fort William"},
		{"starting at", "a ridge starting at Altnafeadh", "Altnafeadh"},
		{"from place", "a walk from Aviemore by train", "Aviemore"},
		{"constraint clause cut", "near Glen Coe under 6 hours", "Glen Coe"},
		{"with clause cut", "near Pitlochry with a scramble", "Pitlochry"},
		{"and clause cut", "near Braemar and not too boggy", "Braemar"},
		{"the prefix stripped", "near the Cairngorms", "Cairngorms"},
		{"punctuation ends phrase", "near Crianlarich. Nothing serious.", "Crianlarich"},
		{"numeric from is not a place", "from 10 to 15 km", ""},
		{"no location", "a fine airy ridge with views", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLocation(tt.message); got != tt.want {
				t.Errorf("ParseLocation(%q) = %q, expected %q", tt.message, got, tt.want)
			}
		})
	}
}
