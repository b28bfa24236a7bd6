package viz

import "testing"

func TestLinkWidth(t *testing.T) {
	tests := []struct {
		pubCount int
		want     float64
	}{
		{-3, 1},
		{0, 1},
		{10, 4.5},
		{20, 8},
		{50, 8},
	}
	for _, tt := range tests {
		if got := LinkWidth(tt.pubCount); got != tt.want {
			t.Errorf("LinkWidth(%d) = %v, want %v", tt.pubCount, got, tt.want)
		}
	}
}

func TestLinkWidth_Monotonic(t *testing.T) {
	prev := LinkWidth(0)
	for n := 1; n <= 25; n++ {
		w := LinkWidth(n)
		if w < prev {
			t.Errorf("LinkWidth(%d) = %v < LinkWidth(%d) = %v", n, w, n-1, prev)
		}
		prev = w
	}
}

func TestRankColors(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"A*", ConferenceColor("A*"), "#1E90FF"},
		{"lowercase a", ConferenceColor(" a "), "#228B22"},
		{"B", ConferenceColor("B"), "#FFD700"},
		{"C", ConferenceColor("C"), "#FF8C00"},
		{"unknown conference", ConferenceColor("Unranked"), DefaultColor},
		{"Q1", JournalColor("Q1"), "#1E90FF"},
		{"q4", JournalColor("q4"), "#FF8C00"},
		{"unknown journal", JournalColor(""), DefaultColor},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: color = %s, want %s", tt.name, tt.got, tt.want)
		}
	}
}

func TestBlendColors(t *testing.T) {
	// 30% of the way from A-green toward Q4-orange.
	if got := BlendColors("#228B22", "#FF8C00"); got != "#648B18" {
		t.Errorf("BlendColors() = %s, want #648B18", got)
	}
	if got := BlendColors("#FF8C00", "#228B22"); got != "#648B18" {
		t.Errorf("BlendColors() reversed = %s, want #648B18", got)
	}
	if got := BlendColors("#1E90FF", "#1E90FF"); got != "#1E90FF" {
		t.Errorf("BlendColors(same) = %s, want #1E90FF", got)
	}
	if got := BlendColors("bogus", "#1E90FF"); got != DefaultColor {
		t.Errorf("BlendColors(invalid) = %s, want %s", got, DefaultColor)
	}
}

func TestLinkColor(t *testing.T) {
	tests := []struct {
		name                string
		avgConf, avgJournal string
		selConf, selJournal string
		filterByLink        bool
		want                string
	}{
		{"selected conference in link mode", "C", "Q4", "A*", "", true, "#1E90FF"},
		{"selected journal in link mode", "C", "", "", "Q2", true, "#228B22"},
		{"both selected blend", "", "", "A", "Q4", true, "#648B18"},
		{"node mode uses edge ranks", "C", "", "A*", "", false, "#FF8C00"},
		{"no selection uses edge ranks", "", "Q3", "", "", true, "#FFD700"},
		{"edge ranks blend", "A", "Q4", "", "", false, "#648B18"},
		{"nothing known", "", "", "", "", false, DefaultColor},
	}
	for _, tt := range tests {
		got := LinkColor(tt.avgConf, tt.avgJournal, tt.selConf, tt.selJournal, tt.filterByLink)
		if got != tt.want {
			t.Errorf("%s: LinkColor() = %s, want %s", tt.name, got, tt.want)
		}
	}
}
