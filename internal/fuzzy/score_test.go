package fuzzy

import "testing"

func TestScoreExactMatch(t *testing.T) {
	if score := Score("lightning bolt", "lightning bolt"); score != 100 {
		t.Errorf("Expected exact match score 100, got %d", score)
	}
}

func TestScoreSubstring(t *testing.T) {
	score := Score("bolt", "lightning bolt")
	if score < 80 {
		t.Errorf("Expected substring match to score at least 80, got %d", score)
	}
	if score >= 100 {
		t.Errorf("Expected substring match to score below 100, got %d", score)
	}

	// Longer coverage of the target should score higher
	longer := Score("lightning bol", "lightning bolt")
	if longer <= score {
		t.Errorf("Expected longer substring (%d) to beat shorter (%d)", longer, score)
	}
}

func TestScoreTypo(t *testing.T) {
	// One dropped character should still score well
	score := Score("lightnng bolt", "lightning bolt")
	if score < 90 {
		t.Errorf("Expected near-match with one typo to score at least 90, got %d", score)
	}
}

func TestScoreUnrelated(t *testing.T) {
	score := Score("sol ring", "llanowar elves")
	if score >= 70 {
		t.Errorf("Expected unrelated names to score below 70, got %d", score)
	}
}

func TestScoreEmpty(t *testing.T) {
	if score := Score("", "forest"); score != 0 {
		t.Errorf("Expected empty query to score 0, got %d", score)
	}
	if score := Score("forest", ""); score != 0 {
		t.Errorf("Expected empty target to score 0, got %d", score)
	}
	if score := Score("", ""); score != 100 {
		t.Errorf("Expected two empty strings to match exactly, got %d", score)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		s1, s2   string
		expected int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"forest", "forests", 1},
		{"island", "islnad", 2},
	}

	for _, tt := range tests {
		if got := levenshtein(tt.s1, tt.s2); got != tt.expected {
			t.Errorf("levenshtein(%q, %q) = %d, expected %d", tt.s1, tt.s2, got, tt.expected)
		}
	}
}
