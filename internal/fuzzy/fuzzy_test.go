package fuzzy

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercase", input: "Fever", want: "fever"},
		{name: "punctuation becomes space", input: "fever, headache", want: "fever headache"},
		{name: "collapse whitespace", input: "  joint   pain \t", want: "joint pain"},
		{name: "fullwidth folded", input: "ＦＥＶＥＲ", want: "fever"},
		{name: "only punctuation", input: "?!...", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Process(tt.input); got != tt.want {
				t.Errorf("Process(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		s1   string
		s2   string
		want float64
	}{
		{name: "identical", s1: "cough", s2: "cough", want: 100},
		{name: "both empty", s1: "", s2: "", want: 100},
		{name: "one empty", s1: "cough", s2: "", want: 0},
		{name: "disjoint", s1: "abc", s2: "xyz", want: 0},
		// lcs("headache","headahce") = 7
		{name: "transposition", s1: "headache", s2: "headahce", want: 87.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.s1, tt.s2); !almostEqual(got, tt.want) {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.s1, tt.s2, got, tt.want)
			}
		})
	}
}

func TestPartialRatio(t *testing.T) {
	if got := PartialRatio("fever", "i have a high fever today"); got != 100 {
		t.Errorf("PartialRatio() substring = %v, want 100", got)
	}
	if got := PartialRatio("i have a high fever today", "fever"); got != 100 {
		t.Errorf("PartialRatio() should be symmetric for substrings, got %v", got)
	}
	if got := PartialRatio("", ""); got != 100 {
		t.Errorf("PartialRatio() of two empty strings = %v, want 100", got)
	}
	if got := PartialRatio("", "fever"); got != 0 {
		t.Errorf("PartialRatio() with empty side = %v, want 0", got)
	}
	if got := PartialRatio("fevre", "high fever"); got >= 100 || got < 60 {
		t.Errorf("PartialRatio() with typo = %v, want in [60,100)", got)
	}
}

func TestTokenSortRatio_Reordering(t *testing.T) {
	if got := TokenSortRatio("headache fever", "fever headache"); got != 100 {
		t.Errorf("TokenSortRatio() = %v, want 100", got)
	}
}

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		s1   string
		s2   string
		want float64
	}{
		{name: "subset scores 100", s1: "fever headache", s2: "severe fever and headache", want: 100},
		{name: "empty side", s1: "", s2: "fever", want: 0},
		{name: "disjoint", s1: "abc", s2: "xyz", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenSetRatio(tt.s1, tt.s2); !almostEqual(got, tt.want) {
				t.Errorf("TokenSetRatio(%q, %q) = %v, want %v", tt.s1, tt.s2, got, tt.want)
			}
		})
	}
}

func TestPartialTokenRatio_SharedWord(t *testing.T) {
	if got := PartialTokenRatio("i have a headache and fever", "fever headache"); got != 100 {
		t.Errorf("PartialTokenRatio() = %v, want 100", got)
	}
}

func TestWRatio(t *testing.T) {
	tests := []struct {
		name    string
		s1      string
		s2      string
		wantMin float64
		wantMax float64
	}{
		{name: "exact", s1: "cough", s2: "cough", wantMin: 100, wantMax: 100},
		{name: "empty query", s1: "", s2: "cough", wantMin: 0, wantMax: 0},
		{name: "reordered", s1: "headache fever", s2: "fever headache", wantMin: 95, wantMax: 95},
		// long sentence sharing a word: 100 * 0.95 * 0.9
		{name: "free phrasing", s1: "i have a headache and fever", s2: "fever headache", wantMin: 85.5, wantMax: 85.5},
		{name: "typo", s1: "headahce", s2: "headache", wantMin: 80, wantMax: 100},
		{name: "nonsense", s1: "xyzzyzzqpl nonsense", s2: "fever headache", wantMin: 0, wantMax: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WRatio(tt.s1, tt.s2)
			if got < tt.wantMin-1e-9 || got > tt.wantMax+1e-9 {
				t.Errorf("WRatio(%q, %q) = %v, want in [%v, %v]", tt.s1, tt.s2, got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestWRatio_Bounds(t *testing.T) {
	inputs := []string{"a", "cough", "fever headache", "joint pain in the knees", "zzz", "ab ab ab"}
	for _, s1 := range inputs {
		for _, s2 := range inputs {
			got := WRatio(s1, s2)
			if got < 0 || got > 100 {
				t.Errorf("WRatio(%q, %q) = %v out of [0,100]", s1, s2, got)
			}
		}
	}
}

func TestPartialTokenRatio_IgnoresRepeatedWords(t *testing.T) {
	once := PartialTokenRatio("itch", "itchy")
	twice := PartialTokenRatio("itch itch", "itchy")
	if once != 100 || twice != once {
		t.Errorf("PartialTokenRatio() = %v with a repeated word, %v without, want both 100", twice, once)
	}
}
