package normalize

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Santa Catarina", want: "santa catarina"},
		{name: "strips diacritics", input: "Cumbres Foránea", want: "cumbres foranea"},
		{name: "collapses whitespace", input: "  san   pedro  ", want: "san pedro"},
		{name: "punctuation becomes spaces", input: "Centro,Sur./Norte", want: "centro sur norte"},
		{name: "empty input", input: "   ", want: ""},
		{name: "keeps digits", input: "Plaza 2000", want: "plaza 2000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonical(tt.input); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitNumberPrefix(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantNumber int
		wantRest   string
	}{
		{name: "dash separator", input: "12 - Centro", wantNumber: 12, wantRest: "Centro"},
		{name: "space separator", input: "034 Santa Catarina", wantNumber: 34, wantRest: "Santa Catarina"},
		{name: "hash prefix", input: "#7 - Linda Vista", wantNumber: 7, wantRest: "Linda Vista"},
		{name: "no prefix", input: "Santa Catarina", wantNumber: 0, wantRest: "Santa Catarina"},
		{name: "zero is not a store number", input: "0 - Centro", wantNumber: 0, wantRest: "0 - Centro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, rest := SplitNumberPrefix(tt.input)
			if number != tt.wantNumber || rest != tt.wantRest {
				t.Errorf("SplitNumberPrefix(%q) = (%d, %q), want (%d, %q)",
					tt.input, number, rest, tt.wantNumber, tt.wantRest)
			}
		})
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"catarina", "catarina", 0},
		{"catarina", "catarian", 1}, // transposition
		{"centro", "centr", 1},      // deletion
		{"cumbres", "cumbrees", 1},  // insertion
		{"norte", "norta", 1},       // substitution
		{"", "abc", 3},
		{"linda", "vista", 3}, // l>v, n>s, d>t; i and a align
	}

	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		atLeast float64
		below   float64
	}{
		{name: "identical after normalization", a: "SANTA CATARINA", b: "santa catarina", atLeast: 1.0, below: 1.01},
		{name: "single typo stays high", a: "Santa Catarian", b: "Santa Catarina", atLeast: 0.90, below: 1.0},
		{name: "token reorder stays high", a: "Catarina Santa", b: "Santa Catarina", atLeast: 0.95, below: 1.01},
		{name: "unrelated names stay low", a: "Linda Vista", b: "Santa Catarina", atLeast: 0.0, below: 0.5},
		{name: "blank scores zero", a: "", b: "Centro", atLeast: 0.0, below: 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if got < tt.atLeast || got >= tt.below {
				t.Errorf("Similarity(%q, %q) = %.3f, want in [%.2f, %.2f)",
					tt.a, tt.b, got, tt.atLeast, tt.below)
			}
		})
	}
}
