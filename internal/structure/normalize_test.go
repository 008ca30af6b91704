package structure

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"collapse whitespace", "  Hello   World  ", "hello world"},
		{"decimal numbering", "3.2 Implementation Challenges:", "implementation challenges"},
		{"trailing dot numbering", "1. Overview", "overview"},
		{"roman numbering", "IV. Results", "results"},
		{"letter numbering", "A.1 Scope", "scope"},
		{"letter with dot", "B. Glossary", "glossary"},
		{"article is kept", "A Tale of Two Cities", "a tale of two cities"},
		{"diacritics", "Café Über", "cafe uber"},
		{"punctuation", "Risks, Issues & Mitigations!", "risks issues mitigations"},
		{"dash separator", "1 – Breakdown", "breakdown"},
		{"korean", "목차", "목차"},
		{"korean numbered", "1.2 구현 과제", "구현 과제"},
		{"lone number kept", "12", "12"},
		{"caption number kept", "Figure 1 – Breakdown", "figure 1 breakdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"1. Overview",
		"3.3 Implementation Challenges and Risks",
		"  IV.   Results ",
		"(a) Notes",
		"A.1.2 Appendix Tables",
		"1 2 3",
		"Figure 1 – Breakdown",
		"Ünïcödé Tëxt",
		"제 3 장 결론",
		"...",
		"2024",
		"i. ii. iii",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestHasTokenPrefix(t *testing.T) {
	tests := []struct {
		text, prefix string
		expected     bool
	}{
		{"figure 1", "figure", true},
		{"figure", "figure", true},
		{"figures", "figure", false},
		{"table of contents", "table", true},
		{"anything", "", false},
	}
	for _, tt := range tests {
		if got := hasTokenPrefix(tt.text, tt.prefix); got != tt.expected {
			t.Errorf("hasTokenPrefix(%q, %q) = %v, want %v", tt.text, tt.prefix, got, tt.expected)
		}
	}
}
