package structure

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	decimalToken = regexp.MustCompile(`^\(?\d+(?:[.\-]\d+)*[.):\-–—]*$`)
	letterToken  = regexp.MustCompile(`^\(?[a-z](?:(?:\.\d+)+[.):]?|[.):]+)$`)
	romanToken   = regexp.MustCompile(`^\(?([ivxlcdm]+)[.):]+$`)
	romanNumeral = regexp.MustCompile(`^m{0,3}(?:cm|cd|d?c{0,3})(?:xc|xl|l?x{0,3})(?:ix|iv|v?i{0,3})$`)
	dashToken    = regexp.MustCompile(`^[.:\-–—]+$`)
)

// Normalize canonicalizes text for comparison. It folds case and diacritics,
// drops leading numbering tokens, turns punctuation into spaces and collapses
// whitespace. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	s := fold(text)

	tokens := strings.Fields(s)
	for len(tokens) > 1 && isNumberingToken(tokens[0]) {
		tokens = tokens[1:]
	}
	s = strings.Join(tokens, " ")

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
			return r
		}
		return ' '
	}, s)

	tokens = strings.Fields(s)
	for len(tokens) > 1 && isDigits(tokens[0]) {
		tokens = tokens[1:]
	}
	return strings.Join(tokens, " ")
}

// fold applies Unicode case folding and strips nonspacing marks.
// Transformers carry state, so a fresh chain is built per call.
func fold(s string) string {
	s = cases.Fold().String(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// isNumberingToken reports whether a folded token is a section number such as
// "3.2.", "iv.", "a)" or a dangling separator.
func isNumberingToken(tok string) bool {
	if decimalToken.MatchString(tok) || letterToken.MatchString(tok) || dashToken.MatchString(tok) {
		return true
	}
	if m := romanToken.FindStringSubmatch(tok); m != nil {
		return romanNumeral.MatchString(m[1])
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// hasTokenPrefix reports whether normalized text starts with a normalized
// prefix on a token boundary.
func hasTokenPrefix(text, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return false
	}
	return len(text) == len(prefix) || text[len(prefix)] == ' '
}
