package keywords

import (
	"strings"
	"unicode"
)

// Normalize lowercases text, replaces punctuation other than apostrophes and hyphens with
// spaces and collapses whitespace
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'', r == '-':
			b.WriteRune(r)
		case r == '’':
			b.WriteRune('\'')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Words splits normalized text into words, trimming stray hyphens and apostrophes at word edges
func Words(text string) []string {
	fields := strings.Fields(Normalize(text))
	words := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'-")
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}

// NGrams returns the admissible n-grams of words for every n in [minN, maxN], shortest first.
// An n-gram is admissible when at least ceil(n/2) of its words are meaningful.
func NGrams(words []string, minN, maxN int) []string {
	var grams []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(words); i++ {
			window := words[i : i+n]
			if Admissible(window) {
				grams = append(grams, strings.Join(window, " "))
			}
		}
	}
	return grams
}

// Admissible applies the n-gram admission rule
func Admissible(window []string) bool {
	if len(window) == 0 {
		return false
	}
	meaningful := 0
	for _, w := range window {
		if IsMeaningful(w) {
			meaningful++
		}
	}
	return meaningful >= (len(window)+1)/2
}

func isNumeric(s string) bool {
	hasDigit := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return hasDigit
}
