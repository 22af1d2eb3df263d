// Package scoring turns free-text guesses into points against the track being played.
package scoring

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var parenthesized = regexp.MustCompile(`\(.+\)`)

var punctuation = strings.NewReplacer(func() []string {
	pairs := make([]string, 0, 2*len(asciiPunctuation))
	for _, c := range asciiPunctuation {
		pairs = append(pairs, string(c), "")
	}
	return pairs
}()...)

// Normalize folds decoration out of a title or artist name so that
// "Café (Remix) - 2011 Remaster" and "cafe" compare equal. Letters without
// a decomposition are transliterated, so "Røyksopp" becomes "royksopp".
func Normalize(text string) string {
	s := stripMarks(strings.ToLower(text))
	s = strings.ToLower(unidecode.Unidecode(s))
	if i := strings.Index(s, " - "); i >= 0 {
		s = s[:i]
	}
	s = parenthesized.ReplaceAllString(s, "")
	s = punctuation.Replace(s)
	return strings.TrimSpace(s)
}

// stripMarks removes diacritics. A new transformer is built per call
// because transform.Chain keeps state.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Equal compares two strings after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
