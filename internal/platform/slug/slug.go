package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen bounds slugs used in file names.
const MaxLen = 60

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make lowercases input, folds accents and joins words with dashes.
func Make(input string) string {
	folded, _, err := transform.String(foldAccents, input)
	if err != nil {
		folded = input
	}
	s := strings.ToLower(strings.TrimSpace(folded))
	s = nonAlphaNum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLen {
		s = strings.TrimRight(s[:MaxLen], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
