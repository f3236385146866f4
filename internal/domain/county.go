package domain

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// countySuffixes are dropped from the end of a folded name to form its key.
var countySuffixes = []string{" county", " parish"}

// NormalizeCountyName returns the county key for a raw place name.
func NormalizeCountyName(raw string) string {
	key := foldName(raw)
	for _, suffix := range countySuffixes {
		if strings.HasSuffix(key, suffix) {
			return strings.TrimSuffix(key, suffix)
		}
	}
	return key
}

// CountyVariants returns the keys tried, in order, when looking up a raw
// display name: the normalized key, the key with a trailing " county"
// removed, and that form with " county" re-appended. Duplicates are dropped.
func CountyVariants(raw string) []string {
	key := NormalizeCountyName(raw)
	if key == "" {
		return nil
	}
	stripped := strings.TrimSuffix(key, " county")

	variants := make([]string, 0, 3)
	for _, v := range []string{key, stripped, stripped + " county"} {
		if !slices.Contains(variants, v) {
			variants = append(variants, v)
		}
	}
	return variants
}

// DisplayName trims a raw county name and drops a trailing "County" or
// "Parish" in any case, keeping the source's capitalization otherwise.
func DisplayName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	lower := strings.ToLower(name)
	for _, suffix := range countySuffixes {
		if strings.HasSuffix(lower, suffix) {
			return name[:len(name)-len(suffix)]
		}
	}
	return name
}

// foldName lower-cases, removes diacritics and punctuation, turns hyphens
// into spaces, and collapses whitespace: "Doña  Ana" → "dona ana".
func foldName(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, raw)
	if err != nil {
		folded = raw
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
