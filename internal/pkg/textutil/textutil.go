// Package textutil holds the string normalization helpers shared by the csv
// header matching and the page tree.
package textutil

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	unwantedURLChars = regexp.MustCompile("[\\.\\(\\)\\\\/\\s<>\\[\\]{},:;?!@&=+$#%|\\*\"'`]+")
	doubleDash       = regexp.MustCompile(`-+`)
	numberSuffix     = regexp.MustCompile(`-([0-9]+)$`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// letters that do not decompose into a base letter plus a combining mark
var ligatures = strings.NewReplacer(
	"ß", "ss",
	"ẞ", "SS",
	"æ", "ae",
	"Æ", "AE",
	"œ", "oe",
	"Œ", "OE",
	"ø", "o",
	"Ø", "O",
	"đ", "d",
	"Đ", "D",
	"ł", "l",
	"Ł", "L",
	"þ", "th",
	"Þ", "TH",
	"’", "'",
	"‘", "'",
	"“", "\"",
	"”", "\"",
	"–", "-",
	"—", "-",
	" ", " ",
)

// Transliterate returns the closest ASCII representation of s. Characters
// without a representation are dropped.
func Transliterate(s string) string {
	s = ligatures.Replace(s)
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}

	var sb strings.Builder
	sb.Grow(len(out))
	for _, r := range out {
		if r <= unicode.MaxASCII {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// NormalizeForURL makes text fit to be used as an url segment: unwanted
// characters become dashes, everything is lowercased and transliterated.
func NormalizeForURL(text string) string {
	text = strings.ReplaceAll(text, "ü", "ue")
	text = strings.ReplaceAll(text, "ä", "ae")
	text = strings.ReplaceAll(text, "ö", "oe")

	clean := strings.ToLower(strings.Trim(Transliterate(text), " "))
	clean = unwantedURLChars.ReplaceAllString(clean, "-")
	clean = doubleDash.ReplaceAllString(clean, "-")
	return strings.Trim(clean, "-")
}

// IncrementName adds a numbered suffix to name, or increments an existing
// one: foo becomes foo-1, foo-1 becomes foo-2.
func IncrementName(name string) string {
	m := numberSuffix.FindStringSubmatchIndex(name)
	if m == nil {
		return name + "-1"
	}
	n, err := strconv.Atoi(name[m[2]:m[3]])
	if err != nil {
		return name + "-1"
	}
	return name[:m[0]] + "-" + strconv.Itoa(n+1)
}

// CollapseWhitespace replaces any run of whitespace with a single space.
func CollapseWhitespace(s string) string {
	return whitespace.ReplaceAllString(s, " ")
}

// IsSorted reports whether items are already in the order a stable sort by
// key would produce.
func IsSorted[T any](items []T, key func(T) string) bool {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return key(items[idx[a]]) < key(items[idx[b]])
	})
	for i, j := range idx {
		if i != j {
			return false
		}
	}
	return true
}
