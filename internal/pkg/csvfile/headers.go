package csvfile

import (
	"math"
	"strconv"
	"strings"

	"github.com/xrash/smetrics"

	"onegov.dev/electionday/internal/pkg/textutil"
)

// NormalizeHeader makes a header value as uniform as possible: it is
// trimmed, lowercased, transliterated and inner whitespace is collapsed.
func NormalizeHeader(header string) string {
	header = strings.TrimSpace(header)
	header = strings.ToLower(header)
	header = textutil.Transliterate(header)
	return textutil.CollapseWhitespace(header)
}

// AsValidIdentifier turns a header into the key used to address a row value.
// For example "01.ALG Junge" becomes "alg_junge".
func AsValidIdentifier(value string) string {
	result := NormalizeHeader(value)
	for _, invalid := range "- .%/,;()" {
		result = strings.ReplaceAll(result, string(invalid), "_")
	}
	return strings.TrimLeft(result, "_0123456789")
}

func distance(a, b string) int {
	return smetrics.WagnerFischer(a, b, 1, 1, 1)
}

// MatchHeaders matches the normalized headers against the expected ones
// using the Levenshtein distance. The allowed distance is derived from the
// input so that e.g. [first, second] never matches [first, third].
//
// It returns the headers in order of appearance, matched ones replaced by
// their expected name. Extra headers are kept as they are.
func MatchHeaders(headers, expected []string) ([]string, error) {
	seen := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		if _, ok := seen[h]; ok {
			return nil, ErrDuplicateColumns
		}
		seen[h] = struct{}{}
	}

	sane := math.MaxInt
	if len(headers) > 1 {
		sane = minInt(sane, minPairDistance(headers))
	}
	if len(expected) > 1 {
		sane = minInt(sane, minPairDistance(expected))
	}
	for _, c := range expected {
		sane = minInt(sane, len(c))
	}

	mapping := make(map[string]string, len(expected))
	var (
		missing   []string
		ambiguous bool
	)

	for _, column := range expected {
		normalized := NormalizeHeader(column)

		closest := math.MaxInt
		var matches []string
		for _, h := range headers {
			d := distance(normalized, h)
			switch {
			case d < closest:
				closest = d
				matches = []string{h}
			case d == closest:
				matches = append(matches, h)
			}
		}

		if closest >= sane {
			missing = append(missing, column)
			continue
		}
		if len(matches) > 1 {
			ambiguous = true
			continue
		}
		mapping[matches[0]] = column
	}

	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	if ambiguous {
		return nil, ErrAmbiguousColumns
	}

	out := make([]string, len(headers))
	for i, h := range headers {
		if m, ok := mapping[h]; ok {
			out[i] = m
		} else {
			out[i] = h
		}
	}
	return out, nil
}

func minPairDistance(values []string) int {
	best := math.MaxInt
	for i := range values {
		for j := range values {
			if i != j {
				best = minInt(best, distance(values[i], values[j]))
			}
		}
	}
	return best
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// renameDuplicates appends _1, _2, ... to repeated header names.
func renameDuplicates(headers []string) {
	counts := make(map[string]int, len(headers))
	for i, h := range headers {
		n := counts[h]
		counts[h] = n + 1
		if n > 0 {
			headers[i] = h + "_" + strconv.Itoa(n)
		}
	}
}
