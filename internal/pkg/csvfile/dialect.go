package csvfile

import (
	"strings"
)

// ValidDelimiters are the only delimiters the sniffer accepts.
const ValidDelimiters = ",;\t"

const sniffSampleSize = 1024

// SniffDelimiter guesses the delimiter of the given csv text. It looks at the
// first kilobyte first and falls back to the header line alone, which tends
// to contain fewer special cases.
func SniffDelimiter(text string) (rune, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyFile
	}

	sample := text
	truncated := false
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
		truncated = true
	}

	if d, ok := sniffLines(splitLines(sample, truncated)); ok {
		return d, nil
	}

	header := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		header = text[:i]
	}
	if d, ok := sniffLines(splitLines(header, false)); ok {
		return d, nil
	}

	return 0, ErrInvalidFormat
}

func splitLines(s string, dropLast bool) []string {
	lines := strings.Split(s, "\n")
	if dropLast && len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// minConsistency is the share of lines that must agree on the delimiter
// count. Exports often end with a ragged trailer line.
const minConsistency = 0.9

// sniffLines picks the delimiter whose most frequent non-zero count per line
// is shared by at least minConsistency of the lines. The most consistent
// delimiter wins, then the one occurring most often, then the order of
// ValidDelimiters.
func sniffLines(lines []string) (rune, bool) {
	if len(lines) == 0 {
		return 0, false
	}

	var (
		best            rune
		bestCount       int
		bestConsistency float64
	)
	for _, d := range ValidDelimiters {
		freq := map[int]int{}
		for _, l := range lines {
			freq[countOutsideQuotes(l, d)]++
		}

		count, agree := 0, 0
		for c, n := range freq {
			if c > 0 && (n > agree || n == agree && c > count) {
				count, agree = c, n
			}
		}
		if count == 0 {
			continue
		}

		consistency := float64(agree) / float64(len(lines))
		if consistency < minConsistency {
			continue
		}
		if consistency > bestConsistency || consistency == bestConsistency && count > bestCount {
			best, bestCount, bestConsistency = d, count, consistency
		}
	}

	return best, bestCount > 0
}

func countOutsideQuotes(line string, d rune) int {
	n := 0
	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}
