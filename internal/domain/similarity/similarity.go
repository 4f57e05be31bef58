// Package similarity provides identifier normalization and the string
// similarity metric used by fuzzy resolution.
package similarity

import (
	"strings"
	"unicode"
)

// Normalize case-folds an identifier, trims surrounding whitespace and
// collapses internal whitespace runs to a single space.
func Normalize(raw string) string {
	folded := strings.ToLower(strings.TrimSpace(raw))
	if !strings.ContainsFunc(folded, unicode.IsSpace) {
		return folded
	}
	return strings.Join(strings.Fields(folded), " ")
}

// Ratio scores how alike two normalized identifiers are, in [0,1].
// It takes the better of an edit-distance ratio and a token-set ratio, so a
// one-letter typo and a reordered multi-token name both score high. Equal
// strings score exactly 1.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	lev := levenshteinRatio(a, b)
	tok := tokenSetRatio(a, b)
	if tok > lev {
		return tok
	}
	return lev
}

// levenshteinRatio is 1 - distance/maxLen over runes.
func levenshteinRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein(ra, rb)
	return 1 - float64(d)/float64(longest)
}

// levenshtein computes edit distance with a two-row matrix.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// tokenSetRatio is the Jaccard ratio over alphanumeric tokens. Identifiers
// like "blaTEM 1" vs "1 blaTEM" compare equal here.
func tokenSetRatio(a, b string) float64 {
	ta := tokens(a)
	tb := tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[tok] = struct{}{}
	}
	return out
}

func minInt(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
