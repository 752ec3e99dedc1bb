package service

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Weights blends edit-distance similarity and token overlap into one score.
// They are not required to sum to 1; if they don't, scores may leave [0,1].
type Weights struct {
	Edit  float64
	Token float64
}

var DefaultWeights = Weights{Edit: 0.4, Token: 0.6}

// Levenshtein is the classic single-character edit distance (no transposition discount), over runes.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// EditSimilarity: 1 - distance/maxLen, case-insensitive. Two empty strings are identical.
func EditSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	m := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > m {
		m = n
	}
	if m == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(m)
}

// TokenSimilarity is the Jaccard index of the lower-cased whitespace token sets.
// An empty union scores 0.
func TokenSimilarity(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	union := len(sa)
	inter := 0
	for t := range sb {
		if _, ok := sa[t]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	f := strings.Fields(strings.ToLower(s))
	m := make(map[string]struct{}, len(f))
	for _, t := range f {
		m[t] = struct{}{}
	}
	return m
}

func (w Weights) Score(a, b string) float64 {
	return EditSimilarity(a, b)*w.Edit + TokenSimilarity(a, b)*w.Token
}

// CombinedSimilarity scores two item names with the default 0.4/0.6 weights.
func CombinedSimilarity(a, b string) float64 {
	return DefaultWeights.Score(a, b)
}
