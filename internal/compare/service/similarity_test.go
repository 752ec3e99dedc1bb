package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("", ""))
	assert.Equal(t, 3, Levenshtein("", "abc"))
	assert.Equal(t, 3, Levenshtein("kitten", "sitting"))
	// no transposition discount
	assert.Equal(t, 2, Levenshtein("ab", "ba"))
	// runes, not bytes
	assert.Equal(t, 1, Levenshtein("진단료", "진찰료"))
}

func TestEditSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, EditSimilarity("", ""))
	assert.Equal(t, 1.0, EditSimilarity("MRI", "mri"))
	assert.InDelta(t, 5.0/6.0, EditSimilarity("CT 진단료", "CT진단료"), 1e-9)
	assert.Equal(t, 0.0, EditSimilarity("abc", ""))
}

func TestTokenSimilarity(t *testing.T) {
	assert.Equal(t, 0.0, TokenSimilarity("", ""))
	assert.Equal(t, 0.0, TokenSimilarity("   ", "\t"))
	assert.Equal(t, 1.0, TokenSimilarity("MRI 진단료", "mri  진단료"))
	// duplicates collapse: {a,b} vs {a}
	assert.Equal(t, 0.5, TokenSimilarity("a a b", "a"))
	assert.InDelta(t, 1.0/3.0, TokenSimilarity("MRI 진단료", "MRI 검사료"), 1e-9)
}

func TestCombinedSimilarity_Identity(t *testing.T) {
	for _, s := range []string{"MRI 진단료", "CT", "초음파 검사 (상복부)", "a b c a"} {
		assert.InDelta(t, 1.0, CombinedSimilarity(s, s), 1e-12, s)
	}
}

func TestCombinedSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"MRI 진단료", "MRI"},
		{"CT 진단료", "CT진단료"},
		{"초음파 검사", "초음파검사 상복부"},
		{"", "x"},
	}
	for _, p := range pairs {
		assert.InDelta(t, CombinedSimilarity(p[0], p[1]), CombinedSimilarity(p[1], p[0]), 1e-12)
	}
}

func TestCombinedSimilarity_SpacingVariant(t *testing.T) {
	// edit 5/6 * 0.4, no shared token
	assert.InDelta(t, 5.0/6.0*0.4, CombinedSimilarity("CT 진단료", "CT진단료"), 1e-9)
}

func TestWeights_Custom(t *testing.T) {
	w := Weights{Edit: 1, Token: 1}
	assert.InDelta(t, 2.0, w.Score("abc", "ABC"), 1e-12)

	editOnly := Weights{Edit: 1}
	assert.InDelta(t, 5.0/6.0, editOnly.Score("CT 진단료", "CT진단료"), 1e-9)
}
