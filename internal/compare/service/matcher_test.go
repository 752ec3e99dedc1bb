package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npay-compare/internal/compare/model"
)

func item(hosp, code, name string, price float64) model.Item {
	return model.Item{HospitalID: hosp, Code: code, Name: name, Price: model.PriceFromFloat(price)}
}

func TestMatch_ExactCodeWins(t *testing.T) {
	base := item("H1", "A1", "MRI 진단료", 500000)
	cands := []model.Item{
		item("H2", "Z9", "MRI 진단료", 1), // perfect name, wrong code
		item("H2", "A1", "자기공명영상", 2),
	}
	m, ok := MatchItem(base, cands)
	require.True(t, ok)
	assert.Equal(t, MethodCode, m.Method)
	assert.Equal(t, "A1", m.Item.Code)
	assert.Zero(t, m.Score)
}

func TestMatch_FirstCodeHit(t *testing.T) {
	base := item("H1", "A1", "MRI", 0)
	m, ok := MatchItem(base, []model.Item{item("H2", "A1", "first", 1), item("H2", "A1", "second", 2)})
	require.True(t, ok)
	assert.Equal(t, "first", m.Item.Name)
}

func TestMatch_FuzzyAboveThreshold(t *testing.T) {
	base := item("H1", "A1", "초음파 검사 상복부", 0)
	cands := []model.Item{
		item("H2", "B1", "내시경", 1),
		item("H2", "B2", "초음파 검사 상복부", 2),
	}
	m, ok := MatchItem(base, cands)
	require.True(t, ok)
	assert.Equal(t, MethodFuzzy, m.Method)
	assert.Equal(t, "B2", m.Item.Code)
	assert.GreaterOrEqual(t, m.Score, DefaultThreshold)
}

func TestMatch_FuzzyNeverBelowThreshold(t *testing.T) {
	base := item("H1", "A2", "CT 진단료", 0)
	cands := []model.Item{item("H2", "Z9", "CT진단료", 300000)}
	require.Less(t, CombinedSimilarity(base.Name, cands[0].Name), DefaultThreshold)

	_, ok := MatchItem(base, cands)
	assert.False(t, ok)
}

func TestMatch_TieKeepsFirst(t *testing.T) {
	base := item("H1", "A1", "MRI 진단료", 0)
	cands := []model.Item{
		item("H2", "X1", "mri 진단료", 1),
		item("H2", "X2", "MRI 진단료", 2),
	}
	m, ok := MatchItem(base, cands)
	require.True(t, ok)
	assert.Equal(t, "X1", m.Item.Code)
}

func TestMatch_EmptyCandidates(t *testing.T) {
	_, ok := MatchItem(item("H1", "A1", "MRI", 0), nil)
	assert.False(t, ok)
}

func TestMatcher_CustomThreshold(t *testing.T) {
	loose := Matcher{Threshold: 0.3, Weights: DefaultWeights}
	m, ok := loose.Match(item("H1", "A2", "CT 진단료", 0), []model.Item{item("H2", "Z9", "CT진단료", 1)})
	require.True(t, ok)
	assert.Equal(t, MethodFuzzy, m.Method)
}
