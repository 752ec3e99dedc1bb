package service

import "npay-compare/internal/compare/model"

// DefaultThreshold is the minimum combined similarity for a fuzzy name match.
const DefaultThreshold = 0.8

type Method string

const (
	MethodCode  Method = "code"
	MethodFuzzy Method = "fuzzy"
)

type Match struct {
	Item   model.Item
	Method Method
	Score  float64 // fuzzy only
}

// Matcher finds the counterpart of a reference item in another hospital's list.
type Matcher struct {
	Threshold float64
	Weights   Weights
}

var DefaultMatcher = Matcher{Threshold: DefaultThreshold, Weights: DefaultWeights}

type matchCandidate struct {
	item  *model.Item
	score float64
}

// Match tries an exact code hit first and only falls back to name scoring when
// no candidate carries the same code.
func (m Matcher) Match(base model.Item, candidates []model.Item) (Match, bool) {
	for i := range candidates {
		if candidates[i].Code == base.Code {
			return Match{Item: candidates[i], Method: MethodCode}, true
		}
	}

	best := matchCandidate{}
	for i := range candidates {
		s := m.Weights.Score(base.Name, candidates[i].Name)
		// strict > keeps the first of equal scores
		if s > best.score && s >= m.Threshold {
			best = matchCandidate{item: &candidates[i], score: s}
		}
	}
	if best.item == nil {
		return Match{}, false
	}
	return Match{Item: *best.item, Method: MethodFuzzy, Score: best.score}, true
}

// MatchItem runs DefaultMatcher.
func MatchItem(base model.Item, candidates []model.Item) (Match, bool) {
	return DefaultMatcher.Match(base, candidates)
}
