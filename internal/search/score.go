package search

import (
	"math"
	"strings"

	"github.com/xrash/smetrics"
)

const (
	// ExactMatchScore is given to titles equal to the query, ignoring case.
	ExactMatchScore = math.MaxFloat64

	// DefaultSensitivity is the similarity a title must exceed before the
	// fuzzy score counts.
	DefaultSensitivity = 0.95

	substringBonus = 50
	wordBonus      = 5

	jaroWinklerBoost  = 0.7
	jaroWinklerPrefix = 4
)

// titleMatcher holds the per-query state of title scoring.
type titleMatcher struct {
	query       string
	lower       string
	words       []string
	sensitivity float64
}

func newTitleMatcher(query string, sensitivity float64) *titleMatcher {
	lower := strings.ToLower(query)
	m := &titleMatcher{query: query, lower: lower, sensitivity: ClampSensitivity(sensitivity)}
	for _, w := range strings.Fields(lower) {
		m.words = append(m.words, " "+w+" ")
	}
	return m
}

// ClampSensitivity limits s to [0, 1].
func ClampSensitivity(s float64) float64 {
	switch {
	case math.IsNaN(s):
		return DefaultSensitivity
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// Score rates title against the query. A score of zero or less means the
// title does not match.
func (m *titleMatcher) Score(title string) float64 {
	if strings.EqualFold(title, m.query) {
		return ExactMatchScore
	}

	lower := strings.ToLower(title)
	score := 0.0
	if strings.Contains(lower, m.lower) {
		score += substringBonus
	}

	padded := " " + strings.TrimRight(lower, ".,!?%") + " "
	for _, w := range m.words {
		if strings.Contains(padded, w) {
			score += wordBonus
		}
	}

	if sim := smetrics.JaroWinkler(m.lower, lower, jaroWinklerBoost, jaroWinklerPrefix); sim > m.sensitivity {
		score += sim
	}
	return score
}

// ScoreTitle scores a single title against query.
func ScoreTitle(query, title string, sensitivity float64) float64 {
	return newTitleMatcher(query, sensitivity).Score(title)
}
