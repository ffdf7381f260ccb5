package detection

import (
	"github.com/ternarybob/stackscan/internal/models"
)

// MatchRules evaluates a rule's ordered file rule list against one file.
// Rules are OR-combined: the first matching rule wins and its confidence
// is reported (short-circuit). A malformed rule surfaces as an error and
// is handled at the executor boundary.
func (m *MatcherSet) MatchRules(rules []models.FileRule, file *models.CandidateFile) (MatchResult, error) {
	for i := range rules {
		result, err := m.Match(&rules[i], file)
		if err != nil {
			return MatchResult{}, err
		}
		if result.Matched {
			return result, nil
		}
	}
	return MatchResult{}, nil
}
