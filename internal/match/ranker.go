package match

import (
	"sort"

	"github.com/marv-media/grant-finder/internal/models"
)

// DefaultMinScore is the score threshold below which a grant is not
// worth surfacing in the pipeline.
const DefaultMinScore = 0.6

// Rank scores every grant, drops disqualified and below-threshold
// results, and orders the rest deterministically: soonest deadline
// first (no deadline sorts last), then highest score.
func (m *Matcher) Rank(grants []models.Grant, minScore float64) []Result {
	results := make([]Result, 0, len(grants))

	for _, grant := range grants {
		result := m.Match(grant)
		if result.Disqualified || result.Score < minScore {
			continue
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		di, dj := results[i].Grant.Deadline, results[j].Grant.Deadline
		switch {
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		case di == nil && dj != nil:
			return false
		case di != nil && dj == nil:
			return true
		}
		return results[i].Score > results[j].Score
	})

	return results
}

// FilterEligible returns only the underlying grants from a ranked pass,
// for consumers that do not need score or reason detail.
func (m *Matcher) FilterEligible(grants []models.Grant, minScore float64) []models.Grant {
	results := m.Rank(grants, minScore)
	eligible := make([]models.Grant, 0, len(results))
	for _, r := range results {
		eligible = append(eligible, r.Grant)
	}
	return eligible
}
