package match

import (
	"testing"

	"github.com/marv-media/grant-finder/internal/models"
)

func rankFixture() []models.Grant {
	far := baseGrant()
	far.ID = "far"
	far.Deadline = deadlineIn(45)

	soon := baseGrant()
	soon.ID = "soon"
	soon.Deadline = deadlineIn(5)

	noDeadline := baseGrant()
	noDeadline.ID = "open-ended"

	expired := baseGrant()
	expired.ID = "expired"
	expired.Deadline = deadlineIn(-1)

	texasOnly := baseGrant()
	texasOnly.ID = "texas"
	texasOnly.EligibleLocations = []string{"Texas"}

	return []models.Grant{far, noDeadline, expired, soon, texasOnly}
}

func TestRank_OrdersByDeadlineThenScore(t *testing.T) {
	m := newTestMatcher(testAttrs())
	results := m.Rank(rankFixture(), DefaultMinScore)

	if len(results) != 3 {
		t.Fatalf("expected 3 eligible results, got %d", len(results))
	}
	if results[0].Grant.ID != "soon" {
		t.Fatalf("soonest deadline must rank first, got %s", results[0].Grant.ID)
	}
	if results[len(results)-1].Grant.ID != "open-ended" {
		t.Fatalf("missing deadline must rank last, got %s", results[len(results)-1].Grant.ID)
	}

	for i := 1; i < len(results); i++ {
		a, b := results[i-1], results[i]
		da, db := a.Grant.Deadline, b.Grant.Deadline
		switch {
		case da == nil && db != nil:
			t.Fatalf("nil deadline before a dated one at %d", i)
		case da != nil && db != nil && da.After(*db):
			t.Fatalf("deadlines out of order at %d", i)
		case da != nil && db != nil && da.Equal(*db) && a.Score < b.Score:
			t.Fatalf("equal deadlines must order by score desc at %d", i)
		}
	}
}

func TestRank_ExcludesDisqualifiedAndBelowThreshold(t *testing.T) {
	m := newTestMatcher(testAttrs())
	results := m.Rank(rankFixture(), DefaultMinScore)

	for _, r := range results {
		if r.Disqualified {
			t.Fatalf("ranked list contains disqualified grant %s", r.Grant.ID)
		}
		if r.Score < DefaultMinScore {
			t.Fatalf("ranked list contains below-threshold grant %s (%f)", r.Grant.ID, r.Score)
		}
	}
}

func TestRank_Idempotent(t *testing.T) {
	m := newTestMatcher(testAttrs())

	first := m.Rank(rankFixture(), DefaultMinScore)

	grants := make([]models.Grant, 0, len(first))
	for _, r := range first {
		grants = append(grants, r.Grant)
	}
	second := m.Rank(grants, DefaultMinScore)

	if len(first) != len(second) {
		t.Fatalf("re-ranking changed the result count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Grant.ID != second[i].Grant.ID {
			t.Fatalf("re-ranking changed the order at %d: %s vs %s", i, first[i].Grant.ID, second[i].Grant.ID)
		}
	}
}

func TestRank_EqualDeadlinesOrderByScore(t *testing.T) {
	m := newTestMatcher(testAttrs())

	strong := baseGrant()
	strong.ID = "strong"
	strong.Deadline = deadlineIn(10)
	strong.RequiresWomanOwned = true // met requirement lifts ownership to 1.0

	weak := baseGrant()
	weak.ID = "weak"
	weak.Deadline = deadlineIn(10)
	weak.EligibleIndustries = []string{"Manufacturing"} // 0.3 industry score

	results := m.Rank([]models.Grant{weak, strong}, 0.0)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Grant.ID != "strong" {
		t.Fatalf("higher score must rank first on equal deadlines, got %s", results[0].Grant.ID)
	}
}

func TestFilterEligible_ReturnsGrantsOnly(t *testing.T) {
	m := newTestMatcher(testAttrs())
	grants := m.FilterEligible(rankFixture(), DefaultMinScore)

	if len(grants) != 3 {
		t.Fatalf("expected 3 grants, got %d", len(grants))
	}
	if grants[0].ID != "soon" {
		t.Fatalf("ordering must match Rank, got %s first", grants[0].ID)
	}
}

func TestRank_EmptyInput(t *testing.T) {
	m := newTestMatcher(testAttrs())
	if results := m.Rank(nil, DefaultMinScore); len(results) != 0 {
		t.Fatalf("expected empty result, got %d", len(results))
	}
}
