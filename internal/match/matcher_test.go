package match

import (
	"strings"
	"testing"
	"time"

	"github.com/marv-media/grant-finder/internal/models"
	"github.com/marv-media/grant-finder/internal/profile"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func testAttrs() profile.Eligibility {
	return profile.Eligibility{
		City:                    "Sacramento",
		State:                   "CA",
		Country:                 "United States",
		EmployeeCount:           3,
		AnnualRevenue:           85000,
		WomanOwned:              true,
		WomanOwnedPercentage:    33.33,
		MinorityOwned:           true,
		MinorityOwnedPercentage: 33.34,
		NAICSCodes:              []string{"541810", "541613"},
		EntityType:              "LLC",
		Certifications:          []string{},
		YearsInBusiness:         2,
	}
}

func newTestMatcher(attrs profile.Eligibility) *Matcher {
	return New(attrs, WithClock(func() time.Time { return testNow }))
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func deadlineIn(days int) *time.Time {
	d := testNow.AddDate(0, 0, days)
	return &d
}

func baseGrant() models.Grant {
	g := models.Grant{
		ID:        "test-grant-1",
		Source:    "test",
		SourceURL: "https://example.com/grant",
		Title:     "Test Grant",
		Funder:    "Test Funder",
	}
	g.Normalize()
	return g
}

func TestMatch_PastDeadlineDisqualifies(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.Deadline = deadlineIn(-3)

	result := m.Match(g)
	if !result.Disqualified {
		t.Fatal("expected disqualified for past deadline")
	}
	if result.Score != 0.0 {
		t.Fatalf("expected score 0.0, got %f", result.Score)
	}
	if result.DisqualificationReason != "Deadline has passed" {
		t.Fatalf("unexpected reason: %s", result.DisqualificationReason)
	}
	if len(result.Reasons) != 0 || len(result.Warnings) != 0 {
		t.Fatal("disqualified result must not carry reasons or warnings")
	}
}

func TestMatch_HardCertificationDisqualifies(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.RequiredCertifications = []string{"8(a)"}

	result := m.Match(g)
	if !result.Disqualified {
		t.Fatal("expected disqualified for missing 8(a)")
	}
	if !strings.Contains(result.DisqualificationReason, "8(a)") {
		t.Fatalf("reason should name the missing certification: %s", result.DisqualificationReason)
	}
}

func TestMatch_SoftCertificationDoesNotDisqualify(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.RequiredCertifications = []string{"WOSB"}

	result := m.Match(g)
	if result.Disqualified {
		t.Fatal("WOSB is not a hard requirement, must not disqualify")
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "WOSB") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a missing-certification warning, got %v", result.Warnings)
	}
}

func TestMatch_HeldCertificationPasses(t *testing.T) {
	attrs := testAttrs()
	attrs.Certifications = []string{"8(a)", "WOSB"}
	m := newTestMatcher(attrs)
	g := baseGrant()
	g.RequiredCertifications = []string{"8(a)", "WOSB"}

	result := m.Match(g)
	if result.Disqualified {
		t.Fatal("held certifications must not disqualify")
	}
}

func TestMatch_PreferredCertificationLanguage(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.RequiredCertifications = []string{"MBE"}
	g.EligibilitySummary = "MBE certification preferred but not required"

	result := m.Match(g)
	if result.Disqualified {
		t.Fatal("preferred certification must not disqualify")
	}
	// Certification dimension lands at 0.5 instead of 0.0; the overall
	// score must sit strictly between the two configurations.
	gHard := baseGrant()
	gHard.RequiredCertifications = []string{"MBE"}
	hard := m.Match(gHard)
	if result.Score <= hard.Score {
		t.Fatalf("preferred language should score higher: %f vs %f", result.Score, hard.Score)
	}
}

func TestMatch_RevenueCeilingDisqualifies(t *testing.T) {
	attrs := testAttrs()
	attrs.AnnualRevenue = 100000
	m := newTestMatcher(attrs)
	g := baseGrant()
	g.MaxRevenue = floatPtr(50000)

	result := m.Match(g)
	if !result.Disqualified {
		t.Fatal("expected disqualified for revenue ceiling")
	}
	if result.Score != 0.0 {
		t.Fatalf("expected score 0.0, got %f", result.Score)
	}
	if !strings.Contains(result.DisqualificationReason, "exceeds limit") {
		t.Fatalf("reason should mention exceeds limit: %s", result.DisqualificationReason)
	}
	if !strings.Contains(result.DisqualificationReason, "$50,000") {
		t.Fatalf("reason should carry the formatted limit: %s", result.DisqualificationReason)
	}
}

func TestMatch_EmployeeCeilingDisqualifies(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.MaxEmployees = intPtr(2)

	result := m.Match(g)
	if !result.Disqualified {
		t.Fatal("expected disqualified for employee ceiling")
	}
}

func TestMatch_RevenueCeilingAboveProfilePasses(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.MaxRevenue = floatPtr(500000)
	g.MaxEmployees = intPtr(10)

	result := m.Match(g)
	if result.Disqualified {
		t.Fatalf("expected eligible, got disqualified: %s", result.DisqualificationReason)
	}
}

func TestMatch_LocationRestrictionDisqualifies(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.EligibleLocations = []string{"Texas"}

	result := m.Match(g)
	if !result.Disqualified {
		t.Fatal("expected disqualified for Texas-only grant")
	}
	if !strings.Contains(result.DisqualificationReason, "Texas") {
		t.Fatalf("reason should name the restricted location: %s", result.DisqualificationReason)
	}
}

func TestMatch_NationwideMentionAvoidsLocationDisqualifier(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.EligibleLocations = []string{"Texas", "Nationwide applicants welcome"}

	result := m.Match(g)
	if result.Disqualified {
		t.Fatalf("nationwide mention must not disqualify: %s", result.DisqualificationReason)
	}
}

func TestMatch_HomeStateLocationMatches(t *testing.T) {
	m := newTestMatcher(testAttrs())

	for _, loc := range []string{"California", "Sacramento County", "ca"} {
		g := baseGrant()
		g.EligibleLocations = []string{loc}
		result := m.Match(g)
		if result.Disqualified {
			t.Fatalf("location %q must not disqualify: %s", loc, result.DisqualificationReason)
		}
	}
}

func TestMatch_OwnershipVetoZeroesScoreWithoutDisqualifying(t *testing.T) {
	attrs := testAttrs()
	attrs.WomanOwned = false
	attrs.WomanOwnedPercentage = 0
	m := newTestMatcher(attrs)

	g := baseGrant()
	g.RequiresWomanOwned = true

	result := m.Match(g)
	if result.Disqualified {
		t.Fatal("ownership veto must not mark the result disqualified")
	}
	if result.Score != 0.0 {
		t.Fatalf("ownership veto must zero the score, got %f", result.Score)
	}
}

func TestMatch_VeteranRequirementVetoes(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.RequiresVeteranOwned = true

	result := m.Match(g)
	if result.Disqualified {
		t.Fatal("veteran veto must not disqualify")
	}
	if result.Score != 0.0 {
		t.Fatalf("expected zero score, got %f", result.Score)
	}
}

func TestMatch_OwnershipRequirementMetScoresFull(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.RequiresWomanOwned = true

	result := m.Match(g)
	if result.Disqualified {
		t.Fatal("woman-owned requirement is met, must not disqualify")
	}
	found := false
	for _, r := range result.Reasons {
		if strings.Contains(r, "Woman-owned") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a woman-owned reason, got %v", result.Reasons)
	}
}

func TestMatch_UnconstrainedGrantBeatsThreshold(t *testing.T) {
	m := newTestMatcher(testAttrs())
	result := m.Match(baseGrant())

	if result.Disqualified {
		t.Fatalf("unconstrained grant must not disqualify: %s", result.DisqualificationReason)
	}
	if result.Score <= DefaultMinScore {
		t.Fatalf("unconstrained grant should beat the %.2f threshold, got %f", DefaultMinScore, result.Score)
	}
}

func TestMatch_UnconstrainedGrantWithNearDeadline(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.Deadline = deadlineIn(10)

	result := m.Match(g)
	if result.Score < 0.6 {
		t.Fatalf("expected score >= 0.6, got %f", result.Score)
	}
	found := false
	for _, r := range result.Reasons {
		if r == "Deadline in 10 days" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a deadline proximity reason, got %v", result.Reasons)
	}
}

func TestMatch_MicroBusinessBonusClampedToOne(t *testing.T) {
	// Revenue under $100k triggers the 1.1 multiplier; the size
	// dimension still may not exceed 1.0 after clamping, so the
	// unconstrained total stays within [0, 1].
	m := newTestMatcher(testAttrs())
	result := m.Match(baseGrant())

	if result.Score > 1.0 {
		t.Fatalf("score must be clamped to 1.0, got %f", result.Score)
	}
	found := false
	for _, r := range result.Reasons {
		if strings.Contains(r, "Micro-business") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected micro-business reason, got %v", result.Reasons)
	}
}

func TestMatch_MinYearsShortfallHalvesSizeScore(t *testing.T) {
	m := newTestMatcher(testAttrs())

	gShort := baseGrant()
	gShort.MinYearsInBusiness = intPtr(5)
	short := m.Match(gShort)

	gMet := baseGrant()
	gMet.MinYearsInBusiness = intPtr(1)
	met := m.Match(gMet)

	if short.Disqualified || met.Disqualified {
		t.Fatal("years-in-business must never disqualify")
	}
	if short.Score >= met.Score {
		t.Fatalf("years shortfall should lower the score: %f vs %f", short.Score, met.Score)
	}
	foundWarning := false
	for _, w := range short.Warnings {
		if strings.Contains(w, "5 year") {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Fatalf("expected a years-requirement warning, got %v", short.Warnings)
	}
}

func TestMatch_IndustryScoring(t *testing.T) {
	m := newTestMatcher(testAttrs())

	cases := []struct {
		name       string
		industries []string
		wantReason string
	}{
		{"naics prefix", []string{"5418"}, "NAICS code match"},
		{"keyword", []string{"Marketing and communications"}, "Industry keyword match"},
		{"open", []string{"Open to any sector"}, "Open to all industries"},
		{"none", []string{}, "No industry restrictions"},
		{"uncertain", []string{"Manufacturing"}, "Industry alignment uncertain"},
	}

	for _, tc := range cases {
		g := baseGrant()
		g.EligibleIndustries = tc.industries
		result := m.Match(g)

		found := false
		for _, r := range result.Reasons {
			if strings.Contains(r, tc.wantReason) {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: expected reason containing %q, got %v", tc.name, tc.wantReason, result.Reasons)
		}
	}
}

func TestMatch_ReasonOrderFollowsDimensions(t *testing.T) {
	m := newTestMatcher(testAttrs())
	g := baseGrant()
	g.Deadline = deadlineIn(5)

	result := m.Match(g)
	// location, size, ownership, industry, certification, deadline
	var idx = map[string]int{}
	for i, r := range result.Reasons {
		idx[r] = i
	}
	if idx["No location restrictions"] > idx["Micro-business status (under $100k revenue)"] {
		t.Fatalf("location reason must precede size reason: %v", result.Reasons)
	}
	if idx["No certifications required"] > idx["Deadline in 5 days"] {
		t.Fatalf("certification reason must precede deadline reason: %v", result.Reasons)
	}
}

func TestMatch_CustomHardCertificationSet(t *testing.T) {
	m := New(testAttrs(),
		WithClock(func() time.Time { return testNow }),
		WithHardCertifications([]string{"ISO-9001"}),
	)

	g := baseGrant()
	g.RequiredCertifications = []string{"8(a)"}
	if result := m.Match(g); result.Disqualified {
		t.Fatal("8(a) is soft under the custom set")
	}

	g2 := baseGrant()
	g2.RequiredCertifications = []string{"ISO-9001"}
	if result := m.Match(g2); !result.Disqualified {
		t.Fatal("ISO-9001 is hard under the custom set")
	}
}
