package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/marv-media/grant-finder/internal/models"
	"github.com/marv-media/grant-finder/internal/profile"
)

// Dimension weights. They sum to 1.00; the final score still divides by
// the total weight actually applied so partial configurations stay safe.
const (
	weightLocation      = 0.20
	weightSize          = 0.20
	weightOwnership     = 0.25
	weightIndustry      = 0.15
	weightCertification = 0.10
	weightDeadline      = 0.10
)

// industryKeywords are grant industry descriptions close enough to the
// company's line of business to count as a soft match.
var industryKeywords = []string{
	"advertising",
	"marketing",
	"media",
	"consulting",
	"business services",
	"professional services",
	"small business",
	"technology",
}

// nationwideTerms mark a grant as open to applicants anywhere in the US.
var nationwideTerms = map[string]bool{
	"nationwide":    true,
	"us":            true,
	"usa":           true,
	"united states": true,
	"all states":    true,
}

// Matcher scores grants against a fixed eligibility snapshot. It is pure
// with respect to its inputs aside from reading the clock for
// deadline-relative checks, so one Matcher is safe for concurrent use.
type Matcher struct {
	attrs     profile.Eligibility
	hardCerts map[string]bool
	aliases   []string
	now       func() time.Time
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithClock overrides the time source, used by tests to pin "today".
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) { m.now = now }
}

// WithHardCertifications overrides the certification names whose absence
// disqualifies outright instead of merely zeroing the dimension.
func WithHardCertifications(names []string) Option {
	return func(m *Matcher) {
		m.hardCerts = make(map[string]bool, len(names))
		for _, n := range names {
			m.hardCerts[n] = true
		}
	}
}

// DefaultHardCertifications are federal programs a grant may demand that
// cannot be acquired in time for an application cycle.
var DefaultHardCertifications = []string{"8(a)", "HUBZone", "SDVOSB"}

// locationSynonyms extend the profile's own jurisdiction when checking
// grant location lists.
var locationSynonyms = []string{"california", "ca", "us", "usa", "united states"}

// New builds a Matcher for the given eligibility snapshot.
func New(attrs profile.Eligibility, opts ...Option) *Matcher {
	aliases := []string{
		strings.ToLower(attrs.State),
		strings.ToLower(attrs.City),
		strings.ToLower(attrs.Country),
	}
	aliases = append(aliases, locationSynonyms...)

	m := &Matcher{
		attrs:   attrs,
		aliases: aliases,
		now:     time.Now,
	}
	WithHardCertifications(DefaultHardCertifications)(m)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match scores a single grant. Disqualifiers are checked first, in a
// fixed order, and short-circuit scoring entirely.
func (m *Matcher) Match(grant models.Grant) Result {
	now := m.now()

	if reason, disqualified := m.checkDisqualifiers(grant, now); disqualified {
		return Result{
			Grant:                  grant,
			Score:                  0.0,
			Reasons:                []string{},
			Warnings:               []string{},
			Disqualified:           true,
			DisqualificationReason: reason,
		}
	}

	var score, maxScore float64
	reasons := []string{}
	warnings := []string{}

	maxScore += weightLocation
	locScore, locReasons := m.scoreLocation(grant)
	score += locScore * weightLocation
	reasons = append(reasons, locReasons...)

	maxScore += weightSize
	sizeScore, sizeReasons, sizeWarnings := m.scoreSize(grant)
	score += sizeScore * weightSize
	reasons = append(reasons, sizeReasons...)
	warnings = append(warnings, sizeWarnings...)

	maxScore += weightOwnership
	ownScore, ownReasons, ownVetoed := m.scoreOwnership(grant)
	score += ownScore * weightOwnership
	reasons = append(reasons, ownReasons...)

	maxScore += weightIndustry
	indScore, indReasons := m.scoreIndustry(grant)
	score += indScore * weightIndustry
	reasons = append(reasons, indReasons...)

	maxScore += weightCertification
	certScore, certReasons, certWarnings := m.scoreCertifications(grant)
	score += certScore * weightCertification
	reasons = append(reasons, certReasons...)
	warnings = append(warnings, certWarnings...)

	maxScore += weightDeadline
	deadlineScore := m.scoreDeadline(grant, now)
	score += deadlineScore * weightDeadline
	if deadlineScore > 0.5 {
		if days, ok := grant.DaysUntilDeadline(now); ok {
			reasons = append(reasons, fmt.Sprintf("Deadline in %d days", days))
		}
	}

	final := 0.0
	if maxScore > 0 {
		final = score / maxScore
	}

	// An unmet ownership requirement zeroes the whole score without
	// disqualifying: the company could technically still apply, but the
	// grant is not meant for it.
	if ownVetoed {
		final = 0.0
	}

	return Result{
		Grant:    grant,
		Score:    final,
		Reasons:  reasons,
		Warnings: warnings,
	}
}

// checkDisqualifiers evaluates hard vetoes in order, stopping at the
// first hit.
func (m *Matcher) checkDisqualifiers(grant models.Grant, now time.Time) (string, bool) {
	if days, ok := grant.DaysUntilDeadline(now); ok && days < 0 {
		return "Deadline has passed", true
	}

	if len(grant.RequiredCertifications) > 0 {
		var missingHard []string
		for _, cert := range grant.RequiredCertifications {
			if !m.attrs.HasCertification(cert) && m.hardCerts[cert] {
				missingHard = append(missingHard, cert)
			}
		}
		if len(missingHard) > 0 {
			return fmt.Sprintf("Requires certification: %s", strings.Join(missingHard, ", ")), true
		}
	}

	if grant.MaxRevenue != nil && m.attrs.AnnualRevenue > *grant.MaxRevenue {
		return fmt.Sprintf("Revenue exceeds limit (%s)", formatLimit(*grant.MaxRevenue)), true
	}

	if grant.MaxEmployees != nil && m.attrs.EmployeeCount > *grant.MaxEmployees {
		return fmt.Sprintf("Employee count exceeds limit (%d)", *grant.MaxEmployees), true
	}

	if len(grant.EligibleLocations) > 0 && !m.anyLocationMatches(grant.EligibleLocations) {
		joined := strings.ToLower(strings.Join(grant.EligibleLocations, " "))
		if !strings.Contains(joined, "nationwide") {
			return fmt.Sprintf("Location restricted to: %s", strings.Join(grant.EligibleLocations, ", ")), true
		}
	}

	return "", false
}

// anyLocationMatches reports whether any grant location overlaps any of
// the company's location aliases, by equality or substring either way.
func (m *Matcher) anyLocationMatches(locations []string) bool {
	for _, loc := range locations {
		locLower := strings.ToLower(strings.TrimSpace(loc))
		if locLower == "" {
			continue
		}
		for _, alias := range m.aliases {
			if alias == "" {
				continue
			}
			if locLower == alias || strings.Contains(locLower, alias) || strings.Contains(alias, locLower) {
				return true
			}
		}
	}
	return false
}

func (m *Matcher) scoreLocation(grant models.Grant) (float64, []string) {
	if len(grant.EligibleLocations) == 0 {
		return 1.0, []string{"No location restrictions"}
	}

	city := strings.ToLower(m.attrs.City)
	state := strings.ToLower(m.attrs.State)

	for _, loc := range grant.EligibleLocations {
		locLower := strings.ToLower(loc)
		if city != "" && strings.Contains(locLower, city) {
			return 1.0, []string{fmt.Sprintf("%s specifically eligible", m.attrs.City)}
		}
	}

	for _, loc := range grant.EligibleLocations {
		locLower := strings.ToLower(loc)
		if strings.Contains(locLower, "california") || locLower == state {
			return 1.0, []string{"California specifically eligible"}
		}
	}

	for _, loc := range grant.EligibleLocations {
		if nationwideTerms[strings.ToLower(loc)] {
			return 0.9, []string{"Nationwide eligibility"}
		}
	}

	return 0.5, []string{"Location may be eligible - verify"}
}

func (m *Matcher) scoreSize(grant models.Grant) (float64, []string, []string) {
	var reasons, warnings []string
	score := 1.0

	if grant.MaxRevenue != nil {
		if m.attrs.AnnualRevenue <= *grant.MaxRevenue {
			reasons = append(reasons, fmt.Sprintf("Revenue under %s limit", formatLimit(*grant.MaxRevenue)))
		} else {
			score *= 0.0
			warnings = append(warnings, "Revenue may exceed limit")
		}
	}

	if grant.MaxEmployees != nil {
		if m.attrs.EmployeeCount <= *grant.MaxEmployees {
			reasons = append(reasons, fmt.Sprintf("Under %d employee limit", *grant.MaxEmployees))
		} else {
			score *= 0.0
			warnings = append(warnings, "Employee count may exceed limit")
		}
	}

	if m.attrs.AnnualRevenue < 100000 {
		score *= 1.1
		reasons = append(reasons, "Micro-business status (under $100k revenue)")
	}

	if grant.MinYearsInBusiness != nil {
		if m.attrs.YearsInBusiness >= *grant.MinYearsInBusiness {
			reasons = append(reasons, fmt.Sprintf("Meets %d+ years requirement", *grant.MinYearsInBusiness))
		} else {
			score *= 0.5
			warnings = append(warnings, fmt.Sprintf("May not meet %d year requirement", *grant.MinYearsInBusiness))
		}
	}

	return min(score, 1.0), reasons, warnings
}

// scoreOwnership vetoes the match when a required ownership
// characteristic is missing. The veto is deliberately weaker than a hard
// disqualification: downstream consumers still see the grant as one the
// company could technically apply for, just scored to zero.
func (m *Matcher) scoreOwnership(grant models.Grant) (score float64, reasons []string, vetoed bool) {
	score = 0.5

	if grant.RequiresWomanOwned {
		if !m.attrs.WomanOwned {
			return 0.0, []string{"Requires woman-owned status"}, true
		}
		score = 1.0
		reasons = append(reasons, fmt.Sprintf("Woman-owned (%.0f%%)", m.attrs.WomanOwnedPercentage))
	}

	if grant.RequiresMinorityOwned {
		if !m.attrs.MinorityOwned {
			return 0.0, []string{"Requires minority-owned status"}, true
		}
		score = 1.0
		reasons = append(reasons, fmt.Sprintf("Minority-owned (%.0f%%)", m.attrs.MinorityOwnedPercentage))
	}

	if grant.RequiresVeteranOwned {
		if !m.attrs.VeteranOwned {
			return 0.0, []string{"Requires veteran-owned status"}, true
		}
		reasons = append(reasons, "Veteran-owned")
	}

	if !grant.RequiresWomanOwned && m.attrs.WomanOwned {
		score += 0.1
		reasons = append(reasons, "Woman-owned (bonus eligibility)")
	}
	if !grant.RequiresMinorityOwned && m.attrs.MinorityOwned {
		score += 0.1
		reasons = append(reasons, "Minority-owned (bonus eligibility)")
	}

	return min(score, 1.0), reasons, false
}

func (m *Matcher) scoreIndustry(grant models.Grant) (float64, []string) {
	if len(grant.EligibleIndustries) == 0 {
		return 0.8, []string{"No industry restrictions"}
	}

	for _, ours := range m.attrs.NAICSCodes {
		for _, theirs := range grant.EligibleIndustries {
			if ours == "" || theirs == "" {
				continue
			}
			if strings.HasPrefix(ours, theirs) || strings.HasPrefix(theirs, ours) {
				return 1.0, []string{fmt.Sprintf("NAICS code match: %s", ours)}
			}
		}
	}

	lowered := make([]string, len(grant.EligibleIndustries))
	for i, ind := range grant.EligibleIndustries {
		lowered[i] = strings.ToLower(ind)
	}

	for _, keyword := range industryKeywords {
		for _, ind := range lowered {
			if strings.Contains(ind, keyword) {
				return 0.9, []string{fmt.Sprintf("Industry keyword match: %s", keyword)}
			}
		}
	}

	joined := strings.Join(lowered, " ")
	for _, word := range []string{"all", "any", "open", "general"} {
		if strings.Contains(joined, word) {
			return 0.8, []string{"Open to all industries"}
		}
	}

	return 0.3, []string{"Industry alignment uncertain"}
}

func (m *Matcher) scoreCertifications(grant models.Grant) (float64, []string, []string) {
	if len(grant.RequiredCertifications) == 0 {
		return 1.0, []string{"No certifications required"}, nil
	}

	var missing []string
	for _, cert := range grant.RequiredCertifications {
		if !m.attrs.HasCertification(cert) {
			missing = append(missing, cert)
		}
	}

	if len(missing) == 0 {
		return 1.0, []string{fmt.Sprintf("Have required certifications: %s", strings.Join(grant.RequiredCertifications, ", "))}, nil
	}

	warnings := []string{fmt.Sprintf("Missing certifications: %s", strings.Join(missing, ", "))}

	// Some grants prefer but do not require certifications.
	if strings.Contains(strings.ToLower(grant.EligibilitySummary), "prefer") {
		return 0.5, nil, warnings
	}

	return 0.0, nil, warnings
}

func (m *Matcher) scoreDeadline(grant models.Grant, now time.Time) float64 {
	days, ok := grant.DaysUntilDeadline(now)
	if !ok {
		return 0.5
	}

	switch {
	case days < 0:
		return 0.0
	case days <= 7:
		return 1.0
	case days <= 14:
		return 0.9
	case days <= 30:
		return 0.8
	case days <= 60:
		return 0.6
	}
	return 0.4
}

func formatLimit(v float64) string {
	n := int64(v + 0.5)
	s := fmt.Sprintf("%d", n)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return "$" + string(out)
}
