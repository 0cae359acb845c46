package models

import (
	"fmt"
	"time"
)

// GrantType classifies who is offering the money.
type GrantType string

const (
	GrantTypeFederal       GrantType = "federal"
	GrantTypeState         GrantType = "state"
	GrantTypeLocal         GrantType = "local"
	GrantTypePrivate       GrantType = "private"
	GrantTypeCorporate     GrantType = "corporate"
	GrantTypeInternational GrantType = "international"
)

// FundingType classifies the funding mechanism.
type FundingType string

const (
	FundingTypeGrant       FundingType = "grant"
	FundingTypeLoan        FundingType = "loan"
	FundingTypeEquity      FundingType = "equity"
	FundingTypeAward       FundingType = "award"
	FundingTypeCompetition FundingType = "competition"
)

// Grant is the canonical representation of one funding opportunity,
// produced by a source and consumed by the matcher and trackers.
// Optional numeric/date fields are pointers; absence means unconstrained.
type Grant struct {
	// Identification
	ID        string `json:"id"`
	Source    string `json:"source"`
	SourceURL string `json:"source_url"`

	// Basic info
	Title       string `json:"title"`
	Description string `json:"description"`
	Funder      string `json:"funder"`

	// Funding
	AmountMin         *float64 `json:"amount_min,omitempty"`
	AmountMax         *float64 `json:"amount_max,omitempty"`
	AmountDescription string   `json:"amount_description,omitempty"`

	// Dates
	Deadline   *time.Time `json:"deadline,omitempty"`
	PostedDate *time.Time `json:"posted_date,omitempty"`

	// Classification
	GrantType   GrantType   `json:"grant_type"`
	FundingType FundingType `json:"funding_type"`

	// Eligibility constraints. Nil numeric pointers and empty lists both
	// mean "no constraint".
	EligibilitySummary     string   `json:"eligibility_summary,omitempty"`
	EligibleLocations      []string `json:"eligible_locations"`
	EligibleIndustries     []string `json:"eligible_industries"`
	RequiresWomanOwned     bool     `json:"requires_woman_owned"`
	RequiresMinorityOwned  bool     `json:"requires_minority_owned"`
	RequiresVeteranOwned   bool     `json:"requires_veteran_owned"`
	MaxRevenue             *float64 `json:"max_revenue,omitempty"`
	MaxEmployees           *int     `json:"max_employees,omitempty"`
	MinYearsInBusiness     *int     `json:"min_years_in_business,omitempty"`
	RequiredCertifications []string `json:"required_certifications"`

	// Application
	ApplicationURL          string   `json:"application_url,omitempty"`
	ApplicationRequirements []string `json:"application_requirements"`
	ContactEmail            string   `json:"contact_email,omitempty"`
	ContactPhone            string   `json:"contact_phone,omitempty"`

	// Metadata
	ScrapedAt time.Time `json:"scraped_at"`
}

// Normalize enforces the list-field invariant: absence of a constraint is
// an empty list, never nil. Sources call this before handing a Grant to
// the matcher so scoring logic never branches on nil vs empty.
func (g *Grant) Normalize() {
	if g.EligibleLocations == nil {
		g.EligibleLocations = []string{}
	}
	if g.EligibleIndustries == nil {
		g.EligibleIndustries = []string{}
	}
	if g.RequiredCertifications == nil {
		g.RequiredCertifications = []string{}
	}
	if g.ApplicationRequirements == nil {
		g.ApplicationRequirements = []string{}
	}
}

// AmountDisplay renders a human-readable amount string.
// Precedence: exact amount, range, "up to", "from", free text, "varies".
func (g *Grant) AmountDisplay() string {
	switch {
	case g.AmountMin != nil && g.AmountMax != nil && *g.AmountMin == *g.AmountMax:
		return formatUSD(*g.AmountMin)
	case g.AmountMin != nil && g.AmountMax != nil:
		return fmt.Sprintf("%s - %s", formatUSD(*g.AmountMin), formatUSD(*g.AmountMax))
	case g.AmountMax != nil:
		return fmt.Sprintf("Up to %s", formatUSD(*g.AmountMax))
	case g.AmountMin != nil:
		return fmt.Sprintf("From %s", formatUSD(*g.AmountMin))
	case g.AmountDescription != "":
		return g.AmountDescription
	}
	return "Amount varies"
}

// DaysUntilDeadline returns the number of calendar days between now and
// the deadline. The second return is false when no deadline exists.
func (g *Grant) DaysUntilDeadline(now time.Time) (int, bool) {
	if g.Deadline == nil {
		return 0, false
	}
	a := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(g.Deadline.Year(), g.Deadline.Month(), g.Deadline.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24), true
}

// formatUSD renders a dollar amount with thousands separators, no cents.
func formatUSD(v float64) string {
	n := int64(v + 0.5)
	if n < 0 {
		n = 0
	}
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
