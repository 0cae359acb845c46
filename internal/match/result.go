package match

import "github.com/marv-media/grant-finder/internal/models"

// Result is the outcome of scoring one grant against the company profile.
// It is constructed by Matcher.Match and never mutated afterwards.
type Result struct {
	Grant models.Grant `json:"grant"`

	// Score is normalized to [0.0, 1.0]. Disqualified grants score 0.0.
	Score float64 `json:"score"`

	// Reasons lists positive matching factors in dimension order:
	// location, size, ownership, industry, certification, deadline.
	Reasons []string `json:"reasons"`

	// Warnings lists potential issues an applicant should verify.
	Warnings []string `json:"warnings"`

	Disqualified           bool   `json:"disqualified"`
	DisqualificationReason string `json:"disqualification_reason,omitempty"`
}
