package ingest

import (
	"context"

	"github.com/marv-media/grant-finder/internal/models"
)

// Source produces grant records from one upstream site or API. Every
// returned Grant satisfies the list-field invariant (Normalize applied),
// so the matcher never sees nil lists.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Grant, error)
}

// RawGrant is untrusted data lifted off a page or API response before
// normalization. String fields carry whatever the source showed; the
// normalizer resolves them into typed Grant fields or drops them.
type RawGrant struct {
	ID          string
	Source      string
	SourceURL   string
	Title       string
	Description string
	Funder      string

	RawAmount   string
	RawDeadline string
	RawPosted   string

	GrantType   models.GrantType
	FundingType models.FundingType

	EligibilitySummary     string
	EligibleLocations      []string
	EligibleIndustries     []string
	RequiresWomanOwned     bool
	RequiresMinorityOwned  bool
	RequiresVeteranOwned   bool
	RawMaxRevenue          string
	RawMaxEmployees        string
	RawMinYears            string
	RequiredCertifications []string

	ApplicationURL          string
	ApplicationRequirements []string
	ContactEmail            string
	ContactPhone            string
}

// FetchConfig tunes HTTP behavior per source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // default 30
	MaxRetries     int     `yaml:"max_retries,omitempty"`     // default 3
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // default 0.5
	UserAgent      string  `yaml:"user_agent,omitempty"`
}
