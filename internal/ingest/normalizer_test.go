package ingest

import (
	"testing"
	"time"

	"github.com/marv-media/grant-finder/internal/models"
)

func TestFromRawResolvesTypedFields(t *testing.T) {
	raw := RawGrant{
		ID:              "test_1",
		Source:          "test",
		Title:           "  Small   Business Grant  ",
		Description:     "<p>Up to <b>$25,000</b> for small businesses.</p>",
		RawAmount:       "up to $25,000",
		RawDeadline:     "2026-12-01",
		RawMaxRevenue:   "$1,000,000",
		RawMaxEmployees: "50",
		RawMinYears:     "2",
	}

	grant := FromRaw(raw, time.Now().UTC())

	if grant.Title != "Small Business Grant" {
		t.Fatalf("title not cleaned: %q", grant.Title)
	}
	if grant.Description != "Up to $25,000 for small businesses." {
		t.Fatalf("description not sanitized: %q", grant.Description)
	}
	if grant.AmountMax == nil || *grant.AmountMax != 25000 {
		t.Fatalf("amount not parsed: %v", grant.AmountMax)
	}
	if grant.Deadline == nil || grant.Deadline.Day() != 1 || grant.Deadline.Month() != time.December {
		t.Fatalf("deadline not parsed: %v", grant.Deadline)
	}
	if grant.MaxRevenue == nil || *grant.MaxRevenue != 1000000 {
		t.Fatalf("max revenue not parsed: %v", grant.MaxRevenue)
	}
	if grant.MaxEmployees == nil || *grant.MaxEmployees != 50 {
		t.Fatalf("max employees not parsed: %v", grant.MaxEmployees)
	}
	if grant.MinYearsInBusiness == nil || *grant.MinYearsInBusiness != 2 {
		t.Fatalf("min years not parsed: %v", grant.MinYearsInBusiness)
	}
}

func TestFromRawDefaultsAndInvariants(t *testing.T) {
	grant := FromRaw(RawGrant{ID: "test_2", Title: "Bare"}, time.Now().UTC())

	if grant.GrantType != models.GrantTypePrivate {
		t.Fatalf("expected private default, got %s", grant.GrantType)
	}
	if grant.FundingType != models.FundingTypeGrant {
		t.Fatalf("expected grant default, got %s", grant.FundingType)
	}
	if grant.EligibleLocations == nil || grant.EligibleIndustries == nil ||
		grant.RequiredCertifications == nil || grant.ApplicationRequirements == nil {
		t.Fatal("list fields must never be nil")
	}
	if grant.Deadline != nil || grant.AmountMin != nil || grant.AmountMax != nil {
		t.Fatal("absent optionals must stay nil")
	}
}

func TestFromRawMalformedValuesDegrade(t *testing.T) {
	grant := FromRaw(RawGrant{
		ID:              "test_3",
		Title:           "Odd",
		RawAmount:       "varies by applicant",
		RawDeadline:     "rolling basis",
		RawMaxEmployees: "several",
	}, time.Now().UTC())

	if grant.Deadline != nil {
		t.Fatalf("unparseable deadline should stay nil, got %v", grant.Deadline)
	}
	if grant.MaxEmployees != nil {
		t.Fatalf("unparseable employee cap should stay nil, got %v", grant.MaxEmployees)
	}
	if grant.AmountDescription != "varies by applicant" {
		t.Fatalf("amount text should fall back to description, got %q", grant.AmountDescription)
	}
}

func TestCleanListDeduplicates(t *testing.T) {
	got := cleanList([]string{" California ", "california", "", "Texas"})
	if len(got) != 2 || got[0] != "California" || got[1] != "Texas" {
		t.Fatalf("got %v", got)
	}
}

func TestFromRawDeduplicatesListEntries(t *testing.T) {
	grant := FromRaw(RawGrant{
		ID:                "test_4",
		Title:             "List hygiene",
		EligibleLocations: []string{"California", " california", "Nevada"},
	}, time.Now().UTC())
	if len(grant.EligibleLocations) != 2 {
		t.Fatalf("got %v", grant.EligibleLocations)
	}
}
