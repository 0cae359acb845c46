package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/marv-media/grant-finder/internal/models"
)

var htmlStripper = bluemonday.StrictPolicy()

// FromRaw converts a RawGrant into a canonical Grant. Malformed dates
// and amounts degrade to absent values rather than failing the record,
// and the list-field invariant is enforced before the record leaves the
// ingest boundary.
func FromRaw(raw RawGrant, scrapedAt time.Time) models.Grant {
	grant := models.Grant{
		ID:          raw.ID,
		Source:      raw.Source,
		SourceURL:   raw.SourceURL,
		Title:       cleanText(raw.Title),
		Description: sanitizeText(raw.Description),
		Funder:      cleanText(raw.Funder),

		GrantType:   raw.GrantType,
		FundingType: raw.FundingType,

		EligibilitySummary:     sanitizeText(raw.EligibilitySummary),
		EligibleLocations:      cleanList(raw.EligibleLocations),
		EligibleIndustries:     cleanList(raw.EligibleIndustries),
		RequiresWomanOwned:     raw.RequiresWomanOwned,
		RequiresMinorityOwned:  raw.RequiresMinorityOwned,
		RequiresVeteranOwned:   raw.RequiresVeteranOwned,
		RequiredCertifications: cleanList(raw.RequiredCertifications),

		ApplicationURL:          raw.ApplicationURL,
		ApplicationRequirements: cleanList(raw.ApplicationRequirements),
		ContactEmail:            raw.ContactEmail,
		ContactPhone:            raw.ContactPhone,

		ScrapedAt: scrapedAt,
	}

	if grant.GrantType == "" {
		grant.GrantType = models.GrantTypePrivate
	}
	if grant.FundingType == "" {
		grant.FundingType = models.FundingTypeGrant
	}

	if raw.RawAmount != "" {
		grant.AmountMin, grant.AmountMax = parseAmount(raw.RawAmount)
		if grant.AmountMin == nil && grant.AmountMax == nil {
			grant.AmountDescription = cleanText(raw.RawAmount)
		}
	}

	if raw.RawDeadline != "" {
		if t, err := parseDate(raw.RawDeadline); err == nil {
			grant.Deadline = &t
		}
	}
	if raw.RawPosted != "" {
		if t, err := parseDate(raw.RawPosted); err == nil {
			grant.PostedDate = &t
		}
	}

	if raw.RawMaxRevenue != "" {
		if _, v := parseAmount(raw.RawMaxRevenue); v != nil {
			grant.MaxRevenue = v
		}
	}
	if raw.RawMaxEmployees != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(raw.RawMaxEmployees)); err == nil && n > 0 {
			grant.MaxEmployees = &n
		}
	}
	if raw.RawMinYears != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(raw.RawMinYears)); err == nil && n > 0 {
			grant.MinYearsInBusiness = &n
		}
	}

	grant.Normalize()
	return grant
}

// sanitizeText strips any HTML out of scraped text and collapses
// whitespace.
func sanitizeText(s string) string {
	return cleanText(htmlStripper.Sanitize(s))
}

// HTMLToText converts an HTML fragment to plain text.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return cleanText(html)
	}
	return cleanText(doc.Text())
}

// cleanText collapses runs of whitespace and trims the string.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanList trims entries, drops empties, and de-duplicates
// case-insensitively while preserving order. Never returns nil.
func cleanList(items []string) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(items))
	for _, v := range items {
		v = cleanText(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// TruncateText cuts a string to max length, appending an ellipsis.
func TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return text[:maxLen-3] + "..."
	}
	return text[:maxLen]
}
