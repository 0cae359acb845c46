package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/models"
)

const amberBaseURL = "https://ambergrantsforwomen.com"

const amberDescription = `The Amber Grant awards $10,000 each month to a woman-owned business. At the end of the year, one of the monthly winners receives an additional $25,000. The Amber Grant was started in 1998 in honor of Amber Wigdahl, who died at 19 before fulfilling her entrepreneurial dreams. Since then, WomensNet has awarded over $1 million to women business owners. To apply, you must be a woman business owner (51%+ ownership), describe your business and what you would do with the grant, and pay a $15 application fee.`

// AmberGrantSource tracks the Amber Grant for Women. The program runs
// on a fixed monthly cadence with the deadline on the last day of the
// month, so the monthly record is synthesized from the calendar; the
// site is scraped only for category-specific grants that come and go.
type AmberGrantSource struct {
	config  SourceConfig
	logger  *zap.Logger
	baseURL string
	now     func() time.Time
}

func NewAmberGrantSource(config SourceConfig, logger *zap.Logger) *AmberGrantSource {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = amberBaseURL
	}
	return &AmberGrantSource{
		config:  config,
		logger:  logger.Named("amber_grant"),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func (s *AmberGrantSource) Name() string { return s.config.Name }

func (s *AmberGrantSource) Fetch(ctx context.Context) ([]models.Grant, error) {
	today := s.now().UTC()
	applyURL := s.baseURL + "/get-an-amber-grant/"

	monthly := RawGrant{
		ID:                 "amber_grant_monthly_" + today.Format("200601"),
		Source:             "amber_grant",
		SourceURL:          applyURL,
		Title:              "Amber Grant for Women - " + today.Format("January 2006"),
		Description:        amberDescription,
		Funder:             "WomensNet",
		RawAmount:          "$10,000",
		GrantType:          models.GrantTypePrivate,
		FundingType:        models.FundingTypeGrant,
		EligibilitySummary: "Women-owned businesses (51%+ ownership), any industry, any stage",
		RequiresWomanOwned: true,
		ApplicationURL:     applyURL,
		ApplicationRequirements: []string{
			"Business description (500 words or less)",
			"Explanation of how you'd use the $10,000",
			"$15 application fee",
			"51%+ woman ownership",
		},
	}

	grant := FromRaw(monthly, today)
	deadline := endOfMonth(today)
	grant.Deadline = &deadline

	grants := []models.Grant{grant}

	category, err := s.scrapeCategoryGrants(ctx, today)
	if err != nil {
		// The monthly grant does not depend on the site being up.
		s.logger.Warn("category scrape failed", zap.Error(err))
	} else {
		grants = append(grants, category...)
	}

	return grants, nil
}

// scrapeCategoryGrants picks up the rotating category bonuses (e.g.
// Startup Grant, Business Category Grant) advertised on the site.
func (s *AmberGrantSource) scrapeCategoryGrants(ctx context.Context, today time.Time) ([]models.Grant, error) {
	c := colly.NewCollector(
		colly.UserAgent(defaultUserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(30 * time.Second)
	c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: time.Second})
	c.OnRequest(func(r *colly.Request) {
		select {
		case <-ctx.Done():
			r.Abort()
		default:
		}
	})

	grants := []models.Grant{}
	c.OnHTML(".grant-card, .category-grant, article.grant", func(e *colly.HTMLElement) {
		title := cleanText(e.ChildText("h2, h3, .grant-title"))
		if title == "" {
			return
		}
		link := e.ChildAttr("a[href]", "href")
		if link != "" {
			link = e.Request.AbsoluteURL(link)
		} else {
			link = s.baseURL
		}

		raw := RawGrant{
			ID:                 "amber_grant_" + slugify(title),
			Source:             "amber_grant",
			SourceURL:          link,
			Title:              title,
			Description:        TruncateText(cleanText(e.Text), 500),
			Funder:             "WomensNet",
			RawAmount:          e.ChildText(".amount, .grant-amount"),
			RawDeadline:        e.ChildText(".deadline, .grant-deadline"),
			GrantType:          models.GrantTypePrivate,
			FundingType:        models.FundingTypeGrant,
			RequiresWomanOwned: true,
			ApplicationURL:     link,
		}
		grants = append(grants, FromRaw(raw, today))
	})

	if err := c.Visit(s.baseURL); err != nil {
		return nil, err
	}
	c.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}

// endOfMonth returns 23:59:59 UTC on the last day of t's month.
func endOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.Add(-time.Second)
}

// slugify lowercases a title and replaces runs of non-alphanumerics
// with single underscores.
func slugify(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
