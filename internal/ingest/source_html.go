package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/models"
)

// HTMLSource scrapes grant listings off ordinary HTML pages driven by
// the CSS selectors in its registry entry. It covers sources like
// CalOSBA and Hello Alice that publish listings without an API.
type HTMLSource struct {
	config SourceConfig
	logger *zap.Logger
}

func NewHTMLSource(config SourceConfig, logger *zap.Logger) *HTMLSource {
	return &HTMLSource{
		config: config,
		logger: logger.Named("html_source").With(zap.String("source", config.ID)),
	}
}

func (s *HTMLSource) Name() string { return s.config.Name }

func (s *HTMLSource) Fetch(ctx context.Context) ([]models.Grant, error) {
	if s.config.Selectors.Container == "" {
		return nil, fmt.Errorf("source %s: no container selector configured", s.config.ID)
	}
	if len(s.config.Seeds) == 0 {
		return nil, fmt.Errorf("source %s: no seed URLs configured", s.config.ID)
	}

	c := s.buildCollector(ctx)
	scrapedAt := time.Now().UTC()
	sel := s.config.Selectors

	grants := []models.Grant{}
	seen := make(map[string]struct{})

	c.OnHTML(sel.Container, func(e *colly.HTMLElement) {
		raw, ok := s.extract(e, sel)
		if !ok {
			return
		}
		if _, dup := seen[raw.ID]; dup {
			return
		}
		seen[raw.ID] = struct{}{}
		grants = append(grants, FromRaw(raw, scrapedAt))
	})

	pages := 0
	if sel.Pagination != "" {
		maxPages := s.config.MaxPages
		if maxPages == 0 {
			maxPages = 3
		}
		c.OnHTML(sel.Pagination, func(e *colly.HTMLElement) {
			pages++
			if pages >= maxPages {
				return
			}
			next := e.Request.AbsoluteURL(e.Attr("href"))
			if next != "" {
				e.Request.Visit(next)
			}
		})
	}

	var visitErr error
	for _, seed := range s.config.Seeds {
		if err := c.Visit(seed); err != nil {
			s.logger.Warn("seed visit failed", zap.String("url", seed), zap.Error(err))
			visitErr = err
		}
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(grants) == 0 && visitErr != nil {
		return nil, fmt.Errorf("source %s: all seeds failed: %w", s.config.ID, visitErr)
	}

	s.logger.Info("fetch complete", zap.Int("grants", len(grants)))
	return grants, nil
}

func (s *HTMLSource) buildCollector(ctx context.Context) *colly.Collector {
	userAgent := s.config.Fetch.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)

	timeout := s.config.Fetch.TimeoutSeconds
	if timeout == 0 {
		timeout = 30
	}
	c.SetRequestTimeout(time.Duration(timeout) * time.Second)

	delay := time.Second
	if s.config.Fetch.RateLimitRPS > 0 {
		delay = time.Duration(float64(time.Second) / s.config.Fetch.RateLimitRPS)
	}
	c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: delay})

	c.OnRequest(func(r *colly.Request) {
		select {
		case <-ctx.Done():
			r.Abort()
		default:
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		s.logger.Warn("page fetch failed",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status", r.StatusCode),
			zap.Error(err))
	})

	return c
}

func (s *HTMLSource) extract(e *colly.HTMLElement, sel SelectorConfig) (RawGrant, bool) {
	title := cleanText(childOrSelfText(e, sel.Title))
	if title == "" {
		return RawGrant{}, false
	}

	linkAttr := sel.LinkAttr
	if linkAttr == "" {
		linkAttr = "href"
	}
	link := ""
	if sel.Link != "" {
		link = e.ChildAttr(sel.Link, linkAttr)
	} else {
		link = e.Attr(linkAttr)
	}
	if link != "" {
		link = e.Request.AbsoluteURL(link)
	} else {
		link = e.Request.URL.String()
	}

	description := ""
	if sel.Description != "" {
		description = e.ChildText(sel.Description)
	} else {
		description = TruncateText(e.Text, 1000)
	}

	raw := RawGrant{
		ID:             s.config.ID + "_" + slugify(title),
		Source:         s.config.ID,
		SourceURL:      link,
		Title:          title,
		Description:    description,
		Funder:         s.config.Name,
		GrantType:      grantTypeForRegion(s.config.Region),
		FundingType:    models.FundingTypeGrant,
		ApplicationURL: link,
	}
	if sel.Amount != "" {
		raw.RawAmount = e.ChildText(sel.Amount)
	}
	if sel.Deadline != "" {
		raw.RawDeadline = e.ChildText(sel.Deadline)
	}
	if s.config.Region != "" && !strings.EqualFold(s.config.Region, "national") {
		raw.EligibleLocations = []string{s.config.Region}
	}
	return raw, true
}

func childOrSelfText(e *colly.HTMLElement, selector string) string {
	if selector == "" || selector == "." {
		return e.Text
	}
	return e.ChildText(selector)
}

// grantTypeForRegion maps a registry region to a grant type: state
// programs for named regions, private otherwise.
func grantTypeForRegion(region string) models.GrantType {
	switch strings.ToLower(region) {
	case "", "national", "nationwide":
		return models.GrantTypePrivate
	default:
		return models.GrantTypeState
	}
}
