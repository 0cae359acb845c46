package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/models"
)

const grantsGovBaseURL = "https://api.grants.gov/v1/api"

// defaultKeywords is the search net cast when the registry entry does
// not override it.
var defaultKeywords = []string{
	"small business",
	"minority business",
	"women owned business",
	"marketing",
	"advertising",
	"economic development",
	"business development",
	"entrepreneur",
}

// GrantsGovSource fetches federal opportunities from the Grants.gov
// search2 API. The API requires no authentication.
type GrantsGovSource struct {
	config  SourceConfig
	fetcher *Fetcher
	logger  *zap.Logger
	baseURL string
	rows    int
}

func NewGrantsGovSource(config SourceConfig, logger *zap.Logger) *GrantsGovSource {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = grantsGovBaseURL
	}
	return &GrantsGovSource{
		config:  config,
		fetcher: NewFetcher(config.Fetch, logger),
		logger:  logger.Named("grants_gov"),
		baseURL: strings.TrimRight(baseURL, "/"),
		rows:    25,
	}
}

func (s *GrantsGovSource) Name() string { return s.config.Name }

// grantsGovSearchRequest matches the search2 API schema.
type grantsGovSearchRequest struct {
	Keyword string `json:"keyword"`
	Rows    int    `json:"rows"`
}

// grantsGovResponse wraps the search2 payload. Results live under
// data.oppHits.
type grantsGovResponse struct {
	Data struct {
		HitCount int               `json:"hitCount"`
		OppHits  []grantsGovRecord `json:"oppHits"`
	} `json:"data"`
	ErrorCode int    `json:"errorcode"`
	Msg       string `json:"msg"`
}

type grantsGovRecord struct {
	// The API sends the ID as a string in some releases and a number
	// in others.
	ID        json.RawMessage `json:"id"`
	Number    string          `json:"number"`
	Title     string          `json:"title"`
	Agency    string          `json:"agency"`
	OpenDate  string          `json:"openDate"`
	CloseDate string          `json:"closeDate"`
	OppStatus string          `json:"oppStatus"`
}

func (r grantsGovRecord) oppID() string {
	return strings.Trim(strings.TrimSpace(string(r.ID)), `"`)
}

// Fetch searches each configured keyword and de-duplicates the
// combined results by opportunity ID. A failed keyword search is
// logged and skipped, it never fails the whole fetch.
func (s *GrantsGovSource) Fetch(ctx context.Context) ([]models.Grant, error) {
	keywords := s.config.Keywords
	if len(keywords) == 0 {
		keywords = defaultKeywords
	}

	seen := make(map[string]struct{})
	grants := []models.Grant{}

	for _, keyword := range keywords {
		records, err := s.search(ctx, keyword)
		if err != nil {
			s.logger.Warn("keyword search failed",
				zap.String("keyword", keyword),
				zap.Error(err))
			continue
		}
		for _, rec := range records {
			id := rec.oppID()
			if id == "" || rec.Title == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			grants = append(grants, s.toGrant(ctx, rec))
		}
	}

	s.logger.Info("fetch complete", zap.Int("grants", len(grants)))
	return grants, nil
}

func (s *GrantsGovSource) search(ctx context.Context, keyword string) ([]grantsGovRecord, error) {
	body, err := s.fetcher.PostJSON(ctx, s.baseURL+"/search2", grantsGovSearchRequest{
		Keyword: keyword,
		Rows:    s.rows,
	})
	if err != nil {
		return nil, err
	}

	var resp grantsGovResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	if resp.ErrorCode != 0 {
		return nil, fmt.Errorf("search2 error: %s", resp.Msg)
	}
	return resp.Data.OppHits, nil
}

func (s *GrantsGovSource) toGrant(ctx context.Context, rec grantsGovRecord) models.Grant {
	id := rec.oppID()
	detailURL := fmt.Sprintf("https://www.grants.gov/search-results-detail/%s", id)

	raw := RawGrant{
		ID:             "grants_gov_" + id,
		Source:         "grants.gov",
		SourceURL:      detailURL,
		Title:          rec.Title,
		Funder:         firstNonEmpty(rec.Agency, "Federal Agency"),
		GrantType:      models.GrantTypeFederal,
		FundingType:    models.FundingTypeGrant,
		ApplicationURL: detailURL,
		RawDeadline:    rec.CloseDate,
		RawPosted:      rec.OpenDate,
	}

	// Detail enrichment is best effort.
	if syn, err := s.fetchSynopsis(ctx, id); err == nil {
		raw.Description = syn.Description
		raw.EligibilitySummary = syn.Eligibility
		raw.RawAmount = syn.amountRange()
	} else {
		s.logger.Debug("detail fetch failed", zap.String("id", id), zap.Error(err))
	}

	return FromRaw(raw, time.Now().UTC())
}

type grantsGovSynopsis struct {
	Description  string
	Eligibility  string
	AwardFloor   string
	AwardCeiling string
}

func (g grantsGovSynopsis) amountRange() string {
	switch {
	case g.AwardFloor != "" && g.AwardCeiling != "":
		return g.AwardFloor + " - " + g.AwardCeiling
	case g.AwardCeiling != "":
		return g.AwardCeiling
	case g.AwardFloor != "":
		return "minimum " + g.AwardFloor
	}
	return ""
}

func (s *GrantsGovSource) fetchSynopsis(ctx context.Context, id string) (grantsGovSynopsis, error) {
	body, err := s.fetcher.PostJSON(ctx, s.baseURL+"/fetchOpportunity", map[string]string{"id": id})
	if err != nil {
		return grantsGovSynopsis{}, err
	}

	var detail struct {
		Synopsis struct {
			SynopsisDesc             string          `json:"synopsisDesc"`
			ApplicantEligibilityDesc string          `json:"applicantEligibilityDesc"`
			AwardFloor               json.RawMessage `json:"awardFloor"`
			AwardCeiling             json.RawMessage `json:"awardCeiling"`
		} `json:"synopsis"`
	}
	if err := json.Unmarshal(body, &detail); err != nil {
		return grantsGovSynopsis{}, fmt.Errorf("decoding opportunity detail: %w", err)
	}

	return grantsGovSynopsis{
		Description:  detail.Synopsis.SynopsisDesc,
		Eligibility:  detail.Synopsis.ApplicantEligibilityDesc,
		AwardFloor:   dollarString(detail.Synopsis.AwardFloor),
		AwardCeiling: dollarString(detail.Synopsis.AwardCeiling),
	}, nil
}

// dollarString renders an award bound as "$N" text for the amount
// parser. The API sends these inconsistently as JSON numbers or quoted
// strings with separators.
func dollarString(raw json.RawMessage) string {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "0" || s == "null" {
		return ""
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 {
		return fmt.Sprintf("$%.0f", v)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
