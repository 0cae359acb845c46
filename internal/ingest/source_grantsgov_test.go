package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/models"
)

func grantsGovTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/search2", func(w http.ResponseWriter, r *http.Request) {
		var req grantsGovSearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad search request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"errorcode": 0,
			"data": map[string]any{
				"hitCount": 2,
				"oppHits": []map[string]any{
					{
						"id":        359042,
						"number":    "SBA-2026-01",
						"title":     "Small Business Development Grant",
						"agency":    "Small Business Administration",
						"openDate":  "08/01/2026",
						"closeDate": "11/30/2026",
						"oppStatus": "posted",
					},
					{
						"id":        359042,
						"title":     "Small Business Development Grant",
						"agency":    "Small Business Administration",
						"closeDate": "11/30/2026",
					},
				},
			},
		})
	})

	mux.HandleFunc("/fetchOpportunity", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"synopsis": map[string]any{
				"synopsisDesc":             "Funding for small business development centers.",
				"applicantEligibilityDesc": "Small businesses and nonprofits.",
				"awardFloor":               "10000",
				"awardCeiling":             "150000",
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGrantsGovFetch(t *testing.T) {
	srv := grantsGovTestServer(t)

	source := NewGrantsGovSource(SourceConfig{
		ID:       "grants_gov",
		Name:     "Grants.gov",
		BaseURL:  srv.URL,
		Keywords: []string{"small business"},
		Fetch:    FetchConfig{MaxRetries: 1, RateLimitRPS: 1000},
	}, zap.NewNop())

	grants, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected 1 grant after dedupe, got %d", len(grants))
	}

	g := grants[0]
	if g.ID != "grants_gov_359042" {
		t.Fatalf("unexpected ID %q", g.ID)
	}
	if g.GrantType != models.GrantTypeFederal {
		t.Fatalf("unexpected grant type %s", g.GrantType)
	}
	if g.Funder != "Small Business Administration" {
		t.Fatalf("unexpected funder %q", g.Funder)
	}
	if g.Deadline == nil || g.Deadline.Month() != 11 || g.Deadline.Day() != 30 || g.Deadline.Year() != 2026 {
		t.Fatalf("deadline not parsed: %v", g.Deadline)
	}
	if g.Description != "Funding for small business development centers." {
		t.Fatalf("synopsis not applied: %q", g.Description)
	}
	if g.AmountMin == nil || *g.AmountMin != 10000 {
		t.Fatalf("award floor not parsed: %v", g.AmountMin)
	}
	if g.AmountMax == nil || *g.AmountMax != 150000 {
		t.Fatalf("award ceiling not parsed: %v", g.AmountMax)
	}
	if g.EligibleLocations == nil {
		t.Fatal("list invariant violated")
	}
}

func TestGrantsGovKeywordFailureIsNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	source := NewGrantsGovSource(SourceConfig{
		ID:       "grants_gov",
		Name:     "Grants.gov",
		BaseURL:  srv.URL,
		Keywords: []string{"marketing"},
		Fetch:    FetchConfig{MaxRetries: 1, RateLimitRPS: 1000},
	}, zap.NewNop())

	grants, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch should not fail outright: %v", err)
	}
	if len(grants) != 0 {
		t.Fatalf("expected no grants, got %d", len(grants))
	}
}
