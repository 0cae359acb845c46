package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/models"
)

const listingPage = `<html><body>
<article class="program">
	<h2>California Dream Fund</h2>
	<p class="description">Microgrants for new California small businesses.</p>
	<span class="amount">up to $10,000</span>
	<span class="deadline">2026-11-15</span>
	<a href="/programs/dream-fund/">Details</a>
</article>
<article class="program">
	<h2>Technical Assistance Program</h2>
	<p class="description">No-cost consulting for small businesses.</p>
	<a href="/programs/tap/">Details</a>
</article>
<article class="program">
	<h2>California Dream Fund</h2>
	<a href="/programs/dream-fund/">Duplicate listing</a>
</article>
</body></html>`

func htmlTestConfig(url string) SourceConfig {
	return SourceConfig{
		ID:      "calosba",
		Name:    "CalOSBA",
		Region:  "California",
		Enabled: true,
		Seeds:   []string{url},
		Selectors: SelectorConfig{
			Container:   "article.program",
			Title:       "h2",
			Link:        "a[href]",
			Description: ".description",
			Amount:      ".amount",
			Deadline:    ".deadline",
		},
		Fetch: FetchConfig{RateLimitRPS: 1000},
	}
}

func TestHTMLSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage))
	}))
	t.Cleanup(srv.Close)

	source := NewHTMLSource(htmlTestConfig(srv.URL), zap.NewNop())
	grants, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(grants) != 2 {
		t.Fatalf("expected 2 grants after dedupe, got %d", len(grants))
	}

	g := grants[0]
	if g.ID != "calosba_california_dream_fund" {
		t.Fatalf("unexpected ID %q", g.ID)
	}
	if g.Title != "California Dream Fund" {
		t.Fatalf("unexpected title %q", g.Title)
	}
	if g.GrantType != models.GrantTypeState {
		t.Fatalf("regional source should be state type, got %s", g.GrantType)
	}
	if len(g.EligibleLocations) != 1 || g.EligibleLocations[0] != "California" {
		t.Fatalf("region not applied: %v", g.EligibleLocations)
	}
	if g.AmountMax == nil || *g.AmountMax != 10000 {
		t.Fatalf("amount not parsed: %v", g.AmountMax)
	}
	if g.Deadline == nil || g.Deadline.Day() != 15 {
		t.Fatalf("deadline not parsed: %v", g.Deadline)
	}
	if g.SourceURL != srv.URL+"/programs/dream-fund/" {
		t.Fatalf("link not resolved: %q", g.SourceURL)
	}

	second := grants[1]
	if second.Deadline != nil || second.AmountMax != nil {
		t.Fatalf("absent fields must stay nil: %+v", second)
	}
}

func TestHTMLSourceRequiresConfig(t *testing.T) {
	source := NewHTMLSource(SourceConfig{ID: "empty"}, zap.NewNop())
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for missing selectors")
	}

	source = NewHTMLSource(SourceConfig{
		ID:        "no_seeds",
		Selectors: SelectorConfig{Container: "article"},
	}, zap.NewNop())
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for missing seeds")
	}
}
