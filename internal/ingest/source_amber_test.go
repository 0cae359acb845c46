package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestAmberMonthlyGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>No category grants this month.</p></body></html>`))
	}))
	t.Cleanup(srv.Close)

	source := NewAmberGrantSource(SourceConfig{
		ID:      "amber_grant",
		Name:    "Amber Grant for Women",
		BaseURL: srv.URL,
	}, zap.NewNop())
	source.now = func() time.Time {
		return time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	}

	grants, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(grants))
	}

	g := grants[0]
	if g.ID != "amber_grant_monthly_202609" {
		t.Fatalf("unexpected ID %q", g.ID)
	}
	if !g.RequiresWomanOwned {
		t.Fatal("monthly grant must require woman ownership")
	}
	if g.AmountMax == nil || *g.AmountMax != 10000 {
		t.Fatalf("amount not parsed: %v", g.AmountMax)
	}
	if g.Deadline == nil {
		t.Fatal("deadline missing")
	}
	want := time.Date(2026, 9, 30, 23, 59, 59, 0, time.UTC)
	if !g.Deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", g.Deadline, want)
	}
	if len(g.ApplicationRequirements) != 4 {
		t.Fatalf("requirements = %v", g.ApplicationRequirements)
	}
}

func TestAmberCategoryGrants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="grant-card">
				<h3>Startup Grant</h3>
				<span class="amount">$10,000</span>
				<span class="deadline">2026-12-31</span>
				<a href="/startup-grant/">Apply</a>
			</div>
		</body></html>`))
	}))
	t.Cleanup(srv.Close)

	source := NewAmberGrantSource(SourceConfig{
		ID:      "amber_grant",
		Name:    "Amber Grant for Women",
		BaseURL: srv.URL,
	}, zap.NewNop())
	source.now = func() time.Time {
		return time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	}

	grants, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(grants) != 2 {
		t.Fatalf("expected monthly plus category grant, got %d", len(grants))
	}

	cat := grants[1]
	if cat.ID != "amber_grant_startup_grant" {
		t.Fatalf("unexpected ID %q", cat.ID)
	}
	if cat.AmountMax == nil || *cat.AmountMax != 10000 {
		t.Fatalf("amount not parsed: %v", cat.AmountMax)
	}
	if cat.Deadline == nil || cat.Deadline.Day() != 31 || cat.Deadline.Month() != time.December {
		t.Fatalf("deadline not parsed: %v", cat.Deadline)
	}
	if cat.SourceURL != srv.URL+"/startup-grant/" {
		t.Fatalf("link not resolved: %q", cat.SourceURL)
	}
}

func TestAmberSiteDownStillYieldsMonthly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	source := NewAmberGrantSource(SourceConfig{
		ID:      "amber_grant",
		Name:    "Amber Grant for Women",
		BaseURL: srv.URL,
	}, zap.NewNop())

	grants, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected synthesized monthly grant, got %d", len(grants))
	}
}

func TestEndOfMonthDecemberRollover(t *testing.T) {
	got := endOfMonth(time.Date(2026, 12, 5, 10, 0, 0, 0, time.UTC))
	want := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSlugify(t *testing.T) {
	if s := slugify("Startup Grant!  (2026)"); s != "startup_grant_2026" {
		t.Fatalf("got %q", s)
	}
}
