package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/certs"
	"github.com/marv-media/grant-finder/internal/ingest"
	"github.com/marv-media/grant-finder/internal/profile"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	company, err := profile.Load("")
	if err != nil {
		t.Fatalf("load company profile: %v", err)
	}
	registry, err := ingest.LoadRegistry("")
	if err != nil {
		t.Fatalf("load source registry: %v", err)
	}
	catalog, err := certs.Load("")
	if err != nil {
		t.Fatalf("load certification catalog: %v", err)
	}

	return NewServer(nil, company, registry, catalog, zap.NewNop())
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "OK" {
		t.Fatalf("health body = %q, want OK", got)
	}
}

func TestProfileHandler(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/profile")

	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d, want 200", rec.Code)
	}
	var body struct {
		Company     profile.Company     `json:"company"`
		Eligibility profile.Eligibility `json:"eligibility"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode profile body: %v", err)
	}
	if body.Company.LegalName == "" {
		t.Fatal("profile response missing company name")
	}
	if body.Company.AddressState != "CA" {
		t.Fatalf("company state = %q, want CA", body.Company.AddressState)
	}
	if body.Eligibility.YearsInBusiness <= 0 {
		t.Fatalf("years in business = %d, want > 0", body.Eligibility.YearsInBusiness)
	}
}

func TestSourcesHandler(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/sources")

	if rec.Code != http.StatusOK {
		t.Fatalf("sources status = %d, want 200", rec.Code)
	}
	var body struct {
		Sources []ingest.SourceConfig `json:"sources"`
		Enabled int                   `json:"enabled"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode sources body: %v", err)
	}
	if len(body.Sources) == 0 {
		t.Fatal("sources response is empty")
	}
	if body.Enabled == 0 {
		t.Fatal("expected at least one enabled source")
	}
	found := false
	for _, src := range body.Sources {
		if src.ID == "grants_gov" {
			found = true
		}
	}
	if !found {
		t.Fatal("grants_gov missing from sources response")
	}
}

func TestCertificationsHandler(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/certifications")

	if rec.Code != http.StatusOK {
		t.Fatalf("certifications status = %d, want 200", rec.Code)
	}
	var body struct {
		Certifications []certs.Certification `json:"certifications"`
		Hard           []string              `json:"hard"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode certifications body: %v", err)
	}
	if len(body.Certifications) == 0 {
		t.Fatal("certifications response is empty")
	}
	if len(body.Hard) == 0 {
		t.Fatal("expected hard certification requirements")
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	s := testServer(t)

	for _, path := range []string{"/api/v1/admin/scan", "/api/v1/admin/job/abc"} {
		method := http.MethodGet
		if path == "/api/v1/admin/scan" {
			method = http.MethodPost
		}
		rec := doRequest(t, s, method, path)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s status = %d, want 401", method, path, rec.Code)
		}
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
