package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marv-media/grant-finder/internal/match"
	"github.com/marv-media/grant-finder/internal/schedule"
	"github.com/marv-media/grant-finder/internal/sheets"
	"github.com/marv-media/grant-finder/internal/store"
)

func (s *Server) handleListGrants(c echo.Context) error {
	params := store.ListParams{
		Source:     c.QueryParam("source"),
		GrantType:  c.QueryParam("grant_type"),
		ActiveOnly: c.QueryParam("active") != "false",
		Limit:      20,
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		params.Limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		params.Offset = o
	}

	grants, err := s.Store.ListGrants(c.Request().Context(), params)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"grants": grants,
		"count":  len(grants),
		"limit":  params.Limit,
		"offset": params.Offset,
	})
}

func (s *Server) handleGetGrant(c echo.Context) error {
	grant, err := s.Store.GetGrant(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "grant not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, grant)
}

// handleMatches scores every stored active grant against the company
// profile and returns the ranked shortlist.
func (s *Server) handleMatches(c echo.Context) error {
	minScore := match.DefaultMinScore
	if v, err := strconv.ParseFloat(c.QueryParam("min_score"), 64); err == nil && v >= 0 && v <= 1 {
		minScore = v
	}

	grants, err := s.Store.ListGrants(c.Request().Context(), store.ListParams{
		ActiveOnly: true,
		Limit:      1000,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	now := time.Now().UTC()
	matcher := match.New(s.Company.Eligibility(now),
		match.WithHardCertifications(s.Catalog.HardRequirements()))
	results := matcher.Rank(grants, minScore)

	return c.JSON(http.StatusOK, map[string]any{
		"matches":   results,
		"count":     len(results),
		"min_score": minScore,
		"evaluated": len(grants),
	})
}

// handleAlerts returns deadline alerts for currently eligible grants.
func (s *Server) handleAlerts(c echo.Context) error {
	grants, err := s.Store.ListGrants(c.Request().Context(), store.ListParams{Limit: 1000})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	now := time.Now().UTC()
	matcher := match.New(s.Company.Eligibility(now),
		match.WithHardCertifications(s.Catalog.HardRequirements()))
	eligible := matcher.FilterEligible(grants, match.DefaultMinScore)

	notifier := schedule.NewDeadlineNotifier(nil)
	alerts := notifier.CheckDeadlines(eligible, now)

	return c.JSON(http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// handleExport pushes ranked matches into the Google Sheets pipeline.
// Sheets credentials come from the environment; without them the
// endpoint reports itself unavailable.
func (s *Server) handleExport(c echo.Context) error {
	cfg, err := sheets.ConfigFromEnv()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "sheets export is not configured: " + err.Error()})
	}

	ctx := c.Request().Context()
	tracker, err := sheets.NewTracker(ctx, cfg, s.Logger)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if err := tracker.Setup(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	grants, err := s.Store.ListGrants(ctx, store.ListParams{ActiveOnly: true, Limit: 1000})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	now := time.Now().UTC()
	matcher := match.New(s.Company.Eligibility(now),
		match.WithHardCertifications(s.Catalog.HardRequirements()))
	results := matcher.Rank(grants, match.DefaultMinScore)

	added := 0
	for _, r := range results {
		exists, err := tracker.GrantExists(ctx, r.Grant.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		if exists {
			continue
		}
		if err := tracker.AddToPipeline(ctx, r, "New", ""); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		added++
	}

	return c.JSON(http.StatusOK, map[string]any{
		"matched": len(results),
		"added":   added,
	})
}

func (s *Server) handleProfile(c echo.Context) error {
	now := time.Now().UTC()
	return c.JSON(http.StatusOK, map[string]any{
		"company":     s.Company,
		"eligibility": s.Company.Eligibility(now),
	})
}

func (s *Server) handleSources(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"sources": s.Registry.Sources,
		"enabled": len(s.Registry.Enabled()),
	})
}

func (s *Server) handleCertifications(c echo.Context) error {
	now := time.Now().UTC()
	return c.JSON(http.StatusOK, map[string]any{
		"certifications": s.Catalog.Certifications,
		"recommended":    s.Catalog.Recommended(s.Company.Eligibility(now)),
		"hard":           s.Catalog.HardRequirements(),
	})
}
