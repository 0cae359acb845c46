package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marv-media/grant-finder/internal/ingest"
	"github.com/marv-media/grant-finder/internal/match"
	"github.com/marv-media/grant-finder/internal/models"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListParams filters ListGrants.
type ListParams struct {
	Source     string
	GrantType  string
	ActiveOnly bool // exclude grants whose deadline has passed
	Limit      int
	Offset     int
}

const grantCols = `id, source, source_url, title, description, funder,
	amount_min, amount_max, amount_description,
	deadline, posted_date, grant_type, funding_type,
	eligibility_summary, eligible_locations, eligible_industries,
	requires_woman_owned, requires_minority_owned, requires_veteran_owned,
	max_revenue, max_employees, min_years_in_business, required_certifications,
	application_url, application_requirements, contact_email, contact_phone,
	scraped_at`

func scanGrant(scan func(dest ...any) error) (models.Grant, error) {
	var g models.Grant
	err := scan(
		&g.ID, &g.Source, &g.SourceURL, &g.Title, &g.Description, &g.Funder,
		&g.AmountMin, &g.AmountMax, &g.AmountDescription,
		&g.Deadline, &g.PostedDate, &g.GrantType, &g.FundingType,
		&g.EligibilitySummary, &g.EligibleLocations, &g.EligibleIndustries,
		&g.RequiresWomanOwned, &g.RequiresMinorityOwned, &g.RequiresVeteranOwned,
		&g.MaxRevenue, &g.MaxEmployees, &g.MinYearsInBusiness, &g.RequiredCertifications,
		&g.ApplicationURL, &g.ApplicationRequirements, &g.ContactEmail, &g.ContactPhone,
		&g.ScrapedAt,
	)
	if err != nil {
		return g, err
	}
	g.Normalize()
	return g, nil
}

// UpsertGrant inserts a grant or refreshes an existing row in place.
// Implements ingest.GrantSink.
func (s *Store) UpsertGrant(ctx context.Context, g models.Grant) error {
	g.Normalize()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO grants (
			id, source, source_url, title, description, funder,
			amount_min, amount_max, amount_description,
			deadline, posted_date, grant_type, funding_type,
			eligibility_summary, eligible_locations, eligible_industries,
			requires_woman_owned, requires_minority_owned, requires_veteran_owned,
			max_revenue, max_employees, min_years_in_business, required_certifications,
			application_url, application_requirements, contact_email, contact_phone,
			scraped_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28
		)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			source_url = EXCLUDED.source_url,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			funder = EXCLUDED.funder,
			amount_min = EXCLUDED.amount_min,
			amount_max = EXCLUDED.amount_max,
			amount_description = EXCLUDED.amount_description,
			deadline = EXCLUDED.deadline,
			posted_date = EXCLUDED.posted_date,
			grant_type = EXCLUDED.grant_type,
			funding_type = EXCLUDED.funding_type,
			eligibility_summary = EXCLUDED.eligibility_summary,
			eligible_locations = EXCLUDED.eligible_locations,
			eligible_industries = EXCLUDED.eligible_industries,
			requires_woman_owned = EXCLUDED.requires_woman_owned,
			requires_minority_owned = EXCLUDED.requires_minority_owned,
			requires_veteran_owned = EXCLUDED.requires_veteran_owned,
			max_revenue = EXCLUDED.max_revenue,
			max_employees = EXCLUDED.max_employees,
			min_years_in_business = EXCLUDED.min_years_in_business,
			required_certifications = EXCLUDED.required_certifications,
			application_url = EXCLUDED.application_url,
			application_requirements = EXCLUDED.application_requirements,
			contact_email = EXCLUDED.contact_email,
			contact_phone = EXCLUDED.contact_phone,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = NOW()`,
		g.ID, g.Source, g.SourceURL, g.Title, g.Description, g.Funder,
		g.AmountMin, g.AmountMax, g.AmountDescription,
		g.Deadline, g.PostedDate, g.GrantType, g.FundingType,
		g.EligibilitySummary, g.EligibleLocations, g.EligibleIndustries,
		g.RequiresWomanOwned, g.RequiresMinorityOwned, g.RequiresVeteranOwned,
		g.MaxRevenue, g.MaxEmployees, g.MinYearsInBusiness, g.RequiredCertifications,
		g.ApplicationURL, g.ApplicationRequirements, g.ContactEmail, g.ContactPhone,
		g.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting grant %s: %w", g.ID, err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, id string) (models.Grant, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+grantCols+" FROM grants WHERE id = $1", id)
	g, err := scanGrant(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return g, fmt.Errorf("grant %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return g, fmt.Errorf("getting grant %s: %w", id, err)
	}
	return g, nil
}

// buildGrantFilter turns ListParams into a WHERE clause and its args.
func buildGrantFilter(params ListParams) (string, []any) {
	where := "WHERE 1=1"
	var args []any
	argIdx := 1

	if params.Source != "" {
		where += fmt.Sprintf(" AND source = $%d", argIdx)
		args = append(args, params.Source)
		argIdx++
	}
	if params.GrantType != "" {
		where += fmt.Sprintf(" AND grant_type = $%d", argIdx)
		args = append(args, params.GrantType)
		argIdx++
	}
	if params.ActiveOnly {
		where += " AND (deadline IS NULL OR deadline >= NOW())"
	}
	return where, args
}

func (s *Store) ListGrants(ctx context.Context, params ListParams) ([]models.Grant, error) {
	where, args := buildGrantFilter(params)

	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(
		"SELECT %s FROM grants %s ORDER BY deadline ASC NULLS LAST, scraped_at DESC LIMIT %d OFFSET %d",
		grantCols, where, limit, params.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing grants: %w", err)
	}
	defer rows.Close()

	grants := []models.Grant{}
	for rows.Next() {
		g, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// SaveMatch records a match result for a scan run.
func (s *Store) SaveMatch(ctx context.Context, runID string, result match.Result) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO matches (grant_id, run_id, score, reasons, warnings, disqualified, disqualification_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (grant_id, run_id) DO UPDATE SET
			score = EXCLUDED.score,
			reasons = EXCLUDED.reasons,
			warnings = EXCLUDED.warnings,
			disqualified = EXCLUDED.disqualified,
			disqualification_reason = EXCLUDED.disqualification_reason,
			matched_at = NOW()`,
		result.Grant.ID, runID, result.Score, result.Reasons, result.Warnings,
		result.Disqualified, result.DisqualificationReason,
	)
	if err != nil {
		return fmt.Errorf("saving match for %s: %w", result.Grant.ID, err)
	}
	return nil
}

// matchCols is grantCols qualified with the grants alias, plus the
// match columns.
const matchCols = `g.id, g.source, g.source_url, g.title, g.description, g.funder,
	g.amount_min, g.amount_max, g.amount_description,
	g.deadline, g.posted_date, g.grant_type, g.funding_type,
	g.eligibility_summary, g.eligible_locations, g.eligible_industries,
	g.requires_woman_owned, g.requires_minority_owned, g.requires_veteran_owned,
	g.max_revenue, g.max_employees, g.min_years_in_business, g.required_certifications,
	g.application_url, g.application_requirements, g.contact_email, g.contact_phone,
	g.scraped_at,
	m.score, m.reasons, m.warnings, m.disqualified, m.disqualification_reason`

// ListMatches returns the stored results for a run joined back to
// their grants, in ranked order.
func (s *Store) ListMatches(ctx context.Context, runID string, minScore float64) ([]match.Result, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+matchCols+`
		FROM matches m
		JOIN grants g ON g.id = m.grant_id
		WHERE m.run_id = $1 AND m.disqualified = FALSE AND m.score >= $2
		ORDER BY g.deadline ASC NULLS LAST, m.score DESC`,
		runID, minScore)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	results := []match.Result{}
	for rows.Next() {
		var r match.Result
		g, err := scanGrant(func(dest ...any) error {
			dest = append(dest, &r.Score, &r.Reasons, &r.Warnings,
				&r.Disqualified, &r.DisqualificationReason)
			return rows.Scan(dest...)
		})
		if err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		r.Grant = g
		results = append(results, r)
	}
	return results, rows.Err()
}

// SaveScanRun records the stats of a completed scan.
func (s *Store) SaveScanRun(ctx context.Context, stats ingest.ScanStats) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scan_runs (run_id, started_at, duration_ms, sources, found, saved, duplicates, errors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		stats.RunID, stats.StartedAt, stats.Duration.Milliseconds(),
		stats.Sources, stats.Found, stats.Saved, stats.Duplicates, stats.Errors,
	)
	if err != nil {
		return fmt.Errorf("saving scan run %s: %w", stats.RunID, err)
	}
	return nil
}

// User is an API account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash) VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at`,
		email, passwordHash,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return u, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return u, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}
