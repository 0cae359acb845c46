package sheets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/match"
)

const (
	pipelineSheet       = "Grant Pipeline"
	submittedSheet      = "Submitted Applications"
	certificationsSheet = "Certifications"
	activityLogSheet    = "Activity Log"
)

var (
	pipelineHeaders = []string{
		"Grant ID", "Grant Name", "Source", "Funder", "Amount",
		"Deadline", "Days Left", "Eligibility Score", "Status",
		"Draft Link", "Notes", "Added Date",
	}
	submittedHeaders = []string{
		"Grant ID", "Grant Name", "Funder", "Amount Requested",
		"Submitted Date", "Confirmation #", "Expected Response",
		"Result", "Amount Awarded", "Notes",
	}
	certificationsHeaders = []string{
		"Certification", "Type", "Status", "Application Date",
		"Approval Date", "Expiration", "Benefits", "Next Steps", "Notes",
	}
	activityLogHeaders = []string{
		"Timestamp", "Action", "Grant/Certification", "Details",
	}
)

// Tracker mirrors the grant pipeline into a shared Google Sheet so
// application status can be worked outside the CLI.
type Tracker struct {
	api    api
	logger *zap.Logger
	now    func() time.Time
}

// NewTracker connects to the configured spreadsheet.
func NewTracker(ctx context.Context, config Config, logger *zap.Logger) (*Tracker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sheets config: %w", err)
	}
	api, err := newGoogleAPI(ctx, config)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{api: api, logger: logger.Named("sheets"), now: time.Now}, nil
}

// Setup creates the worksheet tabs and writes headers into any tab
// whose first row does not match.
func (t *Tracker) Setup(ctx context.Context) error {
	tabs := []string{pipelineSheet, submittedSheet, certificationsSheet, activityLogSheet}
	if err := t.api.EnsureTabs(ctx, tabs); err != nil {
		return err
	}

	headers := map[string][]string{
		pipelineSheet:       pipelineHeaders,
		submittedSheet:      submittedHeaders,
		certificationsSheet: certificationsHeaders,
		activityLogSheet:    activityLogHeaders,
	}
	for _, tab := range tabs {
		if err := t.ensureHeaders(ctx, tab, headers[tab]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) ensureHeaders(ctx context.Context, sheet string, headers []string) error {
	rangeA1 := fmt.Sprintf("'%s'!1:1", sheet)
	rows, err := t.api.Get(ctx, rangeA1)
	if err != nil {
		return err
	}

	if len(rows) > 0 && rowMatches(rows[0], headers) {
		return nil
	}

	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return t.api.Update(ctx, rangeA1, [][]any{row})
}

func rowMatches(row []any, headers []string) bool {
	if len(row) != len(headers) {
		return false
	}
	for i, cell := range row {
		if s, ok := cell.(string); !ok || s != headers[i] {
			return false
		}
	}
	return true
}

// AddToPipeline appends a matched grant to the pipeline tab.
func (t *Tracker) AddToPipeline(ctx context.Context, result match.Result, status, notes string) error {
	if status == "" {
		status = "New"
	}
	grant := result.Grant

	deadline := ""
	daysLeft := ""
	if grant.Deadline != nil {
		deadline = grant.Deadline.Format("2006-01-02")
	}
	if days, ok := grant.DaysUntilDeadline(t.now()); ok {
		daysLeft = strconv.Itoa(days)
	}

	row := []any{
		grant.ID,
		grant.Title,
		grant.Source,
		grant.Funder,
		grant.AmountDisplay(),
		deadline,
		daysLeft,
		fmt.Sprintf("%.0f%%", result.Score*100),
		status,
		"", // draft link
		notes,
		t.now().Format("2006-01-02 15:04"),
	}

	if err := t.api.Append(ctx, fmt.Sprintf("'%s'!A:L", pipelineSheet), row); err != nil {
		return err
	}
	t.logActivity(ctx, "Added to pipeline", grant.Title, fmt.Sprintf("Score: %.0f%%", result.Score*100))
	return nil
}

// UpdateStatus rewrites the status cell (and optionally draft link and
// notes) for a pipeline row found by grant ID.
func (t *Tracker) UpdateStatus(ctx context.Context, grantID, status, draftLink, notes string) error {
	rows, err := t.api.Get(ctx, fmt.Sprintf("'%s'!A:L", pipelineSheet))
	if err != nil {
		return err
	}

	for i, row := range rows {
		if len(row) == 0 || row[0] != grantID {
			continue
		}

		updates := map[string]any{
			fmt.Sprintf("'%s'!I%d", pipelineSheet, i+1): status,
		}
		if draftLink != "" {
			updates[fmt.Sprintf("'%s'!J%d", pipelineSheet, i+1)] = draftLink
		}
		if notes != "" {
			updates[fmt.Sprintf("'%s'!K%d", pipelineSheet, i+1)] = notes
		}
		for rangeA1, value := range updates {
			if err := t.api.Update(ctx, rangeA1, [][]any{{value}}); err != nil {
				return err
			}
		}

		name := grantID
		if len(row) > 1 {
			if s, ok := row[1].(string); ok {
				name = s
			}
		}
		t.logActivity(ctx, "Status updated", name, status)
		return nil
	}

	return fmt.Errorf("grant %s not found in pipeline", grantID)
}

// MarkSubmitted copies a pipeline row into the submitted tab and flips
// the pipeline status.
func (t *Tracker) MarkSubmitted(ctx context.Context, grantID, confirmation string, amountRequested float64, expectedResponse string) error {
	rows, err := t.api.Get(ctx, fmt.Sprintf("'%s'!A:L", pipelineSheet))
	if err != nil {
		return err
	}

	var grantRow []any
	for _, row := range rows {
		if len(row) > 0 && row[0] == grantID {
			grantRow = row
			break
		}
	}
	if grantRow == nil {
		return fmt.Errorf("grant %s not found in pipeline", grantID)
	}

	amount := cellString(grantRow, 4)
	if amountRequested > 0 {
		amount = fmt.Sprintf("$%.0f", amountRequested)
	}
	submitted := []any{
		cellString(grantRow, 0),
		cellString(grantRow, 1),
		cellString(grantRow, 3),
		amount,
		t.now().Format("2006-01-02"),
		confirmation,
		expectedResponse,
		"Pending",
		"",
		cellString(grantRow, 10),
	}

	if err := t.api.Append(ctx, fmt.Sprintf("'%s'!A:J", submittedSheet), submitted); err != nil {
		return err
	}
	if err := t.UpdateStatus(ctx, grantID, "Submitted", "", ""); err != nil {
		return err
	}
	t.logActivity(ctx, "Submitted", cellString(grantRow, 1), "Confirmation: "+confirmation)
	return nil
}

// AddCertification appends a certification to track.
func (t *Tracker) AddCertification(ctx context.Context, name, certType, status, benefits, nextSteps, notes string) error {
	if status == "" {
		status = "Not Started"
	}
	row := []any{name, certType, status, "", "", "", benefits, nextSteps, notes}
	if err := t.api.Append(ctx, fmt.Sprintf("'%s'!A:I", certificationsSheet), row); err != nil {
		return err
	}
	t.logActivity(ctx, "Certification added", name, status)
	return nil
}

// GrantExists reports whether a grant ID is already in the pipeline.
func (t *Tracker) GrantExists(ctx context.Context, grantID string) (bool, error) {
	rows, err := t.api.Get(ctx, fmt.Sprintf("'%s'!A:A", pipelineSheet))
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if len(row) > 0 && row[0] == grantID {
			return true, nil
		}
	}
	return false, nil
}

// GetPipeline returns the pipeline rows as header-keyed maps.
func (t *Tracker) GetPipeline(ctx context.Context) ([]map[string]string, error) {
	rows, err := t.api.Get(ctx, fmt.Sprintf("'%s'!A:L", pipelineSheet))
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return []map[string]string{}, nil
	}

	headers := rows[0]
	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		entry := make(map[string]string, len(headers))
		for i, h := range headers {
			key, _ := h.(string)
			entry[key] = cellString(row, i)
		}
		out = append(out, entry)
	}
	return out, nil
}

// Activity failures are logged and swallowed; the log tab is best
// effort.
func (t *Tracker) logActivity(ctx context.Context, action, item, details string) {
	row := []any{t.now().Format(time.RFC3339), action, item, details}
	if err := t.api.Append(ctx, fmt.Sprintf("'%s'!A:D", activityLogSheet), row); err != nil {
		t.logger.Warn("activity log append failed", zap.Error(err))
	}
}

func cellString(row []any, idx int) string {
	if idx >= len(row) {
		return ""
	}
	if s, ok := row[idx].(string); ok {
		return s
	}
	return fmt.Sprint(row[idx])
}
