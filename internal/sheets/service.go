package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// api is the slice of the Sheets API the tracker needs. The real
// implementation wraps *sheets.Service; tests substitute a fake.
type api interface {
	EnsureTabs(ctx context.Context, titles []string) error
	Append(ctx context.Context, rangeA1 string, row []any) error
	Get(ctx context.Context, rangeA1 string) ([][]any, error)
	Update(ctx context.Context, rangeA1 string, values [][]any) error
}

type googleAPI struct {
	service       *sheets.Service
	spreadsheetID string
}

func newGoogleAPI(ctx context.Context, config Config) (*googleAPI, error) {
	tokenSource, err := tokenSourceFor(ctx, config)
	if err != nil {
		return nil, err
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	service, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return &googleAPI{service: service, spreadsheetID: config.SpreadsheetID}, nil
}

func tokenSourceFor(ctx context.Context, config Config) (oauth2.TokenSource, error) {
	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		return jwtConfig.TokenSource(ctx), nil
	}

	client := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
	token := &oauth2.Token{
		RefreshToken: config.RefreshToken,
		TokenType:    "Bearer",
	}
	return client.TokenSource(ctx, token), nil
}

// EnsureTabs creates any missing worksheet tabs.
func (g *googleAPI) EnsureTabs(ctx context.Context, titles []string) error {
	spreadsheet, err := g.service.Spreadsheets.Get(g.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet: %w", err)
	}

	existing := make(map[string]bool, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		existing[sheet.Properties.Title] = true
	}

	var requests []*sheets.Request
	for _, title := range titles {
		if existing[title] {
			continue
		}
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		})
	}
	if len(requests) == 0 {
		return nil
	}

	_, err = g.service.Spreadsheets.BatchUpdate(g.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("adding tabs: %w", err)
	}
	return nil
}

func (g *googleAPI) Append(ctx context.Context, rangeA1 string, row []any) error {
	_, err := g.service.Spreadsheets.Values.Append(g.spreadsheetID, rangeA1, &sheets.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending to %s: %w", rangeA1, err)
	}
	return nil
}

func (g *googleAPI) Get(ctx context.Context, rangeA1 string) ([][]any, error) {
	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, rangeA1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rangeA1, err)
	}
	return resp.Values, nil
}

func (g *googleAPI) Update(ctx context.Context, rangeA1 string, values [][]any) error {
	_, err := g.service.Spreadsheets.Values.Update(g.spreadsheetID, rangeA1, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("updating %s: %w", rangeA1, err)
	}
	return nil
}
