package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Values is the slice of the Sheets API the backend uses.
type Values interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Clear(ctx context.Context, rng string) error
	Update(ctx context.Context, rng string, rows [][]any) error
	Append(ctx context.Context, rng string, rows [][]any) error

	// SheetTitles lists the worksheets of the spreadsheet.
	SheetTitles(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string) error
}

// apiValues calls the real Sheets API for one spreadsheet.
type apiValues struct {
	svc           *gsheets.Service
	spreadsheetID string
}

// NewAPIValues connects to the Sheets API. With an empty credentialsFile
// application default credentials are used.
func NewAPIValues(ctx context.Context, spreadsheetID, credentialsFile string) (Values, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &apiValues{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (a *apiValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(a.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (a *apiValues) Clear(ctx context.Context, rng string) error {
	_, err := a.svc.Spreadsheets.Values.Clear(a.spreadsheetID, rng, &gsheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (a *apiValues) Update(ctx context.Context, rng string, rows [][]any) error {
	_, err := a.svc.Spreadsheets.Values.Update(a.spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (a *apiValues) Append(ctx context.Context, rng string, rows [][]any) error {
	_, err := a.svc.Spreadsheets.Values.Append(a.spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (a *apiValues) SheetTitles(ctx context.Context) ([]string, error) {
	ss, err := a.svc.Spreadsheets.Get(a.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (a *apiValues) AddSheet(ctx context.Context, title string) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: title}},
		}},
	}
	_, err := a.svc.Spreadsheets.BatchUpdate(a.spreadsheetID, req).Context(ctx).Do()
	return err
}
