// Package google exports building budgets to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"condomini/internal/core"
	ports "condomini/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var _ ports.BudgetWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteBudgets replaces the building's budget tab with a fresh table. Each
// budget row becomes one sheet row: year, month, total income, total
// spending, balance, approval.
func (c *Client) WriteBudgets(ctx context.Context, buildingName string, budgets []core.MonthlyBudget) error {
	sheetName := sanitizeSheetName(buildingName)
	if err := c.ensureSheet(ctx, sheetName); err != nil {
		return err
	}

	values := [][]any{
		{"Year", "Month", "Income", "Spending", "Balance", "Approved", "Approved By"},
	}
	for _, b := range budgets {
		income := b.TotalIncome()
		spending := b.TotalSpending()
		balance := core.Money{Cents: income.Cents - spending.Cents}
		approved := ""
		if b.Approved {
			approved = "yes"
		}
		values = append(values, []any{
			b.Year,
			time.Month(b.Month).String(),
			income.String(),
			spending.String(),
			balance.String(),
			approved,
			b.ApprovedBy,
		})
	}

	clearRange := fmt.Sprintf("'%s'!A:G", sheetName)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear budget sheet: %w", err)
	}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("'%s'!A1", sheetName),
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write budget sheet: %w", err)
	}

	slog.InfoContext(ctx, "Exported budgets to sheet",
		"sheet", sheetName,
		"rows", len(budgets))
	return nil
}

// ensureSheet creates the tab when the spreadsheet does not have it yet.
func (c *Client) ensureSheet(ctx context.Context, sheetName string) error {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range meta.Sheets {
		if s.Properties != nil && s.Properties.Title == sheetName {
			return nil
		}
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheetName},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheet %q: %w", sheetName, err)
	}
	return nil
}

// sanitizeSheetName strips the characters Sheets rejects in tab titles.
func sanitizeSheetName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Budgets"
	}
	replacer := strings.NewReplacer("[", "", "]", "", "*", "", "?", "", ":", "", "/", "-", "\\", "-", "'", "")
	name = replacer.Replace(name)
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}
