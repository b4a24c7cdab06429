package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "expensetracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// mirrored columns A..E
const columnSpan = "A:E"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.RowMirror = (*Client)(nil)

// Options configures the spreadsheet target and service account credentials.
// CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	creds, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", opts.SpreadsheetID,
		"sheet", sheetNameOrDefault(opts.SheetName))

	return NewWithService(svc, opts.SpreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetNameOrDefault(sheetName),
	}
}

func sheetNameOrDefault(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "Expenses"
	}
	return name
}

func loadCredentials(ctx context.Context, opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", opts.CredentialsFile, "size", len(data))
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func (c *Client) span() string {
	return fmt.Sprintf("%s!%s", c.sheetName, columnSpan)
}

// AppendRow adds cells as a new row at the end of the sheet.
func (c *Client) AppendRow(ctx context.Context, cells []string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	vr := &gsheet.ValueRange{Values: toValueRows([][]string{cells})}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.span(), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", c.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Appended row to sheet", "sheet", c.sheetName, "range", ref)
	return nil
}

// DeleteRow removes the first row whose column A equals id.
func (c *Client) DeleteRow(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}

	idx := rowIndexOf(resp.Values, id)
	if idx < 0 {
		slog.InfoContext(ctx, "Row not found in sheet, nothing to delete", "sheet", c.sheetName, "id", id)
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(idx),
					EndIndex:   int64(idx + 1),
					// zero is a valid sheet id and row index
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d from %s: %w", idx+1, c.sheetName, err)
	}

	slog.InfoContext(ctx, "Deleted row from sheet", "sheet", c.sheetName, "id", id, "row", idx+1)
	return nil
}

// ReplaceAll clears the mirrored columns and writes the header plus rows.
func (c *Client) ReplaceAll(ctx context.Context, rows [][]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.span(), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", c.sheetName, err)
	}

	all := make([][]string, 0, len(rows)+1)
	all = append(all, ports.Header)
	all = append(all, rows...)

	vr := &gsheet.ValueRange{Values: toValueRows(all)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.sheetName+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Rewrote sheet", "sheet", c.sheetName, "rows", len(rows))
	return nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	id, ok := sheetIDByTitle(ss, c.sheetName)
	if !ok {
		return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
	}
	return id, nil
}

func sheetIDByTitle(ss *gsheet.Spreadsheet, title string) (int64, bool) {
	if ss == nil {
		return 0, false
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, true
		}
	}
	return 0, false
}

// rowIndexOf returns the zero-based row whose first cell equals id, or -1.
func rowIndexOf(values [][]any, id string) int {
	id = strings.TrimSpace(id)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}

func toValueRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		cells := make([]any, len(r))
		for j, v := range r {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
