// Package sheetstore maintains the header-tagged row store backing receipt
// records: one Google Sheets tab with a fixed ordered header row. Every
// operation is an independent network round-trip; there is no client-side
// batching, caching or retry.
package sheetstore

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// TabName is the spreadsheet tab holding receipt rows.
const TabName = "Transactions"

// Headers is the fixed ordered column set. The amount column holds decimal
// text, not a numeric cell.
var Headers = []string{"id", "date", "item", "category", "amount", "drive_file_id"}

const (
	headerRange = "'" + TabName + "'!A1:F1"
	dataRange   = "'" + TabName + "'!A2:F"
	appendRange = "'" + TabName + "'!A:F"
)

// Row is one decoded spreadsheet row. Missing trailing cells decode as empty
// strings; the sheet is hand-editable and short rows are legitimate.
type Row struct {
	ID            string
	Date          string
	Item          string
	Category      string
	Amount        string
	AttachmentKey string
}

// Store is a client for one spreadsheet.
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
}

// New creates a store for the given spreadsheet.
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Store, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheetstore: create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID), nil
}

// NewWithService creates a store using an existing Sheets service. Useful
// when several stores share one authenticated client.
func NewWithService(svc *sheets.Service, spreadsheetID string) *Store {
	return &Store{svc: svc, spreadsheetID: spreadsheetID}
}

// EnsureReady verifies the tab and its header row, creating the tab and
// (re)writing the headers when missing or mismatched.
func (s *Store) EnsureReady(ctx context.Context) error {
	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("EnsureReady: get spreadsheet: %w", err)
	}

	if findTab(spreadsheet, TabName) == nil {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: TabName},
				},
			}},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("EnsureReady: add tab %q: %w", TabName, err)
		}
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("EnsureReady: read headers: %w", err)
	}

	if headersMatch(resp.Values) {
		return nil
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{header}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, headerRange, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("EnsureReady: write headers: %w", err)
	}

	return nil
}

// ListRows reads every data row beyond the header, in sheet order.
func (s *Store) ListRows(ctx context.Context) ([]Row, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, dataRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ListRows: read values: %w", err)
	}

	rows := make([]Row, 0, len(resp.Values))
	for _, cells := range resp.Values {
		rows = append(rows, decodeRow(cells))
	}
	return rows, nil
}

// AppendRow adds one row at the end of the tab.
func (s *Store) AppendRow(ctx context.Context, r Row) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{rowValues(r)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, appendRange, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("AppendRow: append values: %w", err)
	}
	return nil
}

// DeleteRowAt removes the data row at the given 1-based position (the first
// row below the header is position 1), shifting subsequent rows up. The
// position must come from a just-read snapshot; a concurrent writer can make
// it stale.
func (s *Store) DeleteRowAt(ctx context.Context, position int) error {
	if position < 1 {
		return fmt.Errorf("DeleteRowAt: position %d out of range", position)
	}

	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("DeleteRowAt: get spreadsheet: %w", err)
	}
	tab := findTab(spreadsheet, TabName)
	if tab == nil {
		return fmt.Errorf("DeleteRowAt: tab %q not found", TabName)
	}

	start, end := gridBounds(position)
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    tab.Properties.SheetId,
					Dimension:  "ROWS",
					StartIndex: start,
					EndIndex:   end,
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("DeleteRowAt: delete row %d: %w", position, err)
	}
	return nil
}

func findTab(spreadsheet *sheets.Spreadsheet, title string) *sheets.Sheet {
	for _, sh := range spreadsheet.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh
		}
	}
	return nil
}

// headersMatch reports whether the first returned row equals Headers exactly.
func headersMatch(values [][]interface{}) bool {
	if len(values) == 0 || len(values[0]) != len(Headers) {
		return false
	}
	for i, cell := range values[0] {
		if cellString(cell) != Headers[i] {
			return false
		}
	}
	return true
}

// decodeRow maps raw cells onto a Row, defaulting missing trailing cells to
// the empty string.
func decodeRow(cells []interface{}) Row {
	get := func(i int) string {
		if i < len(cells) {
			return cellString(cells[i])
		}
		return ""
	}
	return Row{
		ID:            get(0),
		Date:          get(1),
		Item:          get(2),
		Category:      get(3),
		Amount:        get(4),
		AttachmentKey: get(5),
	}
}

func rowValues(r Row) []interface{} {
	return []interface{}{r.ID, r.Date, r.Item, r.Category, r.Amount, r.AttachmentKey}
}

func cellString(cell interface{}) string {
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprint(cell)
}

// gridBounds converts a 1-based data position into the half-open 0-based
// grid row range expected by DeleteDimension. The header occupies grid row 0,
// so data position p lives at grid row p.
func gridBounds(position int) (start, end int64) {
	return int64(position), int64(position) + 1
}
