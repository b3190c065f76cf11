// Package archive mirrors the spreadsheet record set into BigQuery for
// analysis. The sheet remains the source of truth; archiving is a one-shot
// export, not part of the interactive flows.
package archive

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/option"

	"github.com/dvloznov/receipt-organizer/internal/receipt"
)

// ReceiptRow is one archived record. Amount is kept as decimal text, the
// same representation the sheet uses.
type ReceiptRow struct {
	ReceiptID     string             `bigquery:"receipt_id"`
	Profile       string             `bigquery:"profile"`
	Date          bigquery.NullDate  `bigquery:"receipt_date"`
	Item          string             `bigquery:"item"`
	Category      string             `bigquery:"category"`
	Amount        string             `bigquery:"amount"`
	AttachmentKey string             `bigquery:"drive_file_id"`
	ArchivedTS    time.Time          `bigquery:"archived_ts"`
}

// Mirror writes receipt rows into one BigQuery table.
type Mirror struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewMirror creates a mirror for the given project, dataset and table.
func NewMirror(ctx context.Context, projectID, dataset, table string, opts ...option.ClientOption) (*Mirror, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: bigquery client: %w", err)
	}
	return &Mirror{client: client, dataset: dataset, table: table}, nil
}

// Close releases the BigQuery client.
func (m *Mirror) Close() error {
	return m.client.Close()
}

// Archive streams the records into the table via the inserter. It returns
// the number of rows written.
func (m *Mirror) Archive(ctx context.Context, profile string, records []receipt.Receipt) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now()
	rows := make([]*ReceiptRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, toRow(profile, rec, now))
	}

	inserter := m.client.Dataset(m.dataset).Table(m.table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return 0, fmt.Errorf("archive: inserting rows: %w", err)
	}

	return len(rows), nil
}

// toRow converts a record for insertion. A date cell that is not canonical
// (the sheet is hand-editable) archives as NULL rather than failing the
// whole export.
func toRow(profile string, rec receipt.Receipt, archivedAt time.Time) *ReceiptRow {
	row := &ReceiptRow{
		ReceiptID:     rec.ID,
		Profile:       profile,
		Item:          rec.Item,
		Category:      rec.Category,
		Amount:        rec.Amount.String(),
		AttachmentKey: rec.AttachmentKey,
		ArchivedTS:    archivedAt,
	}
	if d, err := civil.ParseDate(rec.Date); err == nil {
		row.Date = bigquery.NullDate{Date: d, Valid: true}
	}
	return row
}
