// Package ledger coordinates receipt persistence across the two independent
// backends: the spreadsheet row store and the attachment file store. There
// is deliberately no transactionality between them; the accepted failure
// modes are documented on Create and Delete.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/receipt-organizer/internal/filestore"
	"github.com/dvloznov/receipt-organizer/internal/imaging"
	"github.com/dvloznov/receipt-organizer/internal/receipt"
	"github.com/dvloznov/receipt-organizer/internal/sheetstore"
)

// Attachment is an uploaded receipt file accompanying a submission.
type Attachment struct {
	Filename string
	Data     []byte
}

// Service orchestrates create, list and delete across the two stores.
type Service struct {
	tab       TabularStore
	files     filestore.Store
	validator *receipt.Validator
	log       zerolog.Logger
}

// NewService wires a coordinator. Both stores are constructed by the caller
// at startup and passed in explicitly.
func NewService(tab TabularStore, files filestore.Store, validator *receipt.Validator, log zerolog.Logger) *Service {
	return &Service{
		tab:       tab,
		files:     files,
		validator: validator,
		log:       log,
	}
}

// Create persists one receipt: validate, assign an ID, upload the attachment
// if present, ensure the sheet schema, append the row.
//
// The attachment upload and the row append are independent remote calls. If
// the append fails after a successful upload, the uploaded file stays behind
// with no compensating cleanup; that orphan is an accepted limitation, not a
// rollback bug.
func (s *Service) Create(ctx context.Context, cand receipt.Candidate, att *Attachment) (receipt.Receipt, error) {
	cand, err := s.validator.Validate(cand)
	if err != nil {
		return receipt.Receipt{}, err
	}

	if att != nil {
		if !imaging.IsSupported(att.Filename) {
			return receipt.Receipt{}, &receipt.ValidationError{
				Field:   "file",
				Message: "Unsupported file type. Use JPG, PNG, GIF, WebP, BMP or PDF.",
			}
		}
		if !imaging.IsPDF(att.Filename) {
			if err := imaging.Validate(att.Data, att.Filename); err != nil {
				return receipt.Receipt{}, err
			}
		}
	}

	rec := receipt.Receipt{
		ID:       receipt.NewID(),
		Date:     cand.Date,
		Item:     cand.Item,
		Category: cand.Category,
		Amount:   cand.Amount.Decimal,
	}

	if att != nil {
		prep, err := imaging.Prepare(att.Data, att.Filename)
		if err != nil {
			return receipt.Receipt{}, fmt.Errorf("Create: prepare attachment: %w", err)
		}

		name := receipt.AttachmentFilename(rec.ID, prep.Filename)
		key, err := s.files.Upload(ctx, prep.Data, name, prep.MIMEType)
		if err != nil {
			return receipt.Receipt{}, fmt.Errorf("Create: upload attachment: %w", err)
		}
		rec.AttachmentKey = key
	}

	if err := s.tab.EnsureReady(ctx); err != nil {
		return receipt.Receipt{}, fmt.Errorf("Create: ensure sheet ready: %w", err)
	}

	if err := s.tab.AppendRow(ctx, encodeRow(rec)); err != nil {
		return receipt.Receipt{}, fmt.Errorf("Create: append row: %w", err)
	}

	s.log.Info().
		Str("receipt_id", rec.ID).
		Str("attachment_key", rec.AttachmentKey).
		Msg("Receipt created")

	return rec, nil
}

// Delete removes a receipt by ID. An unknown ID is a successful no-op, so
// repeated deletes are idempotent.
//
// The row position is computed from a snapshot read immediately before the
// positional delete; a concurrent writer can shift rows in that window. The
// attachment delete runs after the row delete and is best-effort: failures
// are logged and suppressed, never propagated.
func (s *Service) Delete(ctx context.Context, id string) error {
	rows, err := s.tab.ListRows(ctx)
	if err != nil {
		return fmt.Errorf("Delete: list rows: %w", err)
	}

	position := 0
	attachmentKey := ""
	for i, row := range rows {
		if row.ID == id {
			position = i + 1
			attachmentKey = row.AttachmentKey
			break
		}
	}
	if position == 0 {
		return nil
	}

	if err := s.tab.DeleteRowAt(ctx, position); err != nil {
		return fmt.Errorf("Delete: delete row: %w", err)
	}

	if attachmentKey != "" {
		if err := s.files.Delete(ctx, attachmentKey); err != nil {
			s.log.Warn().
				Err(err).
				Str("receipt_id", id).
				Str("attachment_key", attachmentKey).
				Msg("Attachment cleanup failed; row already deleted")
		}
	}

	s.log.Info().Str("receipt_id", id).Msg("Receipt deleted")
	return nil
}

// List reads back the full ordered record set. There is no caching between
// calls; every List is a fresh read.
func (s *Service) List(ctx context.Context) ([]receipt.Receipt, error) {
	rows, err := s.tab.ListRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: list rows: %w", err)
	}

	records := make([]receipt.Receipt, 0, len(rows))
	for _, row := range rows {
		records = append(records, decodeRecord(row))
	}
	return records, nil
}

func encodeRow(rec receipt.Receipt) sheetstore.Row {
	return sheetstore.Row{
		ID:            rec.ID,
		Date:          rec.Date,
		Item:          rec.Item,
		Category:      rec.Category,
		Amount:        rec.Amount.String(),
		AttachmentKey: rec.AttachmentKey,
	}
}

// decodeRecord maps a sheet row onto a record. The sheet is hand-editable;
// an amount cell that fails to parse decodes as zero rather than failing the
// whole read.
func decodeRecord(row sheetstore.Row) receipt.Receipt {
	amount, err := decimal.NewFromString(strings.TrimSpace(row.Amount))
	if err != nil {
		amount = decimal.Zero
	}
	return receipt.Receipt{
		ID:            row.ID,
		Date:          row.Date,
		Item:          row.Item,
		Category:      row.Category,
		Amount:        amount,
		AttachmentKey: row.AttachmentKey,
	}
}
