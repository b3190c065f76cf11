// Package receipt defines the expense record stored in the spreadsheet and
// the pure helpers around it: identifiers, date normalization and submission
// validation.
package receipt

import (
	"github.com/shopspring/decimal"
)

// Receipt is the sole persisted entity. Date is always the canonical
// YYYY-MM-DD form. AttachmentKey is the file store key of the uploaded
// receipt image, or empty when the record has no attachment.
type Receipt struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Item          string          `json:"item"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	AttachmentKey string          `json:"drive_file_id"`
}

// Candidate is a submitted record before an ID has been assigned. Amount is
// nullable so a missing submission value is distinguishable from an explicit
// zero.
type Candidate struct {
	Date     string
	Item     string
	Category string
	Amount   decimal.NullDecimal
}

// ValidationError is a user-facing rejection of a submission. The message is
// safe to show as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
