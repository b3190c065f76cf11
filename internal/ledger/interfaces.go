package ledger

import (
	"context"

	"github.com/dvloznov/receipt-organizer/internal/sheetstore"
)

// TabularStore is the row-store contract the coordinator depends on. The
// concrete implementation is sheetstore.Store; tests use fakes.
type TabularStore interface {
	// EnsureReady bootstraps the tab and header row.
	EnsureReady(ctx context.Context) error
	// ListRows returns every data row in sheet order.
	ListRows(ctx context.Context) ([]sheetstore.Row, error)
	// AppendRow adds one row at the end.
	AppendRow(ctx context.Context, r sheetstore.Row) error
	// DeleteRowAt removes the data row at a 1-based position.
	DeleteRowAt(ctx context.Context, position int) error
}
