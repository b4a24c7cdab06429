package sheets

import "context"

// Header is the first row written by ReplaceAll.
var Header = []string{"ID", "Date", "Category", "Amount", "Description"}

// RowMirror is an outbound copy of the expense table keyed by the id in the
// first column.
type RowMirror interface {
	// AppendRow adds one row after the last used row.
	AppendRow(ctx context.Context, cells []string) error
	// DeleteRow removes the row whose first cell equals id. A missing row is not an error.
	DeleteRow(ctx context.Context, id string) error
	// ReplaceAll rewrites the mirror as Header followed by rows.
	ReplaceAll(ctx context.Context, rows [][]string) error
}
