package sheets

import (
	"context"

	"finsight/internal/core"
)

// ExpenseMirror keeps an external copy of expenses keyed by expense ID.
// Both operations are idempotent.
type ExpenseMirror interface {
	Upsert(ctx context.Context, e core.Expense) error
	Delete(ctx context.Context, expenseID string) error
}
