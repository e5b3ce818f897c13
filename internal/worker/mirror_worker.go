package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finsight/internal/amqp"
	"finsight/internal/core"
	applog "finsight/internal/log"
	"finsight/internal/sheets"
)

type ExpenseGetter interface {
	GetExpenseByID(ctx context.Context, id string) (core.Expense, error)
}

// MirrorWorker applies expense events to an ExpenseMirror.
type MirrorWorker struct {
	expenses ExpenseGetter
	mirror   sheets.ExpenseMirror
}

func NewMirrorWorker(expenses ExpenseGetter, mirror sheets.ExpenseMirror) *MirrorWorker {
	return &MirrorWorker{expenses: expenses, mirror: mirror}
}

// HandleEvent reads the current state of the expense rather than trusting the
// event payload, so replays and out-of-order deliveries converge. A returned
// error asks the broker to redeliver.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event", "type", ev.Type, "expense_id", ev.ExpenseID)

	switch ev.Type {
	case amqp.ExpenseCreated, amqp.ExpenseUpdated:
		e, err := w.expenses.GetExpenseByID(ctx, ev.ExpenseID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted since; the delete event removes the row.
			slog.WarnContext(ctx, "Expense no longer exists, skipping", "expense_id", ev.ExpenseID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get expense: %w", err)
		}
		if err := w.mirror.Upsert(ctx, e); err != nil {
			return fmt.Errorf("mirror expense: %w", err)
		}
	case amqp.ExpenseDeleted:
		if err := w.mirror.Delete(ctx, ev.ExpenseID); err != nil {
			return fmt.Errorf("remove mirrored expense: %w", err)
		}
	default:
		slog.WarnContext(ctx, "Ignoring unknown expense event", "type", ev.Type)
		return nil
	}

	slog.InfoContext(ctx, "Expense event applied",
		applog.FieldOperation, applog.OpMirror, "type", ev.Type, "expense_id", ev.ExpenseID)
	return nil
}
