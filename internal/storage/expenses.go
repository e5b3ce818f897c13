package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finsight/internal/core"
)

// ExpenseFilter narrows ListExpenses. Zero values mean "no constraint";
// Start and End are inclusive.
type ExpenseFilter struct {
	Category core.Category
	Start    time.Time
	End      time.Time
	Limit    int
	Skip     int
}

const expenseColumns = `id, user_id, amount_cents, category, description, date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e                      core.Expense
		category               string
		date, created, updated int64
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Amount.Cents, &category, &e.Description, &date, &created, &updated); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	e.Date = fromNanos(date)
	e.CreatedAt = fromNanos(created)
	e.UpdatedAt = fromNanos(updated)
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	date, err := expenseDate(e.Date)
	if err != nil {
		return core.Expense{}, err
	}
	now := r.timestamp()
	e.CreatedAt, e.UpdatedAt = now, now
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Amount.Cents, string(e.Category), e.Description,
		date, toNanos(e.CreatedAt), toNanos(e.UpdatedAt))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents)

	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, notFound(err, "expense")
	}
	return e, nil
}

// GetExpenseByID ignores ownership. It is meant for the background worker.
func (r *SQLiteRepository) GetExpenseByID(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, notFound(err, "expense")
	}
	return e, nil
}

func filterClause(userID string, f ExpenseFilter) (string, []any) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if !f.Start.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, toNanos(f.Start))
	}
	if !f.End.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, toNanos(f.End))
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// ListExpenses returns one page of matching expenses, newest date first, and
// the total number of matches.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, f ExpenseFilter) ([]core.Expense, int, error) {
	where, args := filterClause(userID, f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses` + where + ` ORDER BY date DESC, created_at DESC, rowid DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Skip)
	}
	list, err := r.queryExpenses(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListExpensesInRange returns every expense of the user inside [start, end]
// in insertion order. Zero bounds are open.
func (r *SQLiteRepository) ListExpensesInRange(ctx context.Context, userID string, start, end time.Time) ([]core.Expense, error) {
	where, args := filterClause(userID, ExpenseFilter{Start: start, End: end})
	return r.queryExpenses(ctx, `SELECT `+expenseColumns+` FROM expenses`+where+` ORDER BY rowid ASC`, args...)
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// UpdateExpense replaces the mutable fields of an expense owned by e.UserID.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	date, err := expenseDate(e.Date)
	if err != nil {
		return core.Expense{}, err
	}
	e.UpdatedAt = r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET amount_cents = ?, category = ?, description = ?, date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		e.Amount.Cents, string(e.Category), e.Description, date, toNanos(e.UpdatedAt),
		e.ID, e.UserID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if err := expectOne(res, "expense"); err != nil {
		return core.Expense{}, err
	}
	return r.GetExpense(ctx, e.UserID, e.ID)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectOne(res, "expense")
}
