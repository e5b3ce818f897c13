package storage

import (
	"context"
	"fmt"

	"finsight/internal/core"
)

const budgetColumns = `id, user_id, category, monthly_limit_cents, month, created_at, updated_at`

func scanBudget(s rowScanner) (core.Budget, error) {
	var (
		b                core.Budget
		category         string
		created, updated int64
	)
	if err := s.Scan(&b.ID, &b.UserID, &category, &b.MonthlyLimit.Cents, &b.Month, &created, &updated); err != nil {
		return core.Budget{}, err
	}
	b.Category = core.Category(category)
	b.CreatedAt = fromNanos(created)
	b.UpdatedAt = fromNanos(updated)
	return b, nil
}

// CreateBudget inserts b. A second budget for the same (user, category, month)
// fails with core.ErrConflict.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := r.timestamp()
	b.CreatedAt, b.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, string(b.Category), b.MonthlyLimit.Cents, b.Month,
		toNanos(b.CreatedAt), toNanos(b.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, fmt.Errorf("budget for %s in %s already exists: %w", b.Category, b.Month, core.ErrConflict)
		}
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, notFound(err, "budget")
	}
	return b, nil
}

func (r *SQLiteRepository) FindBudget(ctx context.Context, userID string, category core.Category, month string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND category = ? AND month = ?`,
		userID, string(category), month)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, notFound(err, "budget")
	}
	return b, nil
}

// ListBudgets returns the user's budgets, newest month first and by category
// within a month. An empty month lists every month.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID, month string) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ?`
	args := []any{userID}
	if month != "" {
		query += ` AND month = ?`
		args = append(args, month)
	}
	query += ` ORDER BY month DESC, category ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateBudgetLimit(ctx context.Context, userID, id string, limit core.Money) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET monthly_limit_cents = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		limit.Cents, toNanos(r.timestamp()), id, userID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := expectOne(res, "budget"); err != nil {
		return core.Budget{}, err
	}
	return r.GetBudget(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return expectOne(res, "budget")
}
