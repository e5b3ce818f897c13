package storage

import (
	"context"
	"fmt"
	"time"

	"finsight/internal/core"
)

const insightColumns = `id, user_id, insight_type, data_snapshot, response, created_at, expires_at`

func scanInsight(s rowScanner) (core.Insight, error) {
	var (
		in               core.Insight
		kind, snapshot   string
		created, expires int64
	)
	if err := s.Scan(&in.ID, &in.UserID, &kind, &snapshot, &in.Response, &created, &expires); err != nil {
		return core.Insight{}, err
	}
	in.Type = core.InsightType(kind)
	in.DataSnapshot = []byte(snapshot)
	in.CreatedAt = fromNanos(created)
	in.ExpiresAt = fromNanos(expires)
	return in, nil
}

func (r *SQLiteRepository) CreateInsight(ctx context.Context, in core.Insight) error {
	snapshot := string(in.DataSnapshot)
	if snapshot == "" {
		snapshot = "{}"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ai_insights (`+insightColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, string(in.Type), snapshot, in.Response,
		toNanos(in.CreatedAt), toNanos(in.ExpiresAt))
	if err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}

// LatestInsight returns the newest insight of type t created at or after
// createdSince that is still unexpired at now.
func (r *SQLiteRepository) LatestInsight(ctx context.Context, userID string, t core.InsightType, createdSince, now time.Time) (core.Insight, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+insightColumns+` FROM ai_insights
		 WHERE user_id = ? AND insight_type = ? AND created_at >= ? AND expires_at > ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT 1`,
		userID, string(t), toNanos(createdSince), toNanos(now))
	in, err := scanInsight(row)
	if err != nil {
		return core.Insight{}, notFound(err, "insight")
	}
	return in, nil
}

func (r *SQLiteRepository) ListActiveInsights(ctx context.Context, userID string, now time.Time, limit int) ([]core.Insight, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+insightColumns+` FROM ai_insights
		 WHERE user_id = ? AND expires_at > ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		userID, toNanos(now), limit)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	out := make([]core.Insight, 0)
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insights: %w", err)
	}
	return out, nil
}

// PurgeExpiredInsights deletes every insight whose expiry is at or before now.
func (r *SQLiteRepository) PurgeExpiredInsights(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ai_insights WHERE expires_at <= ?`, toNanos(now))
	if err != nil {
		return 0, fmt.Errorf("purge insights: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
