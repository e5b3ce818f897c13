package storage

import (
	"context"
	"fmt"
	"strings"

	"finsight/internal/core"
)

const userColumns = `id, name, email, password_hash, refresh_token_hash, created_at`

func scanUser(s rowScanner) (core.User, error) {
	var (
		u       core.User
		created int64
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RefreshTokenHash, &created); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = fromNanos(created)
	return u, nil
}

// CreateUser inserts u. Emails are stored lower-cased and must be unique.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = r.timestamp()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.RefreshTokenHash, toNanos(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("user with email %s already exists: %w", u.Email, core.ErrConflict)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return u, nil
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return u, nil
}

// SetRefreshTokenHash stores the hash of the user's current refresh token.
// An empty hash signs the user out everywhere.
func (r *SQLiteRepository) SetRefreshTokenHash(ctx context.Context, userID, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET refresh_token_hash = ? WHERE id = ?`, hash, userID)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	return expectOne(res, "user")
}
