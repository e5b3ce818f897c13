package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"finsight/internal/core"
	"finsight/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, testTokens(), bcrypt.MinCost), repo
}

func TestRegisterInputValidate(t *testing.T) {
	good := RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret"}
	require.NoError(t, good.Validate())

	tests := map[string]RegisterInput{
		"short name":     {Name: "A", Email: "ada@example.com", Password: "secret"},
		"long name":      {Name: strings.Repeat("a", 51), Email: "ada@example.com", Password: "secret"},
		"bad email":      {Name: "Ada", Email: "ada.example.com", Password: "secret"},
		"short password": {Name: "Ada", Email: "ada@example.com", Password: "12345"},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, in.Validate(), core.ErrValidation)
		})
	}
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, RegisterInput{Name: "  Ada  ", Email: "Ada@Example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEmpty(t, pair.AccessToken)

	stored, err := repo.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored.PasswordHash)
	assert.Equal(t, tokenDigest(pair.RefreshToken), stored.RefreshTokenHash)

	_, _, err = svc.Register(ctx, RegisterInput{Name: "Ada Two", Email: "ada@example.com", Password: "secret"})
	assert.ErrorIs(t, err, core.ErrConflict)

	logged, _, err := svc.Login(ctx, "ADA@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	_, _, err = svc.Login(ctx, "nobody@example.com", "secret")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	_, _, err = svc.Login(ctx, "", "secret")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestService_RefreshRotatesAndLogoutRevokes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, first, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, core.ErrUnauthorized, "a rotated token stops working")

	require.NoError(t, svc.Logout(ctx, u.ID))
	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.Refresh(ctx, second.AccessToken)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	p, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", p.Email)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "secret"))
	assert.False(t, CheckPassword(hash, "Secret"))
	assert.False(t, CheckPassword("not-a-hash", "secret"))
}
