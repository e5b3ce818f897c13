package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"finsight/internal/core"

	"github.com/google/uuid"
)

type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, error)
	UserByID(ctx context.Context, id string) (core.User, error)
	SetRefreshTokenHash(ctx context.Context, userID, hash string) error
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in RegisterInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return core.NewValidationError("name", "must be between 2 and 50 characters")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		return core.NewValidationError("email", "must be a valid email address")
	}
	if len(in.Password) < 6 {
		return core.NewValidationError("password", "must be at least 6 characters")
	}
	return nil
}

type Service struct {
	users      UserStore
	tokens     *Tokens
	bcryptCost int
}

func NewService(users UserStore, tokens *Tokens, bcryptCost int) *Service {
	return &Service{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (core.User, Pair, error) {
	if err := in.Validate(); err != nil {
		return core.User{}, Pair{}, err
	}
	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return core.User{}, Pair{}, err
	}
	u, err := s.users.CreateUser(ctx, core.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return core.User{}, Pair{}, err
	}
	pair, err := s.issue(ctx, u.ID)
	if err != nil {
		return core.User{}, Pair{}, err
	}
	return u, pair, nil
}

// Login checks credentials. Unknown emails and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, Pair, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return core.User{}, Pair{}, core.NewValidationError("", "email and password are required")
	}
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, Pair{}, fmt.Errorf("invalid email or password: %w", core.ErrUnauthorized)
	}
	if err != nil {
		return core.User{}, Pair{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return core.User{}, Pair{}, fmt.Errorf("invalid email or password: %w", core.ErrUnauthorized)
	}
	pair, err := s.issue(ctx, u.ID)
	if err != nil {
		return core.User{}, Pair{}, err
	}
	return u, pair, nil
}

// Refresh exchanges the user's current refresh token for a new pair. The old
// refresh token stops working.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Pair, error) {
	if refreshToken == "" {
		return Pair{}, core.NewValidationError("refreshToken", "is required")
	}
	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return Pair{}, err
	}
	u, err := s.users.UserByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return Pair{}, fmt.Errorf("user no longer exists: %w", core.ErrUnauthorized)
	}
	if err != nil {
		return Pair{}, err
	}
	if u.RefreshTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(u.RefreshTokenHash), []byte(tokenDigest(refreshToken))) != 1 {
		return Pair{}, fmt.Errorf("refresh token revoked: %w", core.ErrUnauthorized)
	}
	return s.issue(ctx, u.ID)
}

func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.users.SetRefreshTokenHash(ctx, userID, "")
}

func (s *Service) Profile(ctx context.Context, userID string) (core.User, error) {
	return s.users.UserByID(ctx, userID)
}

func (s *Service) issue(ctx context.Context, userID string) (Pair, error) {
	pair, err := s.tokens.Issue(userID)
	if err != nil {
		return Pair{}, err
	}
	if err := s.users.SetRefreshTokenHash(ctx, userID, tokenDigest(pair.RefreshToken)); err != nil {
		return Pair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}
