// Package auth issues and verifies the bearer credentials that identify a user
// to the API, and hashes passwords.
package auth

import (
	"fmt"
	"time"

	"finsight/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Claims is the JWT payload of both token kinds.
type Claims struct {
	UserID string `json:"uid"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Pair is what a successful login, registration or refresh hands back.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type Tokens struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokens(cfg TokenConfig) *Tokens {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Tokens{cfg: cfg, now: time.Now}
}

func (t *Tokens) sign(secret, userID, kind string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (t *Tokens) Issue(userID string) (Pair, error) {
	access, err := t.sign(t.cfg.AccessSecret, userID, kindAccess, t.cfg.AccessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := t.sign(t.cfg.RefreshSecret, userID, kindRefresh, t.cfg.RefreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(t.cfg.AccessTTL.Seconds()),
	}, nil
}

func (t *Tokens) parse(secret, kind, token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Kind != kind || claims.UserID == "" {
		return nil, fmt.Errorf("%w: %v", core.ErrUnauthorized, jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}

// ParseAccess verifies an access token and returns the user it names.
func (t *Tokens) ParseAccess(token string) (string, error) {
	claims, err := t.parse(t.cfg.AccessSecret, kindAccess, token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (t *Tokens) ParseRefresh(token string) (string, error) {
	claims, err := t.parse(t.cfg.RefreshSecret, kindRefresh, token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

var errEmptyToken = fmt.Errorf("missing bearer token: %w", core.ErrUnauthorized)
