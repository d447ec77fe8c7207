// Package tokens mints and verifies the HS256 access tokens handed out after
// sign-in.
package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/config"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

var ErrSecretMissing = errors.New("jwt secret not configured")

// Claims is the access token payload.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a signed JWT access token for the user
func GenerateAccessToken(cfg *config.Config, u *models.User, ttl time.Duration) (string, error) {
	if cfg.JWT.Secret == "" {
		return "", ErrSecretMissing
	}
	now := time.Now()
	claims := Claims{
		Email: u.Email,
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// ParseAccessToken verifies signature and expiry. Only HS256 is accepted.
func ParseAccessToken(cfg *config.Config, raw string) (*Claims, error) {
	if cfg.JWT.Secret == "" {
		return nil, ErrSecretMissing
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return nil, errors.New("access token has no expiry")
	}
	if claims.Email == "" {
		return nil, errors.New("access token has no email claim")
	}
	return &claims, nil
}

// Verifier adapts ParseAccessToken to middleware.Verifier.
type Verifier struct {
	cfg *config.Config
}

func NewVerifier(cfg *config.Config) *Verifier { return &Verifier{cfg: cfg} }

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	c, err := ParseAccessToken(v.cfg, raw)
	if err != nil {
		return nil, err
	}
	return claimsToken{c}, nil
}

type claimsToken struct{ c *Claims }

func (t claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.c)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
