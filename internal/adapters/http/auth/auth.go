// Package auth resolves bearer tokens to user IDs. Tokens are HS256 JWTs
// whose subject is the user ID; nothing else about the user is trusted.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultTTL    = 24 * time.Hour
	defaultIssuer = "podium"
)

// Verifier resolves a raw bearer token to a user ID.
type Verifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// Claims are the JWT claims podium issues.
type Claims struct {
	jwt.RegisteredClaims
}

// HS256 issues and verifies tokens signed with a shared secret.
type HS256 struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewHS256 creates a token service for secret.
func NewHS256(secret string, opts ...Option) (*HS256, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	h := &HS256{secret: []byte(secret), ttl: defaultTTL, issuer: defaultIssuer, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Issue signs a token for userID.
func (h *HS256) Issue(userID string) (string, error) {
	now := h.now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		Issuer:    h.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and lifetime and returns the subject.
func (h *HS256) Verify(_ context.Context, raw string) (string, error) {
	if raw == "" {
		return "", ErrMissingToken
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(h.issuer),
		jwt.WithTimeFunc(h.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpiredToken
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case claims.Subject == "":
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

var _ Verifier = (*HS256)(nil)
