// Package session issues the signed tokens that stand in for a logged-in
// principal. Every sensitive vault call takes a token and validates it.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTTL = 15 * time.Minute

// Claims are the standard claims; Subject carries the principal.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 tokens and remembers revoked ids until
// they would have expired anyway.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewIssuer(key []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		key:     key,
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// Issue returns a token for principal valid for the issuer's TTL.
func (i *Issuer) Issue(principal string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})

	s, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func (i *Issuer) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// Validate returns the principal a token was issued to.
func (i *Issuer) Validate(tokenString string) (string, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return "", err
	}

	i.mu.Lock()
	_, gone := i.revoked[claims.ID]
	i.mu.Unlock()
	if gone {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}

// Revoke invalidates a token before its expiry. Revoking an expired or
// malformed token is a no-op.
func (i *Issuer) Revoke(tokenString string) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	for id, exp := range i.revoked {
		if now.After(exp) {
			delete(i.revoked, id)
		}
	}
	i.revoked[claims.ID] = claims.ExpiresAt.Time
}
