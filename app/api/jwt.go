package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	Identity    sharedtypes.Identity
	HouseholdID sharedtypes.HouseholdID
	Admin       bool
}

type apiClaims struct {
	jwt.RegisteredClaims
	HouseholdID string `json:"household_id,omitempty"`
	Admin       bool   `json:"admin,omitempty"`
}

// TokenProvider signs and validates API bearer tokens.
type TokenProvider struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenProvider creates a TokenProvider with the given HMAC secret.
func NewTokenProvider(secret string, ttl time.Duration) *TokenProvider {
	return &TokenProvider{secret: []byte(secret), ttl: ttl}
}

// GenerateToken signs a token for the principal.
func (p *TokenProvider) GenerateToken(principal Principal) (string, error) {
	now := time.Now()
	claims := &apiClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   principal.Identity.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		HouseholdID: principal.HouseholdID.String(),
		Admin:       principal.Admin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a bearer token and returns the principal.
func (p *TokenProvider) ValidateToken(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &apiClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*apiClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &Principal{
		Identity:    sharedtypes.Identity(claims.Subject),
		HouseholdID: sharedtypes.HouseholdID(claims.HouseholdID),
		Admin:       claims.Admin,
	}, nil
}
