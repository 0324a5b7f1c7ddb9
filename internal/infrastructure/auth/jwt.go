package auth

import (
	"errors"
	"time"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token validation errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims are the access-token claims the receiving API understands
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenValidator validates HS256 access tokens and turns them into actors
type TokenValidator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenValidator creates a validator. Tokens from other issuers are
// rejected when issuer is non-empty.
func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Validate parses and verifies tokenString and returns the actor it names
func (v *TokenValidator) Validate(tokenString string) (shared.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return shared.Actor{}, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return shared.Actor{}, ErrTokenNotYetValid
	case err != nil:
		return shared.Actor{}, ErrInvalidToken
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return shared.Actor{}, ErrMissingTenantID
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return shared.Actor{}, ErrMissingUserID
	}
	return shared.NewActor(tenantID, userID, claims.Username, shared.Role(claims.Role)), nil
}

// Issue signs an access token for actor. Used by tooling and tests; tokens in
// production come from the identity provider sharing the secret.
func (v *TokenValidator) Issue(actor shared.Actor, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    v.issuer,
			Subject:   actor.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID: actor.TenantID.String(),
		UserID:   actor.UserID.String(),
		Username: actor.DisplayName,
		Role:     string(actor.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
