package jwt

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingKey   = errors.New("no verification key configured")
)

const tokenTypeRefresh = "refresh"

// Claims represents JWT claims issued by the auth service.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string   `json:"user_id,omitempty"`
	Email    string   `json:"email,omitempty"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Type     string   `json:"type,omitempty"` // "access" or "refresh"
}

// Identity returns the user the token was issued for, preferring the
// explicit user_id claim over sub.
func (c *Claims) Identity() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Verifier checks access tokens. It never issues tokens for real users;
// that belongs to the auth service.
type Verifier struct {
	key    interface{}
	parser *jwt.Parser
}

// NewHMACVerifier verifies HS256 tokens signed with a shared secret.
func NewHMACVerifier(secret []byte, issuer string) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, ErrMissingKey
	}
	return &Verifier{
		key:    secret,
		parser: newParser(jwt.SigningMethodHS256.Alg(), issuer),
	}, nil
}

// NewRSAVerifier verifies RS256 tokens against a PEM encoded public key.
func NewRSAVerifier(publicKeyPEM []byte, issuer string) (*Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa public key: %w", err)
	}
	return &Verifier{
		key:    key,
		parser: newParser(jwt.SigningMethodRS256.Alg(), issuer),
	}, nil
}

func newParser(alg, issuer string) *jwt.Parser {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{alg})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return jwt.NewParser(opts...)
}

// ValidateToken validates a token and returns its claims.
func (v *Verifier) ValidateToken(tokenString string) (*Claims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type == tokenTypeRefresh || claims.Identity() == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyToken satisfies middleware.TokenVerifier.
func (v *Verifier) VerifyToken(_ context.Context, token string) (string, error) {
	claims, err := v.ValidateToken(token)
	if err != nil {
		return "", err
	}
	return claims.Identity(), nil
}

// SignHMAC signs claims with HS256. Used by local tooling and tests.
func SignHMAC(secret []byte, claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
