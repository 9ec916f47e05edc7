package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("s3cret")

func claims(userID, subject, typ string, ttl time.Duration) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "wes-io-live",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		UserID: userID,
		Type:   typ,
	}
}

func TestHMACVerifier(t *testing.T) {
	v, err := NewHMACVerifier(secret, "wes-io-live")
	require.NoError(t, err)

	tok, err := SignHMAC(secret, claims("u1", "", "access", time.Hour))
	require.NoError(t, err)
	id, err := v.VerifyToken(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	tok, err = SignHMAC(secret, claims("", "u2", "", time.Hour))
	require.NoError(t, err)
	id, err = v.VerifyToken(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "u2", id)
}

func TestHMACVerifier_Rejects(t *testing.T) {
	v, err := NewHMACVerifier(secret, "wes-io-live")
	require.NoError(t, err)

	expired, _ := SignHMAC(secret, claims("u1", "", "access", -time.Minute))
	_, err = v.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	refresh, _ := SignHMAC(secret, claims("u1", "", "refresh", time.Hour))
	_, err = v.ValidateToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongKey, _ := SignHMAC([]byte("other"), claims("u1", "", "access", time.Hour))
	_, err = v.ValidateToken(wrongKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	anonymous, _ := SignHMAC(secret, claims("", "", "access", time.Hour))
	_, err = v.ValidateToken(anonymous)
	assert.ErrorIs(t, err, ErrInvalidToken)

	c := claims("u1", "", "access", time.Hour)
	c.Issuer = "someone-else"
	wrongIssuer, _ := SignHMAC(secret, c)
	_, err = v.ValidateToken(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewHMACVerifier(nil, "")
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestRSAVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	v, err := NewRSAVerifier(pub, "")
	require.NoError(t, err)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims("u1", "", "access", time.Hour)).SignedString(key)
	require.NoError(t, err)
	id, err := v.VerifyToken(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	// An HS256 token must not pass an RS256 verifier.
	hs, _ := SignHMAC(secret, claims("u1", "", "access", time.Hour))
	_, err = v.ValidateToken(hs)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewRSAVerifier([]byte("not pem"), "")
	assert.Error(t, err)
}
