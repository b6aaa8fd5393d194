package jwtauth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifyToken(t *testing.T) {
	v := NewHMACVerifier("s3cret")
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).Unix()

	subject, err := v.VerifyToken(ctx, sign(t, "s3cret", jwt.MapClaims{"sub": "abc", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, "abc", subject)

	// userId wins over sub and may be an object
	subject, err = v.VerifyToken(ctx, sign(t, "s3cret", jwt.MapClaims{
		"sub":    "abc",
		"userId": map[string]interface{}{"_id": "65a1b2c3d4e5f6a7b8c9d0e1"},
		"exp":    exp,
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"_id": "65a1b2c3d4e5f6a7b8c9d0e1"}, subject)
}

func TestVerifyToken_Rejects(t *testing.T) {
	v := NewHMACVerifier("s3cret")
	ctx := context.Background()

	_, err := v.VerifyToken(ctx, sign(t, "other", jwt.MapClaims{"sub": "abc"}))
	assert.Error(t, err)

	_, err = v.VerifyToken(ctx, sign(t, "s3cret", jwt.MapClaims{"sub": "abc", "exp": time.Now().Add(-time.Minute).Unix()}))
	assert.Error(t, err)

	_, err = v.VerifyToken(ctx, sign(t, "s3cret", jwt.MapClaims{"name": "x"}))
	assert.ErrorIs(t, err, ErrNoSubject)

	_, err = v.VerifyToken(ctx, "garbage")
	assert.Error(t, err)
}
