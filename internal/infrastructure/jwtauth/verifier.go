package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"socialmall/pkg/logger"
)

var ErrNoSubject = errors.New("token has no subject")

// Verifier checks bearer tokens signed with a shared secret or with a key
// from a JWKS endpoint.
type Verifier struct {
	keyFunc jwt.Keyfunc
	methods []string
	jwks    *keyfunc.JWKS
}

func NewHMACVerifier(secret string) *Verifier {
	key := []byte(secret)
	return &Verifier{
		keyFunc: func(*jwt.Token) (interface{}, error) { return key, nil },
		methods: []string{"HS256", "HS384", "HS512"},
	}
}

// NewJWKSVerifier fetches the key set once and refreshes it in the
// background until ctx is done.
func NewJWKSVerifier(ctx context.Context, jwksURL string) (*Verifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Error("JWKS refresh failed: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("load JWKS from %s: %w", jwksURL, err)
	}
	return &Verifier{
		keyFunc: jwks.Keyfunc,
		methods: []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"},
		jwks:    jwks,
	}, nil
}

// VerifyToken returns the raw subject: the userId claim when present, sub
// otherwise. The caller normalizes it into an id.
func (v *Verifier) VerifyToken(_ context.Context, token string) (interface{}, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods(v.methods))
	if _, err := parser.ParseWithClaims(token, claims, v.keyFunc); err != nil {
		return nil, err
	}

	if subject, ok := claims["userId"]; ok && subject != nil {
		return subject, nil
	}
	if subject, ok := claims["sub"]; ok && subject != nil {
		return subject, nil
	}
	return nil, ErrNoSubject
}

func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
