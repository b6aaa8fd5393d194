package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ASSET_BASE_URL", " https://cdn.example.com/ ")
	t.Setenv("AUTH_MODE", " JWT ")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "jwt", cfg.AuthMode)
	assert.Equal(t, "https://cdn.example.com", cfg.AssetBaseURL)
	assert.Equal(t, []string{"http://localhost:5000", "http://127.0.0.1:5000"}, cfg.DevOrigins)
	assert.Equal(t, 100, cfg.MessagePageSize)
	assert.True(t, cfg.IsDevelopment())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"jwt with secret", Config{AuthMode: "jwt", JWTSecret: "s", RateLimitRPS: 1, RateLimitBurst: 1}, false},
		{"jwt with jwks", Config{AuthMode: "jwt", JWTJWKSURL: "https://issuer/jwks", RateLimitRPS: 1, RateLimitBurst: 1}, false},
		{"jwt without keys", Config{AuthMode: "jwt", RateLimitRPS: 1, RateLimitBurst: 1}, true},
		{"firebase without project", Config{AuthMode: "firebase", RateLimitRPS: 1, RateLimitBurst: 1}, true},
		{"firebase", Config{AuthMode: "firebase", FirebaseProject: "p", RateLimitRPS: 1, RateLimitBurst: 1}, false},
		{"unknown mode", Config{AuthMode: "saml", RateLimitRPS: 1, RateLimitBurst: 1}, true},
		{"zero rate", Config{AuthMode: "jwt", JWTSecret: "s"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
