package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "")
	t.Setenv("REDIS_DB", "")
	t.Setenv("ADVISOR_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 30*time.Second, cfg.AdvisorTimeout)
	assert.Equal(t, 10, cfg.MaxUploadMB)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ADVISOR_TIMEOUT", "5")
	t.Setenv("MAX_UPLOAD_MB", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 5*time.Second, cfg.AdvisorTimeout)
	assert.Equal(t, 25, cfg.MaxUploadMB)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		redisDB string
		want    error
	}{
		{name: "missing secret", secret: "", want: ErrJWTSecretMissing},
		{name: "short secret", secret: "short", want: ErrJWTSecretTooShort},
		{name: "bad redis db", secret: testSecret, redisDB: "zero", want: ErrInvalidRedisDB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("REDIS_DB", tt.redisDB)

			_, err := Load()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWarnings(t *testing.T) {
	cfg := &Config{DatabaseDSN: defaultDSN, CORSOrigins: "https://controlos.example"}
	assert.Len(t, cfg.Warnings(), 1)
}
