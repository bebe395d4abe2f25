package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp isolates Load from any .env file in the package directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.CORSAllowedOrigin)
	assert.Equal(t, "postgres://127.0.0.1:5432/movie?sslmode=disable", cfg.DBURL)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.MigrateOnStart)
	assert.False(t, cfg.RecomputeOnReviewUpdate)
}

func TestLoadSuccess(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "30")
	t.Setenv("DB_MAX_CONNS", "40")
	t.Setenv("DB_MIN_CONNS", "5")
	t.Setenv("DB_STATEMENT_CACHE_CAPACITY", "128")
	t.Setenv("RECOMPUTE_ON_REVIEW_UPDATE", "true")
	t.Setenv("SHUTDOWN_TIMEOUT", "12s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30, cfg.ReadTimeoutSecs)
	assert.Equal(t, 40, cfg.DBMaxConns)
	assert.Equal(t, 5, cfg.DBMinConns)
	assert.Equal(t, 128, cfg.DBStatementCache)
	assert.Equal(t, 12*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.RecomputeOnReviewUpdate)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	payload := "CORS_ALLOWED_ORIGIN=https://reviews.example.com\nPORT=7000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(payload), 0o600))
	// Process environment takes precedence over the file.
	t.Setenv("PORT", "7100")
	t.Cleanup(func() { _ = os.Unsetenv("CORS_ALLOWED_ORIGIN") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://reviews.example.com", cfg.CORSAllowedOrigin)
	assert.Equal(t, "7100", cfg.Port)
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"malformed int", map[string]string{"DB_MAX_CONNS": "many"}, "parse env"},
		{"unknown log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"zero max connections", map[string]string{"DB_MAX_CONNS": "0"}, "DB_MAX_CONNS"},
		{"min greater than max connections", map[string]string{"DB_MAX_CONNS": "5", "DB_MIN_CONNS": "10"}, "DB_MIN_CONNS"},
		{"negative statement cache", map[string]string{"DB_STATEMENT_CACHE_CAPACITY": "-1"}, "DB_STATEMENT_CACHE_CAPACITY"},
		{"unknown log format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		{"negative read timeout", map[string]string{"SERVER_READ_TIMEOUT": "-1"}, "SERVER_*_TIMEOUT"},
		{"zero shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "0s"}, "SHUTDOWN_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRequiresOrigin(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load()
	require.NoError(t, err)

	cfg.CORSAllowedOrigin = " "
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS_ALLOWED_ORIGIN")
}
