package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "murder.db", cfg.DBPath)
	assert.Equal(t, 8, cfg.CodeLength)
	assert.Equal(t, 100000, cfg.Iterations)
	assert.Equal(t, []Transport{TransportLog}, cfg.Transports)
	assert.Equal(t, 25, cfg.SMTP.Port)
	assert.Equal(t, "murder.updates", cfg.NATS.Subject)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("MURDER_DB", "/tmp/x.db")
	t.Setenv("MURDER_NOTIFY", "log, smtp")
	t.Setenv("MURDER_SMTP_HOST", "mail.example.org")
	t.Setenv("MURDER_SMTP_HELO", "murder.example.org")
	t.Setenv("MURDER_SMTP_PORT", "587")
	t.Setenv("MURDER_SMTP_FROM", "gm@example.org")
	t.Setenv("MURDER_NATS_URL", "nats://nats:4222")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, []Transport{TransportLog, TransportSMTP}, cfg.Transports)
	assert.True(t, cfg.Uses(TransportSMTP))
	assert.False(t, cfg.Uses(TransportNATS))
	assert.Equal(t, "mail.example.org", cfg.SMTP.Host)
	assert.Equal(t, "murder.example.org", cfg.SMTP.Helo)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"bad int", "MURDER_CODE_LENGTH", "eight", "parse env:"},
		{"zero length", "MURDER_CODE_LENGTH", "0", "CODE_LENGTH"},
		{"zero iterations", "MURDER_PBKDF2_ITERATIONS", "0", "PBKDF2_ITERATIONS"},
		{"unknown transport", "MURDER_NOTIFY", "pigeon", "pigeon"},
		{"smtp without sender", "MURDER_NOTIFY", "smtp", "SMTP_FROM"},
		{"smtp listed second without sender", "MURDER_NOTIFY", "log,smtp", "SMTP_FROM"},
		{"none combined", "MURDER_NOTIFY", "none,log", "cannot be combined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murder.env")
	require.NoError(t, os.WriteFile(path, []byte("MURDER_CACHE_DIR=/var/cache/murder\nMURDER_SECRET_KEY=hunter2\n"), 0o600))
	// godotenv sets process variables; t.Setenv restores them afterwards.
	t.Setenv("MURDER_CACHE_DIR", "")
	t.Setenv("MURDER_SECRET_KEY", "")
	os.Unsetenv("MURDER_CACHE_DIR")
	os.Unsetenv("MURDER_SECRET_KEY")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/murder", cfg.CacheDir)
	assert.Equal(t, "hunter2", cfg.SecretKey)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murder.env")
	require.NoError(t, os.WriteFile(path, []byte("MURDER_BASE_URL=https://from-file\n"), 0o600))
	t.Setenv("MURDER_BASE_URL", "https://from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env", cfg.BaseURL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "load "))
}

func TestCodes(t *testing.T) {
	p, err := Config{CodeLength: 6, Iterations: 1}.Codes()
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = Config{SecretKey: "k", CodeLength: 6, Iterations: 1}.Codes()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Len(t, p.Code("g1", "c1", "A"), 6)
}
