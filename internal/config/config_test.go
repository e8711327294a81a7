package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "newsdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, EnvDevelopment, cfg.Server.Env)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 5*time.Minute, cfg.Storage.GCInterval)
	assert.False(t, cfg.Production())
	assert.False(t, cfg.Auth.BootstrapAdminEnabled())
	assert.Empty(t, cfg.Logging.Format, "format is left to the environment preset")
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	t.Setenv("NEWSDESK_TEST_SECRET", "from-env")

	path := writeConfig(t, `
server:
  addr: ":9090"
  env: production
storage:
  in_memory: true
  redis_addr: "127.0.0.1:6380"
  gc_interval: 30s
auth:
  jwt_secret: "${NEWSDESK_TEST_SECRET}"
  token_ttl: 2h
  bcrypt_cost: 4
  admin_email: root@example.com
  admin_password: hunter2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Production())
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, "127.0.0.1:6380", cfg.Storage.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.Storage.GCInterval)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Auth.BootstrapAdminEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JWT_EXPIRES_IN", "90m")
	t.Setenv("BCRYPT_SALT_ROUNDS", "12")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad duration", "auth:\n  token_ttl: soon\n"},
		{"bad day count", "auth:\n  token_ttl: xd\n"},
		{"cost too low", "auth:\n  bcrypt_cost: 1\n"},
		{"half admin bootstrap", "auth:\n  admin_email: root@example.com\n"},
		{"empty secret", "auth:\n  jwt_secret: \"${NEWSDESK_TEST_UNSET}\"\n"},
		{"malformed yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_DayDurations(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "7d")

	cfg, err := Load(writeConfig(t, "storage:\n  gc_interval: 1d\n"))
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Storage.GCInterval)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"1d", 24 * time.Hour, true},
		{"30d", 30 * 24 * time.Hour, true},
		{"90m", 90 * time.Minute, true},
		{"2h30m", 150 * time.Minute, true},
		{"d", 0, false},
		{"-1d", 0, false},
		{"soon", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
