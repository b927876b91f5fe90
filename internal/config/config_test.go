package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *Config {
	t.Helper()
	cfg := &Config{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := newFlags(t)
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "localhost:8080", cfg.RunAddress)
	assert.Equal(t, "sqlite", cfg.LocalBackend)
	assert.Equal(t, "rationdesk.db", cfg.LocalPath)
	assert.Equal(t, 5*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 10*time.Second, cfg.SyncInterval)
	assert.Equal(t, 20, cfg.SyncBatch)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestEnvOverridesFlags(t *testing.T) {
	t.Setenv("RUN_ADDRESS", ":9090")
	t.Setenv("SYNC_INTERVAL", "1m")
	t.Setenv("LOCAL_BACKEND", "redis")

	cfg := newFlags(t, "-a", "localhost:7000", "--sync-batch", "5", "--local-backend", "sqlite")
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, ":9090", cfg.RunAddress)
	assert.Equal(t, time.Minute, cfg.SyncInterval)
	assert.Equal(t, "redis", cfg.LocalBackend)
	assert.Equal(t, 5, cfg.SyncBatch, "flag kept when env unset")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		ok   bool
	}{
		{name: "json format", args: []string{"--log-format", "json"}, ok: true},
		{name: "debug level", env: map[string]string{"LOG_LEVEL": "DEBUG"}, ok: true},
		{name: "bad format", args: []string{"--log-format", "xml"}},
		{name: "bad level", args: []string{"--log-level", "loud"}},
		{name: "zero batch", env: map[string]string{"SYNC_BATCH": "0"}},
		{name: "unparsable duration", env: map[string]string{"REMOTE_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			err := newFlags(t, tt.args...).ApplyEnv()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-dotenv\n"), 0o600))
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("JWT_SECRET"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := newFlags(t, "--log-format", "json", "--log-level", "warn")

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "order", "3")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"order":"3"`)
}
