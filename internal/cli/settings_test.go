package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devbills/internal/backend"
)

func newFlags(t *testing.T) (*pflag.FlagSet, func(args ...string) Settings) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	v := NewViper()
	fs := pflag.NewFlagSet("devbills-cli", pflag.ContinueOnError)
	require.NoError(t, BindFlags(v, fs))

	return fs, func(args ...string) Settings {
		require.NoError(t, fs.Parse(args))
		s, err := LoadSettings(v)
		require.NoError(t, err)
		return s
	}
}

func TestSettingsDefaults(t *testing.T) {
	_, load := newFlags(t)
	s := load()

	assert.Equal(t, "http://localhost:3333", s.APIURL)
	assert.Equal(t, 10*time.Second, s.APITimeout)
	assert.Equal(t, "api", s.Backend)
	assert.Equal(t, "devbills.activity", s.AMQPQueue)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".config", "devbills", "credentials.json"), s.CredentialsFile)
}

func TestSettingsEnvAndFlags(t *testing.T) {
	_, load := newFlags(t)
	t.Setenv("DEVBILLS_API_URL", "https://api.example.com")
	t.Setenv("DEVBILLS_FIREBASE_API_KEY", "env-key")
	t.Setenv("DEVBILLS_BACKEND", "MEMORY")

	s := load("--api-url", "https://flag.example.com", "--api-timeout", "3s")

	assert.Equal(t, "https://flag.example.com", s.APIURL, "flags win over the environment")
	assert.Equal(t, 3*time.Second, s.APITimeout)
	assert.Equal(t, "env-key", s.FirebaseAPIKey)
	assert.Equal(t, "memory", s.Backend)

	cfg := s.BackendConfig()
	assert.Equal(t, backend.MemoryBackend, cfg.Type)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
}

func TestSettingsConfigFile(t *testing.T) {
	_, load := newFlags(t)
	dir := filepath.Join(os.Getenv("HOME"), ".config", "devbills")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("api-url = \"https://file.example.com\"\namqp-url = \"amqp://localhost\"\n"), 0o644))

	s := load()
	assert.Equal(t, "https://file.example.com", s.APIURL)
	assert.Equal(t, "amqp://localhost", s.AMQPURL)
}

func TestSettingsExplicitConfigMissing(t *testing.T) {
	v := NewViper()
	fs := pflag.NewFlagSet("devbills-cli", pflag.ContinueOnError)
	require.NoError(t, BindFlags(v, fs))
	require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "nope.toml")}))

	_, err := LoadSettings(v)
	assert.Error(t, err)
}
