package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadClientConfigDefaults(t *testing.T) {
	cfg := LoadClientConfig()

	require.Equal(t, "http://localhost:8000", cfg.ServerURL)
	require.Equal(t, '/', cfg.CommandPrefix)
	require.Equal(t, 3*time.Second, cfg.PollInterval)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.Equal(t, 5*time.Minute, cfg.UploadTimeout)
	require.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	require.NotEmpty(t, cfg.State.Path)
	require.Equal(t, "docdeck.log", cfg.Log.Path)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DOCDECK_SERVER_URL", "https://docs.internal:9000")
	t.Setenv("DOCDECK_COMMAND_PREFIX", "!")
	t.Setenv("DOCDECK_POLL_INTERVAL", "10s")
	t.Setenv("DOCDECK_MAX_UPLOAD_BYTES", "1048576")

	cfg := LoadClientConfig()

	require.Equal(t, "https://docs.internal:9000", cfg.ServerURL)
	require.Equal(t, '!', cfg.CommandPrefix)
	require.Equal(t, 10*time.Second, cfg.PollInterval)
	require.Equal(t, int64(1048576), cfg.MaxUploadBytes)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("DOCDECK_POLL_INTERVAL", "soon")
	t.Setenv("DOCDECK_MAX_UPLOAD_BYTES", "lots")

	cfg := LoadClientConfig()

	require.Equal(t, 3*time.Second, cfg.PollInterval)
	require.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
}
