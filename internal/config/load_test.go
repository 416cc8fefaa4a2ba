package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default().Audio, loaded.Config.Audio)
	require.Equal(t, 8080, loaded.Config.Server.Port)
}

func TestLoadOverlaysFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9100
engine:
  endpoint: wss://stt.example.com/v1/listen
  language: de-DE
audio:
  sample_rate: 48000
voice:
  settle_delay_ms: 250
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, 9100, loaded.Config.Server.Port)
	require.Equal(t, "de-DE", loaded.Config.Engine.Language)
	require.Equal(t, 48000, loaded.Config.Audio.SampleRate)
	require.Equal(t, 250, loaded.Config.Voice.SettleDelayMS)
	// Unset keys keep their defaults.
	require.Equal(t, 1, loaded.Config.Audio.Channels)
	require.True(t, loaded.Config.Engine.InterimResults)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
gateway:
  url: https://file.example.com/transcribe
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("PARLO_GATEWAY_URL", "https://env.example.com/transcribe")
	t.Setenv("PARLO_GATEWAY_API_KEY", "sk-env")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com/transcribe", loaded.Config.Gateway.URL)
	require.Equal(t, "sk-env", loaded.Config.Gateway.APIKey)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
}

func TestResolvePathPrefersExplicit(t *testing.T) {
	path, err := ResolvePath("/tmp/custom.yaml")
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.yaml", path)
}

func TestResolvePathUsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	path, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/xdg", "parlo", "config.yaml"), path)
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	require.Equal(t, "1s", cfg.Audio.FlushInterval().String())
	require.Equal(t, "1s", cfg.Voice.SettleDelay().String())
}
