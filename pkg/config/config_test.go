package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.Set(KeyDataDir, t.TempDir())
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper(t), "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, "ws://localhost:8000", cfg.WSURL)
	assert.Equal(t, "json", cfg.Codec)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
	assert.Equal(t, 2*time.Second, cfg.Reconnect.InitialInterval)
	assert.Equal(t, 10, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadFromDataDirConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
api_url: https://api.cadence.test
ws_url: wss://api.cadence.test
codec: legacy
reconnect:
  initial_interval: 500ms
  max_attempts: 3
log:
  level: debug
  json: true
`)
	v := viper.New()
	v.Set(KeyDataDir, dir)

	cfg, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, "https://api.cadence.test", cfg.APIURL)
	assert.Equal(t, "wss://api.cadence.test", cfg.WSURL)
	assert.Equal(t, "legacy", cfg.Codec)
	assert.Equal(t, 500*time.Millisecond, cfg.Reconnect.InitialInterval)
	assert.Equal(t, 3, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
}

func TestLoadExplicitFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cadence.yaml", "token: abc\nmetrics_addr: :9090\n")

	cfg, err := Load(newViper(t), path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Token)
	assert.Equal(t, ":9090", cfg.MetricsAddr)

	_, err = Load(newViper(t), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cadence.yaml", "api_url: http://file.test\n")
	t.Setenv("CADENCE_API_URL", "http://env.test")
	t.Setenv("CADENCE_RECONNECT_MAX_ATTEMPTS", "4")
	t.Setenv("CADENCE_REQUEST_TIMEOUT", "3s")

	cfg, err := Load(newViper(t), path)
	require.NoError(t, err)

	assert.Equal(t, "http://env.test", cfg.APIURL)
	assert.Equal(t, 4, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			APIURL:         "http://localhost:8000",
			WSURL:          "ws://localhost:8000",
			DataDir:        "/tmp/cadence",
			Codec:          "json",
			Reconnect:      ReconnectConfig{InitialInterval: time.Second, MaxAttempts: 10},
			RequestTimeout: time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "relative api url", mutate: func(c *Config) { c.APIURL = "localhost:8000" }, wantErr: KeyAPIURL},
		{name: "http websocket url", mutate: func(c *Config) { c.WSURL = "http://localhost" }, wantErr: KeyWSURL},
		{name: "unknown codec", mutate: func(c *Config) { c.Codec = "xml" }, wantErr: KeyCodec},
		{name: "zero interval", mutate: func(c *Config) { c.Reconnect.InitialInterval = 0 }, wantErr: KeyInitialInterval},
		{name: "zero attempts", mutate: func(c *Config) { c.Reconnect.MaxAttempts = 0 }, wantErr: KeyMaxAttempts},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: KeyRequestTimeout},
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }, wantErr: KeyDataDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDraft(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "draft.yaml", `
name: Friday
playlist:
  playedSongs: []
  currentSong:
    id: "A"
    trackName: Opener
  queuedSongs:
    - id: "B"
      artists: [Someone]
`)

	draft, err := LoadDraft(path)
	require.NoError(t, err)
	assert.Equal(t, "Friday", draft.Name)
	require.NotNil(t, draft.Playlist)
	assert.Equal(t, "A", draft.Playlist.CurrentSongID())
	require.Len(t, draft.Playlist.QueuedSongs, 1)
	assert.Equal(t, []string{"Someone"}, draft.Playlist.QueuedSongs[0].Artists)

	_, err = LoadDraft(writeFile(t, dir, "nameless.yaml", "playlist: {}\n"))
	assert.Error(t, err)

	_, err = LoadDraft(writeFile(t, dir, "broken.yaml", "name: [\n"))
	assert.Error(t, err)

	_, err = LoadDraft(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
