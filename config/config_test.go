package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
watcher:
  scan_interval_seconds: 45
  refresh_interval_seconds: 10
  hide_pass: true
extractor:
  base_url: https://panel.example
  tournaments: [liga pro, setka]
telegram:
  token: "123:abc"
  chat_id: "-100999"
storage:
  dsn: /tmp/verdicts.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.ScanInterval())
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval())
	assert.True(t, cfg.Watcher.HidePass)
	assert.Equal(t, "https://panel.example", cfg.Extractor.BaseURL)
	assert.Equal(t, []string{"liga pro", "setka"}, cfg.Extractor.Tournaments)
	assert.Equal(t, "/tmp/verdicts.db", cfg.Storage.DSN)
	// defaults
	assert.Equal(t, 180*time.Second, cfg.StaleAfter())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "courtbot-state.json", cfg.Storage.StatePath)
}

func TestLoad_EnforcesMinimumIntervals(t *testing.T) {
	path := writeConfig(t, `
watcher:
  scan_interval_seconds: 2
  refresh_interval_seconds: 1
telegram:
  token: "123:abc"
  chat_id: "-100999"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, MinScanInterval, cfg.ScanInterval())
	assert.Equal(t, MinRefreshInterval, cfg.RefreshInterval())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_CHAT_ID", "env-chat")
	t.Setenv("EXTRACTOR_SESSION", "env-session")
	t.Setenv("LOG_LEVEL", "debug")

	path := writeConfig(t, `
telegram:
  token: "yaml-token"
  chat_id: "yaml-chat"
extractor:
  session: "yaml-session"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, "env-chat", cfg.Telegram.ChatID)
	assert.Equal(t, "env-session", cfg.Extractor.Session)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingTelegramCredentials(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	path := writeConfig(t, `
watcher:
  scan_interval_seconds: 60
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no-existe.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "watcher: [esto no es un mapa")
	_, err := Load(path)
	assert.Error(t, err)
}
