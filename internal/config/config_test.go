package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"wallet-watch/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "notify:\n  discord_webhook: https://discord.example/hook\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://intel.arkm.com", cfg.Monitor.BaseURL)
	assert.Equal(t, "usg", cfg.Monitor.EntityID)
	assert.Equal(t, 24, cfg.Monitor.PollingIntervalHours)
	assert.Equal(t, 24*time.Hour, cfg.Monitor.Interval())
	assert.Equal(t, 30*time.Second, cfg.Monitor.Timeout())
	assert.True(t, cfg.Notify.DiscordEnabled)
	assert.False(t, cfg.Notify.EnableEmail)
	assert.Equal(t, 587, cfg.Notify.SMTPPort)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
monitor:
  entity_id: treasury
  polling_interval_hours: 6
notify:
  discord_enabled: false
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "treasury", cfg.Monitor.EntityID)
	assert.Equal(t, 6*time.Hour, cfg.Monitor.Interval())
	assert.False(t, cfg.Notify.DiscordEnabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MONITOR_ENTITY_ID", "from-env")
	t.Setenv("DISCORD_WEBHOOK", "https://discord.example/hook")

	cfg, err := config.Load(writeConfig(t, "monitor:\n  entity_id: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Monitor.EntityID)
}

func TestLoad_MissingExplicitFileIsAnError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_DiscordEnabledRequiresWebhook(t *testing.T) {
	_, err := config.Load(writeConfig(t, "notify:\n  discord_enabled: true\n  discord_webhook: \"\"\n"))
	assert.Error(t, err)
}

func TestLoad_EmailValidation(t *testing.T) {
	path := writeConfig(t, `
notify:
  discord_enabled: false
  enable_email: true
  smtp_server: smtp.example.com
  smtp_username: user
  smtp_password: pass
  email_sender: alerts@example.com
  email_recipients: "a@example.com, ,b@example.com"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Notify.Recipients())
}

func TestLoad_EmailWithoutRecipientsRejected(t *testing.T) {
	path := writeConfig(t, `
notify:
  discord_enabled: false
  enable_email: true
  smtp_server: smtp.example.com
  smtp_username: user
  smtp_password: pass
  email_sender: alerts@example.com
`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_TelegramValidation(t *testing.T) {
	path := writeConfig(t, `
notify:
  discord_enabled: false
  telegram_enabled: true
  telegram_bot_token: ""
`)

	_, err := config.Load(path)
	assert.Error(t, err)
}
