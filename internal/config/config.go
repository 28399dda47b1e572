package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is loaded once at startup and immutable for the process lifetime;
// changes take effect on restart.
type Config struct {
	Monitor MonitorConfig `mapstructure:"monitor"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	App     AppConfig     `mapstructure:"app"`
}

type MonitorConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	EntityID             string `mapstructure:"entity_id"`
	EntityLabel          string `mapstructure:"entity_label"`
	PollingIntervalHours int    `mapstructure:"polling_interval_hours"`
	RequestTimeout       int    `mapstructure:"request_timeout"` // seconds
}

type NotifyConfig struct {
	DiscordWebhook string `mapstructure:"discord_webhook"`
	DiscordEnabled bool   `mapstructure:"discord_enabled"`

	EnableEmail     bool   `mapstructure:"enable_email"`
	EmailSender     string `mapstructure:"email_sender"`
	EmailRecipients string `mapstructure:"email_recipients"` // comma-separated
	SMTPServer      string `mapstructure:"smtp_server"`
	SMTPPort        int    `mapstructure:"smtp_port"`
	SMTPUsername    string `mapstructure:"smtp_username"`
	SMTPPassword    string `mapstructure:"smtp_password"`

	TelegramEnabled  bool   `mapstructure:"telegram_enabled"`
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	TelegramChatID   string `mapstructure:"telegram_chat_id"`
}

type AppConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	StateFile   string `mapstructure:"state_file"`
	ArchiveFile string `mapstructure:"archive_file"`
}

// Interval returns the continuous-mode sleep duration.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.PollingIntervalHours) * time.Hour
}

// Timeout returns the per-request fetch timeout.
func (m MonitorConfig) Timeout() time.Duration {
	return time.Duration(m.RequestTimeout) * time.Second
}

// Recipients splits the comma-separated recipient list, dropping blanks.
func (n NotifyConfig) Recipients() []string {
	var out []string
	for _, r := range strings.Split(n.EmailRecipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Load reads configuration in ascending priority: defaults, the config
// file (explicit path, or ./config.yaml when path is empty), .env, then
// process environment variables.
func Load(path string) (*Config, error) {
	godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.ReadInConfig() // optional when no explicit path was given
	}

	v.AutomaticEnv()
	setupEnvAliases(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("monitor.base_url", "https://intel.arkm.com")
	v.SetDefault("monitor.entity_id", "usg")
	v.SetDefault("monitor.entity_label", "USG Wallet")
	v.SetDefault("monitor.polling_interval_hours", 24)
	v.SetDefault("monitor.request_timeout", 30)

	v.SetDefault("notify.discord_webhook", "")
	v.SetDefault("notify.discord_enabled", true)
	v.SetDefault("notify.enable_email", false)
	v.SetDefault("notify.email_sender", "")
	v.SetDefault("notify.email_recipients", "")
	v.SetDefault("notify.smtp_server", "")
	v.SetDefault("notify.smtp_port", 587)
	v.SetDefault("notify.smtp_username", "")
	v.SetDefault("notify.smtp_password", "")
	v.SetDefault("notify.telegram_enabled", false)
	v.SetDefault("notify.telegram_bot_token", "")
	v.SetDefault("notify.telegram_chat_id", "")

	v.SetDefault("app.data_dir", "data")
	v.SetDefault("app.state_file", "known_wallets.json")
	v.SetDefault("app.archive_file", "responses.db")
}

func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("monitor.base_url", "MONITOR_BASE_URL")
	v.BindEnv("monitor.entity_id", "MONITOR_ENTITY_ID")
	v.BindEnv("monitor.entity_label", "MONITOR_ENTITY_LABEL")
	v.BindEnv("monitor.polling_interval_hours", "MONITOR_POLLING_INTERVAL_HOURS")
	v.BindEnv("monitor.request_timeout", "MONITOR_REQUEST_TIMEOUT")

	v.BindEnv("notify.discord_webhook", "DISCORD_WEBHOOK")
	v.BindEnv("notify.discord_enabled", "DISCORD_ENABLED")
	v.BindEnv("notify.enable_email", "ENABLE_EMAIL")
	v.BindEnv("notify.email_sender", "EMAIL_SENDER")
	v.BindEnv("notify.email_recipients", "EMAIL_RECIPIENTS")
	v.BindEnv("notify.smtp_server", "SMTP_SERVER")
	v.BindEnv("notify.smtp_port", "SMTP_PORT")
	v.BindEnv("notify.smtp_username", "SMTP_USERNAME")
	v.BindEnv("notify.smtp_password", "SMTP_PASSWORD")
	v.BindEnv("notify.telegram_enabled", "TELEGRAM_ENABLED")
	v.BindEnv("notify.telegram_bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("notify.telegram_chat_id", "TELEGRAM_CHAT_ID")

	v.BindEnv("app.data_dir", "APP_DATA_DIR")
	v.BindEnv("app.state_file", "APP_STATE_FILE")
	v.BindEnv("app.archive_file", "APP_ARCHIVE_FILE")
}

func validate(cfg *Config) error {
	if cfg.Monitor.BaseURL == "" {
		return fmt.Errorf("monitor.base_url is required")
	}
	if cfg.Monitor.EntityID == "" {
		return fmt.Errorf("monitor.entity_id is required")
	}
	if cfg.Monitor.PollingIntervalHours <= 0 {
		return fmt.Errorf("monitor.polling_interval_hours must be positive")
	}
	if cfg.Notify.DiscordEnabled && cfg.Notify.DiscordWebhook == "" {
		return fmt.Errorf("notify.discord_webhook is required when discord is enabled")
	}
	if cfg.Notify.EnableEmail {
		if cfg.Notify.SMTPServer == "" || cfg.Notify.SMTPUsername == "" || cfg.Notify.SMTPPassword == "" || cfg.Notify.EmailSender == "" {
			return fmt.Errorf("incomplete smtp settings: smtp_server, smtp_username, smtp_password and email_sender are required when email is enabled")
		}
		if len(cfg.Notify.Recipients()) == 0 {
			return fmt.Errorf("notify.email_recipients is required when email is enabled")
		}
	}
	if cfg.Notify.TelegramEnabled && (cfg.Notify.TelegramBotToken == "" || cfg.Notify.TelegramChatID == "") {
		return fmt.Errorf("notify.telegram_bot_token and notify.telegram_chat_id are required when telegram is enabled")
	}
	return nil
}
