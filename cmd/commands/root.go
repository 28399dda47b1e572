package commands

// Root command: runs the wallet monitor itself. Subcommands cover the
// operational extras (systemd unit generation, notification test).

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"wallet-watch/internal/archive"
	"wallet-watch/internal/arkm"
	"wallet-watch/internal/config"
	"wallet-watch/internal/infra/log"
	"wallet-watch/internal/monitor"
	"wallet-watch/internal/notify"
	"wallet-watch/internal/wallet"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagConfig   string
	flagOnce     bool
	flagInterval int
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "wallet-watch",
	Short: "Monitor an intelligence explorer for newly tagged entity wallets",
	Long: `wallet-watch periodically scrapes a public intelligence explorer for
wallets registered under a configured entity label, diffs them against the
wallets seen before, and alerts the configured channels about new ones.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMonitor,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration file (default ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose console logging")
	rootCmd.Flags().BoolVar(&flagOnce, "once", false, "Run a single cycle and exit")
	rootCmd.Flags().IntVar(&flagInterval, "interval", 0, "Polling interval in hours (overrides config)")

	rootCmd.AddCommand(systemdCmd)
	rootCmd.AddCommand(notifyTestCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	log.SetVerbose(flagVerbose)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagInterval > 0 {
		cfg.Monitor.PollingIntervalHours = flagInterval
	}

	store, err := wallet.Open(filepath.Join(cfg.App.DataDir, cfg.App.StateFile))
	if err != nil {
		return err
	}

	var arc *archive.Archive
	if cfg.App.ArchiveFile != "" {
		if err := os.MkdirAll(cfg.App.DataDir, 0755); err != nil {
			return err
		}
		arc, err = archive.Open(filepath.Join(cfg.App.DataDir, cfg.App.ArchiveFile))
		if err != nil {
			log.LogWarn("Response archive unavailable, continuing without it", zap.Error(err))
			arc = nil
		} else {
			defer arc.Close()
		}
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	mon := &monitor.Monitor{
		EntityID: cfg.Monitor.EntityID,
		Fetcher:  arkm.NewClient(cfg.Monitor.BaseURL, cfg.Monitor.Timeout()),
		Extract:  &arkm.Extractor{Label: cfg.Monitor.EntityLabel},
		Store:    store,
		Notifier: notifier,
	}
	if arc != nil {
		mon.Archive = arc
	}

	runner := monitor.NewRunner(mon, cfg.Monitor.Interval())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if flagOnce {
		if err := runner.RunOnce(ctx); err != nil {
			return err
		}
		log.LogSuccess("Single run completed")
		return nil
	}

	return runner.Run(ctx)
}

// buildNotifier assembles sinks from the enabled channels. Running with no
// channel at all is allowed but unusual, so it gets a warning.
func buildNotifier(cfg *config.Config) (*notify.Notifier, error) {
	var sinks []notify.Sink

	if cfg.Notify.DiscordEnabled {
		sinks = append(sinks, notify.NewDiscordSink(cfg.Notify.DiscordWebhook, cfg.Monitor.BaseURL))
	}
	if cfg.Notify.EnableEmail {
		sinks = append(sinks, notify.NewEmailSink(
			cfg.Notify.SMTPServer,
			cfg.Notify.SMTPPort,
			cfg.Notify.SMTPUsername,
			cfg.Notify.SMTPPassword,
			cfg.Notify.EmailSender,
			cfg.Notify.Recipients(),
			cfg.Monitor.BaseURL,
		))
	}
	if cfg.Notify.TelegramEnabled {
		tg, err := notify.NewTelegramSink(cfg.Notify.TelegramBotToken, cfg.Notify.TelegramChatID, cfg.Monitor.BaseURL)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, tg)
	}

	if len(sinks) == 0 {
		log.LogWarn("No notification channels enabled, new wallets will only be logged")
	}
	return notify.NewNotifier(sinks...), nil
}
