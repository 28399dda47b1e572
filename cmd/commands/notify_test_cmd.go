package commands

// Sends a sample wallet record through the configured sinks so operators
// can verify webhook/email/telegram settings before trusting the monitor.

import (
	"context"
	"time"

	"wallet-watch/internal/config"
	"wallet-watch/internal/infra/log"
	"wallet-watch/internal/wallet"

	"github.com/spf13/cobra"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a sample alert through the configured channels",
	RunE:  runNotifyTest,
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	log.SetVerbose(flagVerbose)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	sample := []wallet.Record{{
		Address:          "bc1qwuferz7fax39tru66ykrxkn99msem53ph7g6t9",
		Chain:            "BTC",
		Label:            cfg.Monitor.EntityLabel,
		Balance:          19.94,
		FirstSeen:        time.Now(),
		FirstTransaction: "2025-03-25T22:45:00Z",
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := notifier.Notify(ctx, sample); err != nil {
		return err
	}
	log.LogSuccess("Notification test completed")
	return nil
}
