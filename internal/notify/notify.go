// Package notify delivers new-wallet alerts to the configured sinks.
// Channels are independent: a failing sink never blocks another sink or
// the monitoring cycle.
package notify

import (
	"context"
	"fmt"

	"wallet-watch/internal/infra/log"
	"wallet-watch/internal/wallet"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Sink is a single notification channel. Implementations batch all records
// from one cycle into one message where the channel allows it.
type Sink interface {
	Name() string
	Send(ctx context.Context, records []wallet.Record) error
}

// NotifyError carries the channel that failed and why. It is loud but
// never fatal to the process.
type NotifyError struct {
	Channel string
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify via %s: %v", e.Channel, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// Notifier fans one batch of records out to every configured sink.
type Notifier struct {
	sinks []Sink
}

func NewNotifier(sinks ...Sink) *Notifier {
	return &Notifier{sinks: sinks}
}

func (n *Notifier) Sinks() int {
	return len(n.sinks)
}

// Notify attempts delivery on every sink and returns the combined failures,
// one NotifyError per failed channel. Delivery on the remaining sinks
// continues past a failure. An empty batch is a no-op.
func (n *Notifier) Notify(ctx context.Context, records []wallet.Record) error {
	if len(records) == 0 {
		return nil
	}

	var errs error
	for _, sink := range n.sinks {
		if err := sink.Send(ctx, records); err != nil {
			ne := &NotifyError{Channel: sink.Name(), Err: err}
			log.LogError("Notification delivery failed",
				zap.String("channel", sink.Name()),
				zap.Int("records", len(records)),
				zap.Error(err))
			errs = multierr.Append(errs, ne)
			continue
		}
		log.LogSuccess("Notification sent",
			zap.String("channel", sink.Name()),
			zap.Int("records", len(records)))
	}
	return errs
}
