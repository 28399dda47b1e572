package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wallet-watch/internal/infra/retry"
	"wallet-watch/internal/wallet"
)

// discordMessageLimit is the hard cap Discord places on webhook content.
const discordMessageLimit = 2000

type discordPayload struct {
	Content   string `json:"content"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// DiscordSink posts alerts to a Discord webhook.
type DiscordSink struct {
	WebhookURL      string
	Username        string
	ExplorerBaseURL string

	httpClient *http.Client
	now        func() time.Time
}

func NewDiscordSink(webhookURL, explorerBaseURL string) *DiscordSink {
	return &DiscordSink{
		WebhookURL:      webhookURL,
		Username:        "Wallet Monitor",
		ExplorerBaseURL: explorerBaseURL,
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		now:             time.Now,
	}
}

func (s *DiscordSink) Name() string { return "discord" }

// Send delivers the batch as one message, falling back to one message per
// record when the batch exceeds Discord's content limit. Transient webhook
// failures (429/5xx) are retried within the cycle.
func (s *DiscordSink) Send(ctx context.Context, records []wallet.Record) error {
	if s.WebhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	messages := SplitBatch(records, s.ExplorerBaseURL, s.now(), discordMessageLimit)
	for _, msg := range messages {
		if err := s.post(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *DiscordSink) post(ctx context.Context, content string) error {
	body, err := json.Marshal(discordPayload{
		Content:  content,
		Username: s.Username,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	opts := retry.Options{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}

	return retry.Do(ctx, opts, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to post to webhook: %w", err)
		}
		defer resp.Body.Close()

		// Discord answers 204 on success; anything else 2xx is fine too.
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	})
}
