package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"wallet-watch/internal/wallet"
)

// EmailSink delivers alerts over SMTP with STARTTLS.
type EmailSink struct {
	Server          string
	Port            int
	Username        string
	Password        string
	Sender          string
	Recipients      []string
	ExplorerBaseURL string

	// sendMail is swapped out in tests; defaults to smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
}

func NewEmailSink(server string, port int, username, password, sender string, recipients []string, explorerBaseURL string) *EmailSink {
	return &EmailSink{
		Server:          server,
		Port:            port,
		Username:        username,
		Password:        password,
		Sender:          sender,
		Recipients:      recipients,
		ExplorerBaseURL: explorerBaseURL,
		sendMail:        smtp.SendMail,
		now:             time.Now,
	}
}

func (s *EmailSink) Name() string { return "email" }

// Send mails the whole batch as one message. Email has no meaningful size
// limit for this payload, so there is no per-record fallback.
func (s *EmailSink) Send(ctx context.Context, records []wallet.Record) error {
	if s.Server == "" || s.Username == "" || s.Password == "" || s.Sender == "" {
		return fmt.Errorf("email configuration incomplete")
	}
	if len(s.Recipients) == 0 {
		return fmt.Errorf("no email recipients configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body := BuildMessage(records, s.ExplorerBaseURL, s.now())
	subject := fmt.Sprintf("🚨 NEW WALLET ALERT - %d new wallet(s) detected", len(records))

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.Sender)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(s.Recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.Server, s.Port)
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Server)

	if err := s.sendMail(addr, auth, s.Sender, s.Recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", addr, err)
	}
	return nil
}
