package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wallet-watch/internal/wallet"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramMessageLimit is Telegram's cap on a single message text.
const telegramMessageLimit = 4096

// telegramAPI is the subset of the bot client the sink uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink delivers alerts through a Telegram bot.
type TelegramSink struct {
	ChatID          string
	ExplorerBaseURL string

	bot telegramAPI
	now func() time.Time
}

func NewTelegramSink(botToken, chatID, explorerBaseURL string) (*TelegramSink, error) {
	if botToken == "" || chatID == "" {
		return nil, fmt.Errorf("telegram configuration incomplete")
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramSink{
		ChatID:          chatID,
		ExplorerBaseURL: explorerBaseURL,
		bot:             bot,
		now:             time.Now,
	}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

// Send delivers the batch as one Markdown message, splitting per record
// when the batch exceeds Telegram's message limit.
func (s *TelegramSink) Send(ctx context.Context, records []wallet.Record) error {
	chatID, err := parseChatID(s.ChatID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	messages := SplitBatch(records, s.ExplorerBaseURL, s.now(), telegramMessageLimit)
	for _, text := range messages {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		if _, err := s.bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
	}
	return nil
}

// parseChatID accepts numeric chat IDs, including negative group IDs.
func parseChatID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", raw, err)
	}
	return id, nil
}
