package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers one human-readable message to the operator channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// maxMessageRunes is Telegram's limit for a single text message.
const maxMessageRunes = 4096

// sendTimeout caps every Bot API request; Send itself takes no context.
const sendTimeout = 15 * time.Second

// Telegram sends operator messages through a bot to a fixed list of chats.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
}

func NewTelegram(token string, chatIDs []int64, debug bool) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint, newBotClient(), chatIDs, debug)
}

func newBotClient() *http.Client {
	return &http.Client{Timeout: sendTimeout}
}

// NewTelegramWithEndpoint points the bot at a custom Bot API server; the
// endpoint is a format string taking the token and the method.
func NewTelegramWithEndpoint(token, endpoint string, client *http.Client, chatIDs []int64, debug bool) (*Telegram, error) {
	if len(chatIDs) == 0 {
		return nil, errors.New("telegram notifier needs at least one operator chat id")
	}
	b, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	b.Debug = debug
	log.Printf("[notify] telegram bot authorized as @%s", b.Self.UserName)
	return &Telegram{bot: b, chatIDs: chatIDs}, nil
}

// Notify sends text to every operator chat. Long texts are split on line
// boundaries. All chats are attempted; failures are joined.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	var errs []error
	parts := splitMessage(text, maxMessageRunes)
	for _, chatID := range t.chatIDs {
		for _, part := range parts {
			if err := ctx.Err(); err != nil {
				return errors.Join(append(errs, err)...)
			}
			msg := tgbotapi.NewMessage(chatID, part)
			msg.DisableWebPagePreview = true
			if _, err := t.bot.Send(msg); err != nil {
				errs = append(errs, fmt.Errorf("send to chat %d: %w", chatID, err))
				break
			}
		}
	}
	return errors.Join(errs...)
}

// Log writes operator messages to the process log. Used when no bot token is configured.
type Log struct{}

func (Log) Notify(_ context.Context, text string) error {
	log.Printf("[notify] %s", text)
	return nil
}

func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var (
		parts []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
			n = 0
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln > limit {
			flush()
		}
		// A single line longer than the limit is hard-cut.
		for ln > limit {
			r := []rune(line)
			parts = append(parts, string(r[:limit]))
			line = string(r[limit:])
			ln -= limit
		}
		cur.WriteString(line)
		n += ln
	}
	flush()
	return parts
}
