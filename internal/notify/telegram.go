package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends alerts to one chat through a bot.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram prepares a bot client for endpoint (tgbotapi.APIEndpoint when
// empty) without contacting the API, so a controller that boots before its
// network is up still gets a working channel. The bot library does not
// accept a context, so each request is bounded by timeout instead.
func NewTelegram(token string, chatID int64, endpoint string, timeout time.Duration) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: timeout},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(endpoint)

	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Authorize checks the token with getMe. Failure does not disable the
// notifier; the next Notify tries the API again.
func (t *Telegram) Authorize() error {
	self, err := t.bot.GetMe()
	if err != nil {
		return fmt.Errorf("authorize telegram bot: %w", err)
	}
	t.bot.Self = self
	return nil
}

// BotName returns the bot's username, empty until Authorize succeeded.
func (t *Telegram) BotName() string {
	return t.bot.Self.UserName
}

// Notify sends message as plain text.
func (t *Telegram) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, message)
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
