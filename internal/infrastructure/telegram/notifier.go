package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"DealEventScraper/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// Telegram rejects longer messages.
	maxMessageRunes = 4096
)

// Notifier sends batch summaries to a Telegram chat via the bot API.
type Notifier struct {
	botToken string
	chatID   string
	client   *resty.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// Options tune the notifier. A nil Client gets a 5s timeout client.
type Options struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
}

// NewNotifier registers bot token and chat identifier.
func NewNotifier(opts Options) *Notifier {
	httpClient := opts.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	base := opts.APIBase
	if base == "" {
		base = defaultAPIBase
	}

	return &Notifier{
		botToken: opts.BotToken,
		chatID:   opts.ChatID,
		client:   resty.NewWithClient(httpClient).SetBaseURL(base),
	}
}

// Publish posts a plain-text message to the configured chat.
func (n *Notifier) Publish(ctx context.Context, message string) error {
	if n.botToken == "" || n.chatID == "" {
		return errors.New("telegram notifier misconfigured")
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":                  n.chatID,
			"text":                     truncate(message, maxMessageRunes),
			"disable_web_page_preview": "true",
		}).
		SetPathParam("token", n.botToken).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK || !gjson.GetBytes(body, "ok").Bool() {
		description := gjson.GetBytes(body, "description").String()
		if description == "" {
			description = resp.Status()
		}
		return fmt.Errorf("telegram error: %s", description)
	}

	return nil
}

func truncate(message string, limit int) string {
	runes := []rune(message)
	if len(runes) <= limit {
		return message
	}
	return string(runes[:limit-1]) + "…"
}
