package notify

import (
	"context"
	"fmt"
	"net/http"
)

const (
	telegramAPI      = "https://api.telegram.org"
	telegramMaxChars = 4096
)

// TelegramSender delivers messages through the Bot API sendMessage call.
// Text is sent with Markdown parse mode and cut to the per-message limit.
type TelegramSender struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegramSender creates a sender for one bot token and chat.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		baseURL: telegramAPI,
		token:   token,
		chatID:  chatID,
		client:  newHTTPClient(),
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send implements Sender.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	msg := telegramMessage{
		ChatID:    t.chatID,
		Text:      truncate("*"+title+"*\n"+message, telegramMaxChars),
		ParseMode: "Markdown",
	}
	endpoint := t.baseURL + "/bot" + t.token + "/sendMessage"
	if err := postJSON(ctx, t.client, endpoint, msg); err != nil {
		// url.Error quotes the endpoint, which embeds the token.
		return fmt.Errorf("telegram: send to chat %s: %w", t.chatID, redactToken(err, t.token))
	}
	return nil
}

// Name implements Sender.
func (t *TelegramSender) Name() string { return "telegram" }
