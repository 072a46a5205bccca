package notify

import (
	"context"
	"fmt"
	"net/http"
)

const discordMaxChars = 2000

// DiscordSender posts to a channel webhook. Discord answers 204 on success.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{webhookURL: webhookURL, client: newHTTPClient()}
}

type discordPayload struct {
	Content string `json:"content"`
}

func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	content := truncate("**"+title+"**\n"+message, discordMaxChars)
	if err := postJSON(ctx, d.client, d.webhookURL, discordPayload{Content: content}); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}

func (d *DiscordSender) Name() string { return "discord" }
