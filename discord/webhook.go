package discord

import (
	"fmt"
	"net/http"
	"net/url"
)

// WebhookMessageParams represents the structure for sending a webhook message.
type WebhookMessageParams struct {
	AllowedMentions *MessageAllowedMentions `json:"allowed_mentions,omitempty"`
	Content         string                  `json:"content,omitempty"`
	Username        string                  `json:"username,omitempty"`
	AvatarURL       string                  `json:"avatar_url,omitempty"`
	Embeds          []Embed                 `json:"embeds,omitempty"`
}

// ExecuteWebhookURL posts a message to a full webhook url such as
// https://discord.com/api/webhooks/{id}/{token}.
func ExecuteWebhookURL(s *Session, webhookURL string, params WebhookMessageParams) error {
	parsed, err := url.Parse(webhookURL)
	if err != nil {
		return fmt.Errorf("failed to parse webhook url: %w", err)
	}

	endpoint := parsed.Path
	if parsed.RawQuery != "" {
		endpoint += "?" + parsed.RawQuery
	}

	err = s.Interface.FetchJJ(s, http.MethodPost, endpoint, params, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to execute webhook: %w", err)
	}

	return nil
}
