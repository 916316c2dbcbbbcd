package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// WeComWebhook pushes markdown-formatted messages to a WeCom group
// robot webhook.
type WeComWebhook struct {
	WebhookURL string
	HTTPClient *http.Client
}

// NewWeComWebhook returns a client targeting webhookURL.
func NewWeComWebhook(webhookURL string) *WeComWebhook {
	return &WeComWebhook{WebhookURL: webhookURL, HTTPClient: &http.Client{Timeout: 15 * time.Second}}
}

// SendMarkdown posts content as a markdown message, reporting whether the
// webhook accepted it.
func (w *WeComWebhook) SendMarkdown(ctx context.Context, content string) bool {
	if w.WebhookURL == "" {
		return false
	}

	body, _ := json.Marshal(map[string]any{
		"msgtype":  "markdown",
		"markdown": map[string]string{"content": content},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		ErrCode int `json:"errcode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}
	return result.ErrCode == 0
}
