// Package publish implements the thin downstream-publisher REST clients
// named in spec.md §6: WeChatDraft, WeComWebhook, and FeishuBitable. They
// are concrete types; only WeChatDraft has a matching interface (Drafter).
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Drafter is the draft-publishing interface that WeChatDraft satisfies.
type Drafter interface {
	Publish(ctx context.Context, title, html, thumbMediaID string) (string, error)
}

// WeChatDraft publishes a draft article to the WeChat Official Account
// platform, caching its bearer token across calls.
type WeChatDraft struct {
	AppID      string
	AppSecret  string
	TokenPath  string
	HTTPClient *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

type wechatToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewWeChatDraft returns a client; tokenPath backs the on-disk token
// cache (wechat_token.json).
func NewWeChatDraft(appID, appSecret, tokenPath string) *WeChatDraft {
	return &WeChatDraft{
		AppID:      appID,
		AppSecret:  appSecret,
		TokenPath:  tokenPath,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish uploads a draft article and returns its media_id. A missing
// thumbMediaID is replaced by defaultThumbMediaID (an empty string); no
// cover image is uploaded.
func (w *WeChatDraft) Publish(ctx context.Context, title, html, thumbMediaID string) (string, error) {
	token, err := w.token(ctx)
	if err != nil {
		return "", err
	}
	if thumbMediaID == "" {
		thumbMediaID = defaultThumbMediaID
	}

	body, _ := json.Marshal(map[string]any{
		"articles": []map[string]string{{
			"title":         title,
			"content":       html,
			"thumb_media_id": thumbMediaID,
		}},
	})

	url := fmt.Sprintf("https://api.weixin.qq.com/cgi-bin/draft/add?access_token=%s", token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		MediaID string `json:"media_id"`
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.ErrCode != 0 {
		return "", fmt.Errorf("wechat draft add failed: %d %s", result.ErrCode, result.ErrMsg)
	}
	return result.MediaID, nil
}

// defaultThumbMediaID is substituted when the caller has no cover image.
// It is a fixed empty string, not read from configuration, so such drafts
// are sent with an empty thumb_media_id.
const defaultThumbMediaID = ""

// token returns a cached, still-valid access token, refreshing it (and
// persisting the refresh to disk) when expired.
func (w *WeChatDraft) token(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.accessToken != "" && time.Now().Before(w.expiresAt) {
		return w.accessToken, nil
	}
	if cached, ok := w.loadCachedToken(); ok {
		w.accessToken, w.expiresAt = cached.AccessToken, cached.ExpiresAt
		return w.accessToken, nil
	}

	url := fmt.Sprintf("https://api.weixin.qq.com/cgi-bin/token?grant_type=client_credential&appid=%s&secret=%s", w.AppID, w.AppSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("wechat token refresh returned empty access_token")
	}

	w.accessToken = result.AccessToken
	w.expiresAt = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	w.saveCachedToken()
	return w.accessToken, nil
}

func (w *WeChatDraft) loadCachedToken() (wechatToken, bool) {
	if w.TokenPath == "" {
		return wechatToken{}, false
	}
	data, err := os.ReadFile(w.TokenPath)
	if err != nil {
		return wechatToken{}, false
	}
	var cached wechatToken
	if err := json.Unmarshal(data, &cached); err != nil {
		return wechatToken{}, false
	}
	if time.Now().After(cached.ExpiresAt) {
		return wechatToken{}, false
	}
	return cached, true
}

func (w *WeChatDraft) saveCachedToken() {
	if w.TokenPath == "" {
		return
	}
	data, err := json.MarshalIndent(wechatToken{AccessToken: w.accessToken, ExpiresAt: w.expiresAt}, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(w.TokenPath), 0o755)
	_ = os.WriteFile(w.TokenPath, data, 0o644)
}
