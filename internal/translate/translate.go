// Package translate implements the Translator of spec.md §4.9: a free-tier
// public endpoint tried first, an LLM batch fallback, a Chinese-ratio
// skip guard, and a translation cache keyed by source text. Grounded on
// the original's ai_service/translator.py.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ai-news-pipeline/internal/llm"
	"ai-news-pipeline/internal/normalize"
)

const (
	// FreeTierTimeout bounds the public-endpoint call.
	FreeTierTimeout = 8 * time.Second
	// MaxPerBatch caps titles sent per LLM fallback call.
	MaxPerBatch = 5
	// MaxOutputLength truncates each translated title.
	MaxOutputLength = 80
	// ChineseRatioSkipThreshold: inputs already this Han-dense skip translation.
	ChineseRatioSkipThreshold = 0.3
)

const freeEndpoint = "https://translate.googleapis.com/translate_a/single"

// CacheEntry pairs a translated string with when it was produced.
type CacheEntry struct {
	Text      string
	CreatedAt time.Time
}

// Cache is the in-memory translation cache for one run; callers own
// loading/persisting it as a map, per spec.md's title-zh-cache.json.
type Cache map[string]CacheEntry

// Translator translates titles and other short strings to Chinese.
type Translator struct {
	HTTPClient   *http.Client
	Gateway      *llm.Gateway
	Cache        Cache
	FreeEndpoint string // overridable in tests; defaults to the public Google endpoint
}

// LoadCache reads <dir>/title-zh-cache.json if present, returning an
// empty Cache (not an error) when the file is missing or corrupt.
func LoadCache(dir string) Cache {
	cache := make(Cache)
	data, err := os.ReadFile(filepath.Join(dir, "title-zh-cache.json"))
	if err != nil {
		return cache
	}
	_ = json.Unmarshal(data, &cache)
	return cache
}

// SaveCache persists cache to <dir>/title-zh-cache.json, creating dir if
// needed. Only the maxCacheEntries most recently created entries are
// written; older ones are evicted. Errors are not fatal to the caller's run.
func SaveCache(dir string, cache Cache) error {
	const maxCacheEntries = 5000
	if len(cache) > maxCacheEntries {
		keys := make([]string, 0, len(cache))
		for k := range cache {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return cache[keys[i]].CreatedAt.After(cache[keys[j]].CreatedAt) })
		trimmed := make(Cache, maxCacheEntries)
		for _, k := range keys[:maxCacheEntries] {
			trimmed[k] = cache[k]
		}
		cache = trimmed
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "title-zh-cache.json"), data, 0o644)
}

// New returns a Translator backed by gw for the LLM fallback tier.
func New(gw *llm.Gateway, cache Cache) *Translator {
	if cache == nil {
		cache = make(Cache)
	}
	return &Translator{
		HTTPClient:   &http.Client{Timeout: FreeTierTimeout},
		Gateway:      gw,
		Cache:        cache,
		FreeEndpoint: freeEndpoint,
	}
}

// TranslateTitle translates a single title, consulting the cache first.
func (t *Translator) TranslateTitle(ctx context.Context, title string) string {
	if normalize.HanRatio(title) >= ChineseRatioSkipThreshold {
		return title
	}
	if entry, ok := t.Cache[title]; ok {
		return entry.Text
	}

	if zh, ok := t.translateFree(ctx, title); ok {
		t.Cache[title] = CacheEntry{Text: zh, CreatedAt: time.Now().UTC()}
		return zh
	}

	results := t.translateBatchLLM(ctx, []string{title})
	zh := results[0]
	if zh == "" {
		zh = title
	}
	t.Cache[title] = CacheEntry{Text: zh, CreatedAt: time.Now().UTC()}
	return zh
}

// TranslateBatchTitles translates many titles, batching the LLM fallback
// tier up to MaxPerBatch per call. Titles already cached or already
// Chinese-dense are resolved without a network call.
func (t *Translator) TranslateBatchTitles(ctx context.Context, titles []string) map[string]string {
	out := make(map[string]string, len(titles))
	var needFree []string

	for _, title := range titles {
		if normalize.HanRatio(title) >= ChineseRatioSkipThreshold {
			out[title] = title
			continue
		}
		if entry, ok := t.Cache[title]; ok {
			out[title] = entry.Text
			continue
		}
		needFree = append(needFree, title)
	}

	var needLLM []string
	for _, title := range needFree {
		if zh, ok := t.translateFree(ctx, title); ok {
			out[title] = zh
			t.Cache[title] = CacheEntry{Text: zh, CreatedAt: time.Now().UTC()}
		} else {
			needLLM = append(needLLM, title)
		}
	}

	for start := 0; start < len(needLLM); start += MaxPerBatch {
		end := start + MaxPerBatch
		if end > len(needLLM) {
			end = len(needLLM)
		}
		batch := needLLM[start:end]
		results := t.translateBatchLLM(ctx, batch)
		for i, title := range batch {
			zh := results[i]
			if zh == "" {
				zh = title
			}
			out[title] = zh
			t.Cache[title] = CacheEntry{Text: zh, CreatedAt: time.Now().UTC()}
		}
	}

	return out
}

// translateFree calls the public translate endpoint, reassembles its
// segmented JSON response, and rejects a no-op translation (result equal
// to input). Any failure returns ok=false; callers fall through to the
// LLM tier.
func (t *Translator) translateFree(ctx context.Context, text string) (string, bool) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", "zh-CN")
	q.Set("dt", "t")
	q.Set("q", text)

	reqURL := t.FreeEndpoint + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", false
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", false
	}

	zh, ok := reassembleSegments(body)
	if !ok {
		return "", false
	}
	zh = strings.TrimSpace(zh)
	if zh == "" || zh == strings.TrimSpace(text) {
		return "", false
	}
	return zh, true
}

// reassembleSegments parses the free endpoint's nested-array response
// shape ([[["seg1","orig1",...],["seg2","orig2",...],...],...]) and
// concatenates the translated segments.
func reassembleSegments(body []byte) (string, bool) {
	var parsed []any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false
	}
	if len(parsed) == 0 {
		return "", false
	}
	sentences, ok := parsed[0].([]any)
	if !ok {
		return "", false
	}

	var b strings.Builder
	for _, s := range sentences {
		seg, ok := s.([]any)
		if !ok || len(seg) == 0 {
			continue
		}
		text, ok := seg[0].(string)
		if !ok {
			continue
		}
		b.WriteString(text)
	}
	return b.String(), true
}

// translateBatchLLM asks the model for one translation per line, in
// input order, and maps results positionally, truncating each to
// MaxOutputLength.
func (t *Translator) translateBatchLLM(ctx context.Context, titles []string) []string {
	out := make([]string, len(titles))
	if t.Gateway == nil || len(titles) == 0 {
		return out
	}

	var b strings.Builder
	b.WriteString("请将以下标题翻译成中文，每行一个翻译结果，严格按输入顺序逐行返回，不要添加编号或其他说明：\n")
	for _, title := range titles {
		fmt.Fprintf(&b, "%s\n", title)
	}

	reply, err := t.Gateway.Chat(ctx, []llm.Message{{Role: "user", Content: b.String()}}, 0.2, 300)
	if err != nil || reply == "" {
		return out
	}

	lines := strings.Split(strings.TrimSpace(reply), "\n")
	for i := range titles {
		if i >= len(lines) {
			break
		}
		line := strings.TrimSpace(lines[i])
		out[i] = truncateRunes(line, MaxOutputLength)
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
