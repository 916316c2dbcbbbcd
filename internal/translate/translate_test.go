package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-news-pipeline/internal/llm"
)

func TestTranslateTitleSkipsAlreadyChineseInput(t *testing.T) {
	tr := New(nil, nil)
	out := tr.TranslateTitle(context.Background(), "谷歌发布全新人工智能模型")
	assert.Equal(t, "谷歌发布全新人工智能模型", out)
}

func TestTranslateTitleUsesCacheBeforeNetworkCalls(t *testing.T) {
	tr := New(nil, Cache{"Hello world": {Text: "你好世界", CreatedAt: time.Now()}})
	out := tr.TranslateTitle(context.Background(), "Hello world")
	assert.Equal(t, "你好世界", out)
}

func TestReassembleSegmentsConcatenatesTranslatedParts(t *testing.T) {
	body := []byte(`[[["你好","hello",null,null,1],["世界","world",null,null,1]],null,"en"]`)
	zh, ok := reassembleSegments(body)
	require.True(t, ok)
	assert.Equal(t, "你好世界", zh)
}

func TestTranslateFreeRejectsNoOpTranslation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[["Hello world","Hello world",null,null,1]],null,"en"]`))
	}))
	defer srv.Close()

	tr := New(nil, nil)
	tr.HTTPClient = srv.Client()
	tr.FreeEndpoint = srv.URL

	_, ok := tr.translateFree(context.Background(), "Hello world")
	assert.False(t, ok)
}

func TestTranslateBatchTitlesDeterministicFromCache(t *testing.T) {
	tr := New(nil, Cache{
		"Alpha": {Text: "阿尔法", CreatedAt: time.Now()},
		"Beta":  {Text: "贝塔", CreatedAt: time.Now()},
	})
	out := tr.TranslateBatchTitles(context.Background(), []string{"Alpha", "Beta"})
	assert.Equal(t, "阿尔法", out["Alpha"])
	assert.Equal(t, "贝塔", out["Beta"])
}

// TestTranslateBatchTitlesFallsBackToLLMOnlyForFreeTierFailures covers a
// free-tier 500 on the first of two titles, success on the second: only
// the failing title should reach the LLM fallback, and both results must
// land on the correct title despite the free tier succeeding out of
// input order.
func TestTranslateBatchTitlesFallsBackToLLMOnlyForFreeTierFailures(t *testing.T) {
	const failing = "Startup raises new funding round"
	const succeeding = "Company ships new feature"

	freeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[[["公司推出新功能","` + succeeding + `",null,null,1]],null,"en"]`))
	}))
	defer freeSrv.Close()

	var llmCalls int32
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&llmCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		body, _ := json.Marshal(map[string]any{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 0, "model": "deepseek-chat",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": "初创公司完成新一轮融资"}, "finish_reason": "stop"}},
			"usage":   map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
		_, _ = w.Write(body)
	}))
	defer llmSrv.Close()

	gw := llm.New(llm.Config{APIKey: "test", BaseURL: llmSrv.URL, Model: "deepseek-chat", MaxRetries: 1, RetryDelay: time.Millisecond, Timeout: 5 * time.Second})

	tr := New(gw, nil)
	tr.HTTPClient = freeSrv.Client()
	tr.FreeEndpoint = freeSrv.URL

	out := tr.TranslateBatchTitles(context.Background(), []string{failing, succeeding})

	assert.Equal(t, "初创公司完成新一轮融资", out[failing])
	assert.Equal(t, "公司推出新功能", out[succeeding])
	assert.Equal(t, int32(1), atomic.LoadInt32(&llmCalls), "only the free-tier failure should reach the LLM fallback")
}

func TestTruncateRunesDoesNotSplitMultiByteCharacters(t *testing.T) {
	s := ""
	for i := 0; i < 100; i++ {
		s += "中"
	}
	out := truncateRunes(s, 80)
	assert.Equal(t, 80, len([]rune(out)))
}
