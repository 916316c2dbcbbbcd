package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-news-pipeline/internal/llm"
	"ai-news-pipeline/internal/model"
)

func scoredWithContent(title, content string) model.ScoredItem {
	return model.ScoredItem{Raw: model.RawItem{Title: title, Content: content}}
}

func newGateway(t *testing.T, handler http.HandlerFunc) *llm.Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return llm.New(llm.Config{APIKey: "test", BaseURL: srv.URL, Model: "deepseek-chat", MaxRetries: 1, RetryDelay: time.Millisecond, Timeout: 5 * time.Second})
}

func jsonReply(w http.ResponseWriter, content string) {
	quoted, _ := json.Marshal(content)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":` +
		string(quoted) + `}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`))
}

func TestSummarizeAllBatchSucceedsAndAppliesPositionally(t *testing.T) {
	gw := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		jsonReply(w, `["第一条摘要内容五十到八十字之间用于测试批量解析逻辑是否按顺序对应正确", "第二条摘要内容同样用于验证批量解析的顺序对应关系是否准确无误"]`)
	})

	s := New(gw)
	items := []model.ScoredItem{
		scoredWithContent("Title A", "Some content about AI model A"),
		scoredWithContent("Title B", "Some content about AI model B"),
	}
	out := s.SummarizeAll(context.Background(), items)
	require.Len(t, out, 2)
	assert.Contains(t, out[0].SummaryCN, "第一条")
	assert.Contains(t, out[1].SummaryCN, "第二条")
}

func TestSummarizeAllFallsBackToPerItemOnLengthMismatch(t *testing.T) {
	calls := 0
	gw := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// Batch call returns a 1-element array for a 2-item batch: mismatch.
			jsonReply(w, `["只有一条摘要"]`)
			return
		}
		jsonReply(w, "单条摘要内容用于回退路径验证")
	})

	s := New(gw)
	items := []model.ScoredItem{
		scoredWithContent("Title A", "content A"),
		scoredWithContent("Title B", "content B"),
	}
	out := s.SummarizeAll(context.Background(), items)
	require.Len(t, out, 2)
	assert.Equal(t, "单条摘要内容用于回退路径验证", out[0].SummaryCN)
}

func TestSummarizeAllDropsInvalidSummaries(t *testing.T) {
	gw := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		jsonReply(w, `["正文缺失", "有效摘要内容用于验证保留逻辑是否正常工作而不被误删"]`)
	})

	s := New(gw)
	items := []model.ScoredItem{
		scoredWithContent("Title A", "content A"),
		scoredWithContent("Title B", "content B"),
	}
	out := s.SummarizeAll(context.Background(), items)
	require.Len(t, out, 1)
	assert.Equal(t, "Title B", out[0].Raw.Title)
}

func TestSummarizePerItemSynthesizesFromTitleWhenContentEmpty(t *testing.T) {
	s := &Summarizer{Gateway: nil, BatchSize: 1}
	out := s.summarizePerItem(context.Background(), []model.ScoredItem{scoredWithContent("Only A Title", "")})
	assert.Equal(t, "Only A Title", out[0])
}

func TestParseJSONArrayStripsCodeFence(t *testing.T) {
	arr, ok := parseJSONArray("```json\n[\"a\", \"b\"]\n```")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, arr)
}
