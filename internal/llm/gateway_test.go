package llm

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
)

func chatResponse(content string, tokens int) []byte {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "deepseek-chat",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": tokens, "total_tokens": 10 + tokens},
	})
	return body
}

func TestChatStripsThinkTagsAndCountsTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatResponse("<think>reasoning here</think>\nFinal answer", 20))
	}))
	defer srv.Close()

	gw := New(Config{APIKey: "test", BaseURL: srv.URL, Model: "deepseek-chat", MaxRetries: 3, RetryDelay: time.Millisecond, Timeout: 5 * time.Second})
	out, err := gw.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.7, 100)

	require.NoError(t, err)
	assert.Equal(t, "Final answer", out)
	assert.Equal(t, int64(30), gw.TotalTokens())
}

func TestChatRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatResponse("ok", 5))
	}))
	defer srv.Close()

	gw := New(Config{APIKey: "test", BaseURL: srv.URL, Model: "deepseek-chat", MaxRetries: 3, RetryDelay: time.Millisecond, Timeout: 5 * time.Second})
	out, err := gw.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.7, 100)

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestChatExhaustedRetriesReturnsEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := New(Config{APIKey: "test", BaseURL: srv.URL, Model: "deepseek-chat", MaxRetries: 2, RetryDelay: time.Millisecond, Timeout: 5 * time.Second})
	out, err := gw.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.7, 100)

	require.NoError(t, err, "gateway must never return an error to the caller")
	assert.Empty(t, out)
}

func TestStripThinkHandlesMultilineAndMissingTag(t *testing.T) {
	assert.Equal(t, "Final.", stripThink("<think>\nstep 1\nstep 2\n</think>\nFinal."))
	assert.Equal(t, "No tags here.", stripThink("No tags here."))
}
