// Package llm implements the LLM Gateway of spec.md §4.7: a single shared
// client wrapping an OpenAI-compatible chat endpoint (DeepSeek), with
// linear-backoff retries, <think> envelope stripping, a process-wide token
// counter, and a circuit breaker. Grounded on
// Tsuchiya2-catchup-feed-backend's internal/infra/summarizer/openai.go for
// the go-openai + gobreaker wiring shape; retry/backoff and the think-tag
// strip are grounded on the original's ai_service/deepseek_client.py.
package llm

import (
	"context"
	"regexp"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"ai-news-pipeline/internal/metrics"
)

var thinkTagPattern = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Gateway is the single process-wide LLM client.
type Gateway struct {
	client     *openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker

	totalTokens int64 // atomic, monotonically increasing
}

// Config configures a Gateway.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// New builds a Gateway against an OpenAI-compatible endpoint.
func New(cfg Config) *Gateway {
	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}

	breakerSettings := gobreaker.Settings{
		Name:        "llm-gateway",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Gateway{
		client:     openai.NewClientWithConfig(oaiCfg),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
		breaker:    gobreaker.NewCircuitBreaker(breakerSettings),
	}
}

// TotalTokens returns the running token count across every successful
// call this process has made.
func (g *Gateway) TotalTokens() int64 {
	return atomic.LoadInt64(&g.totalTokens)
}

// Chat sends messages and returns the model's reply text with any
// <think>...</think> reasoning envelope stripped. Retries up to
// maxRetries with linear backoff (retryDelay * attempt). Returns ("",
// nil) — not an error — on exhausted retries, per spec.md §4.7 ("Returns
// null on exhausted retries; never throws").
func (g *Gateway) Chat(ctx context.Context, messages []Message, temperature float32, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.LLMRequestDuration.Observe(time.Since(start).Seconds()) }()

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		result, err := g.breaker.Execute(func() (interface{}, error) {
			return g.client.CreateChatCompletion(callCtx, req)
		})
		if err == nil {
			resp := result.(openai.ChatCompletionResponse)
			if len(resp.Choices) > 0 {
				atomic.AddInt64(&g.totalTokens, int64(resp.Usage.TotalTokens))
				metrics.LLMRequestsTotal.WithLabelValues("ok").Inc()
				metrics.LLMTokensTotal.Add(float64(resp.Usage.TotalTokens))
				return stripThink(resp.Choices[0].Message.Content), nil
			}
		}

		if attempt < g.maxRetries {
			select {
			case <-time.After(g.retryDelay * time.Duration(attempt)):
			case <-callCtx.Done():
				metrics.LLMRequestsTotal.WithLabelValues("timeout").Inc()
				return "", nil
			}
		}
	}
	metrics.LLMRequestsTotal.WithLabelValues("exhausted").Inc()
	return "", nil
}

func stripThink(s string) string {
	return thinkTagPattern.ReplaceAllString(s, "")
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
