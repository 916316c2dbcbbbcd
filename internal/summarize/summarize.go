// Package summarize implements the Summarizer of spec.md §4.8: batched
// 50-80 character Chinese summaries with a per-batch content budget, a
// per-item fallback on batch failure, and a post-filter of invalid
// summaries. Grounded on the original's ai_service/summarizer.py.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"ai-news-pipeline/internal/llm"
	"ai-news-pipeline/internal/model"
)

const (
	// BatchSize is the default number of items summarized per LLM call.
	BatchSize = 2
	// MaxContentPerItem caps the content slice sent per item within a batch.
	MaxContentPerItem = 600
	// MaxTotalChars caps the summed content across one batch before
	// falling back to per-item calls.
	MaxTotalChars = 2500
)

// invalidSummaryKeywords flags a generated summary as unusable; matching
// items are dropped from the digest entirely rather than kept with a bad
// summary, per the Open Question decision to be permissive everywhere
// else in the summarizer (only these exact markers cause a drop).
var invalidSummaryKeywords = []string{
	"content is empty",
	"正文缺失",
	"无法生成摘要",
	"无有效内容",
	"unable to generate summary",
}

var jsonArrayPattern = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
var codeFencePattern = regexp.MustCompile("```(?:json)?")

// Summarizer generates Chinese summaries for scored items via the LLM
// gateway.
type Summarizer struct {
	Gateway   *llm.Gateway
	BatchSize int
}

// New returns a Summarizer with the default batch size.
func New(gw *llm.Gateway) *Summarizer {
	return &Summarizer{Gateway: gw, BatchSize: BatchSize}
}

// SummarizeAll summarizes every item in items, batched, falling back
// per-item on batch failure, and drops items whose summary matches an
// invalid-summary marker.
func (s *Summarizer) SummarizeAll(ctx context.Context, items []model.ScoredItem) []model.ScoredItem {
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = BatchSize
	}

	var out []model.ScoredItem
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		summaries, ok := s.summarizeBatch(ctx, batch)
		if !ok {
			summaries = s.summarizePerItem(ctx, batch)
		}

		for i, item := range batch {
			summary := summaries[i]
			if isInvalidSummary(summary) {
				continue
			}
			item.SummaryCN = summary
			out = append(out, item)
		}
	}
	return out
}

// summarizeBatch attempts one LLM call covering the whole batch. Returns
// ok=false if the content budget is exceeded or the response can't be
// parsed into exactly len(batch) strings.
func (s *Summarizer) summarizeBatch(ctx context.Context, batch []model.ScoredItem) ([]string, bool) {
	total := 0
	contents := make([]string, len(batch))
	for i, item := range batch {
		c := capContent(bodyOf(item), MaxContentPerItem)
		contents[i] = c
		total += len(c)
	}
	if total > MaxTotalChars {
		return nil, false
	}

	prompt := buildBatchPrompt(batch, contents)
	reply, err := s.Gateway.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, 0.3, 800)
	if err != nil || reply == "" {
		return nil, false
	}

	parsed, ok := parseJSONArray(reply)
	if !ok || len(parsed) != len(batch) {
		return nil, false
	}
	return parsed, true
}

// summarizePerItem calls the gateway once per item; if an item has no
// usable content, its summary is synthesized from the title instead of
// calling the LLM.
func (s *Summarizer) summarizePerItem(ctx context.Context, batch []model.ScoredItem) []string {
	out := make([]string, len(batch))
	for i, item := range batch {
		content := bodyOf(item)
		if strings.TrimSpace(content) == "" {
			out[i] = synthesizeFromTitle(item.Raw.Title)
			continue
		}
		prompt := buildSinglePrompt(item.Raw.Title, capContent(content, MaxContentPerItem))
		reply, err := s.Gateway.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, 0.3, 200)
		if err != nil || strings.TrimSpace(reply) == "" {
			out[i] = synthesizeFromTitle(item.Raw.Title)
			continue
		}
		out[i] = strings.TrimSpace(reply)
	}
	return out
}

func bodyOf(item model.ScoredItem) string {
	if item.Raw.Content != "" {
		return item.Raw.Content
	}
	return item.Raw.Summary
}

func capContent(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func synthesizeFromTitle(title string) string {
	return strings.TrimSpace(title)
}

func buildBatchPrompt(batch []model.ScoredItem, contents []string) string {
	var b strings.Builder
	b.WriteString("请为以下每条新闻生成一句50-80字的中文摘要，严格以JSON字符串数组的形式返回，数组长度必须等于新闻条数，按输入顺序对应：\n")
	for i, item := range batch {
		fmt.Fprintf(&b, "%d. 标题: %s\n内容: %s\n", i+1, item.Raw.Title, contents[i])
	}
	return b.String()
}

func buildSinglePrompt(title, content string) string {
	return fmt.Sprintf("请为以下新闻生成一句50-80字的中文摘要，只返回摘要正文：\n标题: %s\n内容: %s\n", title, content)
}

// parseJSONArray strips a triple-backtick code fence if present, then
// regex-extracts the first [...] substring and parses it as a JSON array
// of strings.
func parseJSONArray(reply string) ([]string, bool) {
	cleaned := codeFencePattern.ReplaceAllString(reply, "")
	match := jsonArrayPattern.FindString(cleaned)
	if match == "" {
		return nil, false
	}
	var arr []string
	if err := json.Unmarshal([]byte(match), &arr); err != nil {
		return nil, false
	}
	return arr, true
}

func isInvalidSummary(summary string) bool {
	lower := strings.ToLower(summary)
	for _, kw := range invalidSummaryKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) || strings.Contains(summary, kw) {
			return true
		}
	}
	return false
}
