// Package classify implements the Classifier of spec.md §4.10: a
// rule-based primary path (hard-coded source_key map, then ordered
// keyword phases) and an optional AI path that batches up to 10 items per
// LLM call. Grounded on the original's ai_service/classifier.py.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"ai-news-pipeline/internal/llm"
	"ai-news-pipeline/internal/model"
)

// MaxPerAIBatch caps items sent per AI classification call.
const MaxPerAIBatch = 10

// sourceKeyMap hard-maps known official source keys straight to a
// category, skipping keyword inspection entirely.
var sourceKeyMap = map[string]model.Category{
	"claude_anthropic": model.CategoryBigTech,
	"openai_blog":      model.CategoryBigTech,
	"google_blog":      model.CategoryBigTech,
	"google_deepmind":  model.CategoryBigTech,
	"microsoft_ai":     model.CategoryBigTech,
	"meta_ai":          model.CategoryBigTech,
}

type phase struct {
	category model.Category
	match    func(title, content string) bool
}

// gamingPattern intentionally excludes the bare word "game": it fires
// too broadly (e.g. "OpenAI acquires startup for $1B" whose summary
// merely mentions a game) and this phase runs before big_tech.
var gamingPattern = regexp.MustCompile(`(?i)游戏|电竞|手游|\bgaming\b|npc|unity|unreal engine`)

var bigTechCompanyPattern = regexp.MustCompile(`(?i)谷歌|google|微软|microsoft|苹果|apple|亚马逊|amazon|meta|facebook|openai|anthropic|字节跳动|bytedance|百度|baidu|阿里巴巴|alibaba|腾讯|tencent`)
var bigTechActionPattern = regexp.MustCompile(`(?i)收购|acquisition|acquire[sd]?|裁员|layoffs?|财报|earnings|融资|funding|上市|ipo|投资|invest`)

var productPattern = regexp.MustCompile(`(?i)发布|launch|release[ds]?|上线|更新|update[ds]?|推出`)

var techPattern = regexp.MustCompile(`(?i)模型|model|算法|algorithm|论文|paper|框架|framework|架构|architecture`)

var phases = []phase{
	{category: model.CategoryAIGaming, match: func(title, content string) bool {
		return gamingPattern.MatchString(title + " " + content)
	}},
	{category: model.CategoryBigTech, match: func(title, content string) bool {
		text := title + " " + content
		return bigTechCompanyPattern.MatchString(text) && bigTechActionPattern.MatchString(text)
	}},
	{category: model.CategoryAIProducts, match: func(title, content string) bool {
		return productPattern.MatchString(title + " " + content)
	}},
	{category: model.CategoryAITech, match: func(title, content string) bool {
		return techPattern.MatchString(title + " " + content)
	}},
}

// ClassifyRuleBased applies the source_key map, then the ordered keyword
// phases, falling back to industry_news as a catch-all.
func ClassifyRuleBased(item model.ScoredItem) model.Category {
	if cat, ok := sourceKeyMap[item.Raw.SourceKey]; ok {
		return cat
	}
	for _, p := range phases {
		if p.match(item.Raw.Title, item.Raw.Content) {
			return p.category
		}
	}
	return model.CategoryIndustry
}

// ClassifyBatch classifies every item with the rule-based path. Present
// as the non-AI entry point; ClassifyBatchAI wraps it as the per-batch
// fallback.
func ClassifyBatch(items []model.ScoredItem) []model.Category {
	out := make([]model.Category, len(items))
	for i, item := range items {
		out[i] = ClassifyRuleBased(item)
	}
	return out
}

// ClassifyBatchAI sends up to MaxPerAIBatch items per LLM call, each
// batch expecting a JSON object mapping index (as a string key) to
// category. An unparseable or partially-invalid response falls back to
// the rule-based path for that batch.
func ClassifyBatchAI(ctx context.Context, gw *llm.Gateway, items []model.ScoredItem) []model.Category {
	out := make([]model.Category, len(items))
	if gw == nil {
		return ClassifyBatch(items)
	}

	for start := 0; start < len(items); start += MaxPerAIBatch {
		end := start + MaxPerAIBatch
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		cats, ok := classifyAIBatch(ctx, gw, batch)
		if !ok {
			cats = ClassifyBatch(batch)
		}
		copy(out[start:end], cats)
	}
	return out
}

func classifyAIBatch(ctx context.Context, gw *llm.Gateway, batch []model.ScoredItem) ([]model.Category, bool) {
	var b strings.Builder
	b.WriteString("请将以下每条新闻归类到 big_tech, ai_products, ai_tech, ai_gaming, industry_news 五个类别之一，" +
		"以JSON对象返回，键为条目序号（字符串），值为类别名：\n")
	for i, item := range batch {
		fmt.Fprintf(&b, "%d. %s\n", i, item.Raw.Title)
	}

	reply, err := gw.Chat(ctx, []llm.Message{{Role: "user", Content: b.String()}}, 0.1, 300)
	if err != nil || reply == "" {
		return nil, false
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(extractJSONObject(reply)), &raw); err != nil {
		return nil, false
	}

	out := make([]model.Category, len(batch))
	for i := range batch {
		val, ok := raw[fmt.Sprintf("%d", i)]
		if !ok || !isValidCategory(val) {
			return nil, false
		}
		out[i] = model.Category(val)
	}
	return out, true
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{[\s\S]*\}`)

func extractJSONObject(reply string) string {
	return jsonObjectPattern.FindString(reply)
}

func isValidCategory(s string) bool {
	for _, c := range model.AllCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}
