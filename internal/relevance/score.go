package relevance

import (
	"math"
	"sort"
	"strings"

	"ai-news-pipeline/internal/model"
)

// SourcePriority is the static priority table driving source_bonus; keys
// are source_key with any "shared_" prefix stripped before lookup.
type SourcePriority map[string]int

// DefaultSourcePriority mirrors the original's SOURCE_PRIORITY table:
// official blogs rank highest, then English media, then Chinese media;
// anything unlisted falls to the default priority 4 (source_bonus 0).
var DefaultSourcePriority = SourcePriority{
	"openai_blog":    1,
	"anthropic_news": 1,
	"google_blog":    1,
	"deepmind":       1,
	"hackernews":     2,
	"producthunt":    2,
	"v2ex":           3,
	"36kr_ai":        3,
	"techmeme":       2,
}

func sourceBonus(priority SourcePriority, sourceKey string) float64 {
	key := strings.TrimPrefix(sourceKey, "shared_")
	p, ok := priority[key]
	if !ok {
		p = 4
	}
	switch p {
	case 1:
		return 2.0
	case 2:
		return 1.5
	case 3:
		return 1.0
	default:
		return 0
	}
}

// Filter evaluates admission and, for admitted items, a relevance score
// against the five keyword tiers and the source priority table.
type Filter struct {
	Priority SourcePriority
}

// NewFilter returns a Filter using the default source priority table.
func NewFilter() *Filter {
	return &Filter{Priority: DefaultSourcePriority}
}

// Evaluate returns (scored item, admitted). An item is admitted iff it
// matches at least one CORE keyword and no EXCLUDE keyword.
func (f *Filter) Evaluate(item model.RawItem) (model.ScoredItem, bool) {
	title, content := item.Title, item.Content

	coreMatches, coreN := core.count(title, content)
	if coreN == 0 {
		return model.ScoredItem{}, false
	}
	if exclude.any(title, content) {
		return model.ScoredItem{}, false
	}

	_, highN := highValue.count(title, content)
	_, auxN := aux.count(title, content)
	_, lowN := lowSignal.count(title, content)

	score := 3.0*float64(highN) +
		math.Min(1.0*float64(coreN), 5.0) +
		math.Min(0.5*float64(auxN), 2.0) +
		sourceBonus(f.Priority, item.SourceKey) -
		1.5*float64(lowN)
	score = math.Max(score, 0.1)

	scored := model.ScoredItem{
		Raw:             item,
		RelevanceScore:  score,
		KeywordsMatched: coreMatches,
		IsGamingRelated: gamingSignal.any(title, content),
	}
	return scored, true
}

// FilterAndScore runs Evaluate over every item, then sorts admitted items
// descending by score (spec.md §4.4: "Output is sorted descending by
// score"). Callers apply the top-50 cap themselves.
func FilterAndScore(f *Filter, items []model.RawItem) []model.ScoredItem {
	out := make([]model.ScoredItem, 0, len(items))
	for _, item := range items {
		if scored, ok := f.Evaluate(item); ok {
			out = append(out, scored)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	return out
}
