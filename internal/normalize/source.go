package normalize

import (
	"strings"
	"unicode"
)

// sourceDisplayNames maps a site_id to a display name. It is keyed by
// site_id alone; the raw source string is not part of the key.
var sourceDisplayNames = map[string]string{
	"openai_blog":       "OpenAI",
	"anthropic_news":    "Anthropic",
	"google_blog":       "Google",
	"google_deepmind":   "Google DeepMind",
	"google_research":   "Google Research",
	"meta_ai":           "Meta AI",
	"microsoft_ai":      "Microsoft",
	"hackernews":        "Hacker News",
	"v2ex":              "V2EX",
	"producthunt":       "Product Hunt",
	"36kr_ai":           "36氪",
	"techmeme":          "Techmeme",
	"aihubtoday":        "AI Hub Today",
}

// placeholderTitles are titles known to be non-content placeholders emitted
// by certain sites (e.g. an empty listing page rendered as an "item").
var placeholderTitles = map[string]struct{}{
	"无标题":             {},
	"untitled":        {},
	"ai daily digest": {},
	"loading...":      {},
}

// NormalizeSourceName looks up the display name for (siteID, rawSource),
// falling back to the raw source (or site ID) when no mapping exists.
func NormalizeSourceName(siteID, rawSource string) string {
	if name, ok := sourceDisplayNames[strings.ToLower(siteID)]; ok {
		return name
	}
	if rawSource != "" {
		return rawSource
	}
	return siteID
}

// IsPlaceholderTitle reports whether title is a known placeholder that
// should be dropped rather than treated as a real news item.
func IsPlaceholderTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	_, ok := placeholderTitles[t]
	return ok
}

// DetectLanguage classifies a title as zh when the Han-character ratio is
// >= 0.3, else en, per spec.md §3.
func DetectLanguage(title string) string {
	if title == "" {
		return "en"
	}
	var han, total int
	for _, r := range title {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	if total == 0 {
		return "en"
	}
	if float64(han)/float64(total) >= 0.3 {
		return "zh"
	}
	return "en"
}

// HanRatio returns the fraction of Han characters among non-space runes,
// used by the translator's Chinese-ratio guard.
func HanRatio(s string) float64 {
	if s == "" {
		return 0
	}
	var han, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(han) / float64(total)
}
