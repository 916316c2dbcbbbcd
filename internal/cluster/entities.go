// Package cluster implements the Topic Clusterer of spec.md §4.6: a
// seed-grow algorithm combining title similarity and entity overlap, entity
// extraction via a fixed regex table, and representative-title selection.
// Clustering logic has no surviving implementation in the retrieved Python
// source (topic_selector.py was filtered down to its import header), so
// this package is built directly from spec.md §4.6's prose, in the
// teacher's style.
package cluster

import (
	"regexp"
	"strings"
)

// entityPattern maps a regex (matched case-insensitively against title +
// content) to its normalized entity form.
type entityPattern struct {
	re   *regexp.Regexp
	name string
}

var entityPatterns = []entityPattern{
	{regexp.MustCompile(`(?i)谷歌|google|alphabet`), "google"},
	{regexp.MustCompile(`(?i)微软|microsoft`), "microsoft"},
	{regexp.MustCompile(`(?i)苹果|apple inc|\bapple\b`), "apple"},
	{regexp.MustCompile(`(?i)亚马逊|amazon`), "amazon"},
	{regexp.MustCompile(`(?i)meta|facebook|脸书`), "meta"},
	{regexp.MustCompile(`(?i)openai|chatgpt`), "openai"},
	{regexp.MustCompile(`(?i)anthropic|claude`), "anthropic"},
	{regexp.MustCompile(`(?i)deepmind`), "deepmind"},
	{regexp.MustCompile(`(?i)英伟达|nvidia`), "nvidia"},
	{regexp.MustCompile(`(?i)字节跳动|bytedance|tiktok`), "bytedance"},
	{regexp.MustCompile(`(?i)百度|baidu`), "baidu"},
	{regexp.MustCompile(`(?i)阿里巴巴|alibaba|阿里云`), "alibaba"},
	{regexp.MustCompile(`(?i)腾讯|tencent`), "tencent"},
	{regexp.MustCompile(`(?i)xai|grok`), "xai"},
	{regexp.MustCompile(`(?i)\bgpt-?5\b`), "gpt-5"},
	{regexp.MustCompile(`(?i)gemini`), "gemini"},
	{regexp.MustCompile(`(?i)llama`), "llama"},
	{regexp.MustCompile(`(?i)安全|safety`), "safety"},
	{regexp.MustCompile(`(?i)承诺|pledge`), "pledge"},
	{regexp.MustCompile(`(?i)政策|policy`), "policy"},
	{regexp.MustCompile(`(?i)融资|fundraise|funding round`), "fundraise"},
	{regexp.MustCompile(`(?i)收购|acquisition|acquire[sd]?\b`), "acquisition"},
	{regexp.MustCompile(`(?i)智能体|\bagent\b`), "agent"},
	{regexp.MustCompile(`(?i)自主|autonomous`), "autonomous"},
	{regexp.MustCompile(`(?i)\bgpt\b`), "gpt"},
}

// genericEntities are overlap-eligible but not "concrete" on their own:
// Strategy B requires at least one overlapping entity outside this set.
var genericEntities = map[string]struct{}{
	"safety": {}, "pledge": {}, "policy": {}, "fundraise": {},
	"acquisition": {}, "agent": {}, "autonomous": {}, "gpt": {},
}

// ExtractEntities returns the set of normalized entities found in title
// and content.
func ExtractEntities(title, content string) map[string]struct{} {
	text := title + " " + content
	out := make(map[string]struct{})
	for _, ep := range entityPatterns {
		if ep.re.MatchString(text) {
			out[ep.name] = struct{}{}
		}
	}
	return out
}

func isConcrete(entity string) bool {
	_, generic := genericEntities[entity]
	return !generic
}

func overlapCount(a, b map[string]struct{}) (int, bool) {
	n := 0
	hasConcrete := false
	for e := range a {
		if _, ok := b[e]; ok {
			n++
			if isConcrete(e) {
				hasConcrete = true
			}
		}
	}
	return n, hasConcrete
}

// repoFormatPattern matches "org/repo"-shaped titles, excluded from the
// non-repo-title-count requirement in the cluster retention rule.
var repoFormatPattern = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)

func isRepoFormatTitle(title string) bool {
	return repoFormatPattern.MatchString(strings.TrimSpace(title))
}
