// Package column implements the Deep-Column Orchestrator of spec.md
// §4.12: material collection for a chosen topic cluster and a long-form
// article writer. Grounded on the original's article_writer.py and
// material_collector.py.
package column

import (
	"context"
	"regexp"
	"strings"

	"ai-news-pipeline/internal/fetch"
	"ai-news-pipeline/internal/model"
)

// TopExcerptCount is how many cluster members get a fetched excerpt;
// the rest contribute only their title and summary.
const TopExcerptCount = 3

// Material is the input handed to the article writer: the cluster plus
// enriched excerpts for its top members.
type Material struct {
	Cluster  model.TopicCluster
	Excerpts map[string]string // keyed by NewsItem.URL
}

var metaDescriptionPattern = regexp.MustCompile(`(?is)<meta\s+name=["']description["']\s+content=["'](.*?)["']`)
var ogDescriptionPattern = regexp.MustCompile(`(?is)<meta\s+property=["']og:description["']\s+content=["'](.*?)["']`)
var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Collect fetches excerpts for the top TopExcerptCount members of
// cluster (by input order, i.e. the seed and its earliest attachments)
// and returns assembled Material. Members beyond the top 3 are left
// without excerpts; the writer falls back to their title/summary.
func Collect(ctx context.Context, client *fetch.Client, cluster model.TopicCluster) Material {
	excerpts := make(map[string]string)
	limit := TopExcerptCount
	if limit > len(cluster.Members) {
		limit = len(cluster.Members)
	}
	for i := 0; i < limit; i++ {
		member := cluster.Members[i]
		if member.URL == "" {
			continue
		}
		if excerpt := fetchExcerpt(ctx, client, member.URL); excerpt != "" {
			excerpts[member.URL] = excerpt
		}
	}
	return Material{Cluster: cluster, Excerpts: excerpts}
}

// fetchExcerpt tries, in order: meta description, og:description, then a
// crude body-text strip capped at 500 characters.
func fetchExcerpt(ctx context.Context, client *fetch.Client, targetURL string) string {
	body, err := client.Get(ctx, targetURL)
	if err != nil {
		return ""
	}
	html := string(body)

	if m := metaDescriptionPattern.FindStringSubmatch(html); len(m) == 2 {
		if text := strings.TrimSpace(unescapeEntities(m[1])); text != "" {
			return text
		}
	}
	if m := ogDescriptionPattern.FindStringSubmatch(html); len(m) == 2 {
		if text := strings.TrimSpace(unescapeEntities(m[1])); text != "" {
			return text
		}
	}

	text := tagPattern.ReplaceAllString(html, " ")
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > 500 {
		text = string(r[:500])
	}
	return strings.TrimSpace(text)
}

func unescapeEntities(s string) string {
	replacer := strings.NewReplacer("&amp;", "&", "&quot;", `"`, "&#39;", "'", "&lt;", "<", "&gt;", ">")
	return replacer.Replace(s)
}
