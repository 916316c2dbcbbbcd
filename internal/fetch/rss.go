package fetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"ai-news-pipeline/internal/model"
	"ai-news-pipeline/internal/normalize"
)

// SourceConfig describes one registered RSS or scrape source.
type SourceConfig struct {
	Key        string
	Name       string
	URL        string
	SourceType model.SourceType
	Language   model.Language
	Scrape     bool // true routes through the HTML scraper registry instead of RSS
}

// ParseRSS fetches and parses a single RSS/Atom feed, taking, per entry,
// the published time and else the updated time as parsed by gofeed; no
// created time is read. Never returns an
// error to the caller: a feed-level failure yields an empty slice and a
// non-ok status.
func ParseRSS(ctx context.Context, client *http.Client, src SourceConfig) ([]model.RawItem, model.SourceStatus) {
	status := model.SourceStatus{SiteID: src.Key, SiteName: src.Name}

	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	if client != nil {
		fp.Client = client
	}

	feed, err := fp.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		status.Error = err.Error()
		return nil, status
	}

	items := make([]model.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		title := strings.TrimSpace(entry.Title)
		link := strings.TrimSpace(entry.Link)
		if title == "" || link == "" {
			continue
		}
		if normalize.IsPlaceholderTitle(title) {
			continue
		}

		pub := entryTime(entry)
		summary := stripHTML(firstNonEmpty(entry.Description, entry.Content))
		if len(summary) > 500 {
			summary = summary[:500]
		}

		items = append(items, model.RawItem{
			ID:         normalize.ItemID(link),
			Title:      normalize.RepairMojibake(title),
			URL:        normalize.CanonicalURL(link),
			SourceKey:  src.Key,
			SourceName: src.Name,
			SourceType: src.SourceType,
			Language:   languageOf(src.Language, title),
			PubTime:    pub,
			Summary:    normalize.RepairMojibake(summary),
		})
	}

	status.OK = true
	status.ItemCount = len(items)
	return items, status
}

// entryTime tries published_parsed, then updated_parsed, and returns nil
// when neither is set; no created time is consulted. gofeed already falls
// back to the string variants internally via its own generic date parser
// when populating these fields.
func entryTime(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		t := entry.PublishedParsed.UTC()
		return &t
	}
	if entry.UpdatedParsed != nil {
		t := entry.UpdatedParsed.UTC()
		return &t
	}
	if len(entry.Extensions) > 0 {
		// No generic "created" field in gofeed's Item; fields outside the
		// RSS/Atom spec showing up as extensions are not reliably dated.
		return nil
	}
	return nil
}

func languageOf(configured model.Language, title string) model.Language {
	if configured != "" {
		return configured
	}
	return model.Language(normalize.DetectLanguage(title))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
