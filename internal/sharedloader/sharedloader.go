// Package sharedloader reads the upstream shared archive (latest-24h.json
// produced by a sibling collector process) and adapts its loosely-typed
// records into model.RawItem, tolerating the field-name drift across the
// shared collector's historical output versions. Grounded on the original's
// shared_loader.py SharedDataLoader.load.
package sharedloader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-news-pipeline/internal/model"
	"ai-news-pipeline/internal/normalize"
)

// rawRecord mirrors the shared collector's loosely-typed JSON record as a
// plain map, so every field the collector writes is kept and read by key.
type rawRecord map[string]any

type document struct {
	Items []rawRecord `json:"items"`
}

// Load reads <dir>/latest-24h.json and returns every record whose resolved
// publish time falls within windowHours of now (records with no resolvable
// time are kept, per spec.md §4.11 step 2). A missing or unreadable file is
// not an error: it returns an empty slice so the caller's <10-items
// fallback-to-independent-fetch rule fires naturally.
func Load(dir string, now time.Time, windowHours int) []model.RawItem {
	path := filepath.Join(dir, "latest-24h.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}

	items := make([]model.RawItem, 0, len(doc.Items))
	cutoff := now.Add(-time.Duration(windowHours) * time.Hour)
	for _, rec := range doc.Items {
		item, pub := toRawItem(rec)
		if pub != nil && pub.Before(cutoff) {
			continue
		}
		items = append(items, item)
	}
	return items
}

// toRawItem resolves field-name drift in the shared record: the timestamp
// field has been named published_at, first_seen_at, timestamp, pubDate, and
// pub_time across collector versions; the source-key field has been site_id,
// a "shared_<name>" composite, or absent entirely (defaults to "shared").
func toRawItem(rec rawRecord) (model.RawItem, *time.Time) {
	title := strings.TrimSpace(str(rec, "title"))
	link := strings.TrimSpace(str(rec, "url", "link"))

	pub := firstParsedTime(rec, "published_at", "first_seen_at", "timestamp", "pubDate", "pub_time")

	sourceKey := resolveSourceKey(rec)
	sourceName := str(rec, "source_name", "site_name", "source")
	if sourceName == "" {
		sourceName = normalize.NormalizeSourceName(sourceKey, "")
	}

	summary := strings.TrimSpace(str(rec, "summary", "description"))
	content := strings.TrimSpace(str(rec, "content"))

	lang := str(rec, "language")
	if lang == "" {
		lang = normalize.DetectLanguage(title)
	}

	item := model.RawItem{
		ID:         normalize.ItemID(link),
		Title:      normalize.RepairMojibake(title),
		URL:        normalize.CanonicalURL(link),
		SourceKey:  sourceKey,
		SourceName: sourceName,
		SourceType: model.SourceShared,
		Language:   model.Language(lang),
		PubTime:    pub,
		Summary:    normalize.RepairMojibake(summary),
		Content:    normalize.RepairMojibake(content),
	}
	return item, pub
}

// resolveSourceKey tries site_id, then a "shared_<source>" composite, and
// finally defaults to the bare "shared" sentinel per spec.md's pinned
// open-question behavior (source_key=="shared" receives priority-table
// default bonus 0, i.e. priority 4).
func resolveSourceKey(rec rawRecord) string {
	if v := str(rec, "site_id"); v != "" {
		return v
	}
	if v := str(rec, "source"); v != "" {
		return "shared_" + v
	}
	return "shared"
}

func str(rec rawRecord, keys ...string) string {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func firstParsedTime(rec rawRecord, keys ...string) *time.Time {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if t, err := parseAny(s); err == nil {
			utc := normalize.ToUTC(t)
			return &utc
		}
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

func parseAny(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
