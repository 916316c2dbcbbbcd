// Package dedup implements the Deduplicator of spec.md §4.5: a persistent
// URL seen-set followed by a title-similarity pass that iterates items in
// descending score order. Grounded on the original's
// processor/deduplicator.py.
package dedup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hbollon/go-edlib"

	"ai-news-pipeline/internal/model"
)

// TitleSimilarityThreshold is the LCS-ratio threshold above which two
// titles are considered the same story.
const TitleSimilarityThreshold = 0.8

var markerWords = []string{"AI", "突发", "快讯", "重磅", "独家"}

var punctPattern = regexp.MustCompile(`[[:punct:]]`)

// Cache is the persistent URL seen-set, loaded once at run start and
// flushed once at run end (spec.md §5: "read once, write once").
type Cache struct {
	path          string
	ProcessedURLs map[string]struct{}
}

type cacheDoc struct {
	ProcessedURLs []string  `json:"processed_urls"`
	LastUpdate    time.Time `json:"last_update"`
}

// OpenCache reads <dir>/news_cache.json if present.
func OpenCache(dir string) (*Cache, error) {
	path := filepath.Join(dir, "news_cache.json")
	c := &Cache{path: path, ProcessedURLs: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	var doc cacheDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for _, u := range doc.ProcessedURLs {
		c.ProcessedURLs[u] = struct{}{}
	}
	return c, nil
}

// Seen reports whether canonicalURL has already been processed.
func (c *Cache) Seen(canonicalURL string) bool {
	_, ok := c.ProcessedURLs[canonicalURL]
	return ok
}

// Mark records canonicalURL as processed.
func (c *Cache) Mark(canonicalURL string) {
	c.ProcessedURLs[canonicalURL] = struct{}{}
}

// Flush persists the cache.
func (c *Cache) Flush(now time.Time) error {
	urls := make([]string, 0, len(c.ProcessedURLs))
	for u := range c.ProcessedURLs {
		urls = append(urls, u)
	}
	doc := cacheDoc{ProcessedURLs: urls, LastUpdate: now}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// normalizeTitle lowercases, strips punctuation, and removes leading
// marker words, per spec.md §4.5.
func normalizeTitle(title string) string {
	t := title
	for _, marker := range markerWords {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(t)), strings.ToLower(marker)) {
			t = strings.TrimSpace(t[len(marker):])
		}
	}
	t = strings.ToLower(t)
	t = punctPattern.ReplaceAllString(t, "")
	return strings.Join(strings.Fields(t), " ")
}

func titleSimilarity(a, b string) float64 {
	res, err := edlib.StringsSimilarity(a, b, edlib.Lcs)
	if err != nil {
		return 0
	}
	return float64(res)
}

// accepted tracks one surviving item for the title-similarity pass.
type accepted struct {
	normTitle string
	index     int
}

// Deduplicate runs the two-pass algorithm over items already sorted
// descending by relevance score. It consults and updates cache's URL
// seen-set in place; callers are responsible for Flush-ing it afterward.
func Deduplicate(cache *Cache, items []model.ScoredItem) []model.ScoredItem {
	// Pass 1: URL seen-set.
	afterURL := make([]model.ScoredItem, 0, len(items))
	for _, it := range items {
		if cache.Seen(it.Raw.URL) {
			continue
		}
		afterURL = append(afterURL, it)
	}

	// Pass 2: title similarity, incumbent-replacement on official source.
	var kept []model.ScoredItem
	var acceptedTitles []accepted

	for _, it := range afterURL {
		norm := normalizeTitle(it.Raw.Title)
		dupIdx := -1
		for _, a := range acceptedTitles {
			if titleSimilarity(norm, a.normTitle) >= TitleSimilarityThreshold {
				dupIdx = a.index
				break
			}
		}

		if dupIdx == -1 {
			acceptedTitles = append(acceptedTitles, accepted{normTitle: norm, index: len(kept)})
			kept = append(kept, it)
			continue
		}

		incumbent := kept[dupIdx]
		if it.Raw.SourceType == model.SourceOfficial && incumbent.Raw.SourceType != model.SourceOfficial {
			kept[dupIdx] = it
		}
		// else: incoming item is a duplicate of the incumbent, dropped.
	}

	for _, it := range kept {
		cache.Mark(it.Raw.URL)
	}
	return kept
}
