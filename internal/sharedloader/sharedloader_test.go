package sharedloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-news-pipeline/internal/model"
)

func writeFixture(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "latest-24h.json"), []byte(body), 0o644))
}

func TestLoadFieldNameFallbackChain(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	writeFixture(t, dir, `{"items": [
		{"title": "A", "url": "https://example.com/a", "published_at": "2025-01-10T10:00:00Z", "site_id": "openai_blog"},
		{"title": "B", "url": "https://example.com/b", "timestamp": "2025-01-10T09:00:00Z", "source": "hn"},
		{"title": "C", "url": "https://example.com/c", "pubDate": "2025-01-10T08:00:00Z"}
	]}`)

	items := Load(dir, now, 28)
	require.Len(t, items, 3)
	assert.Equal(t, "openai_blog", items[0].SourceKey)
	assert.Equal(t, "shared_hn", items[1].SourceKey)
	assert.Equal(t, "shared", items[2].SourceKey)
	assert.Equal(t, model.SourceShared, items[0].SourceType)
}

func TestLoadWindowFiltersStaleItemsKeepsUndated(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	writeFixture(t, dir, `{"items": [
		{"title": "Fresh", "url": "https://example.com/fresh", "published_at": "2025-01-10T06:00:00Z"},
		{"title": "Stale", "url": "https://example.com/stale", "published_at": "2025-01-01T00:00:00Z"},
		{"title": "Undated", "url": "https://example.com/undated"}
	]}`)

	items := Load(dir, now, 28)
	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.ElementsMatch(t, []string{"Fresh", "Undated"}, titles)
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	items := Load(dir, time.Now().UTC(), 28)
	assert.Empty(t, items)
}
