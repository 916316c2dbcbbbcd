package digest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-news-pipeline/internal/archive"
	"ai-news-pipeline/internal/dedup"
	"ai-news-pipeline/internal/errs"
	"ai-news-pipeline/internal/fetch"
	"ai-news-pipeline/internal/model"
	"ai-news-pipeline/internal/relevance"
)

func TestRunEndToEndWithSharedLoaderOnly(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	fixture := `{"items": [`
	for i := 0; i < 12; i++ {
		if i > 0 {
			fixture += ","
		}
		fixture += `{"title": "OpenAI releases update number ` + itoaTest(i) + `", "url": "https://example.com/` + itoaTest(i) + `", "published_at": "2025-01-10T10:00:00Z", "site_id": "openai_blog"}`
	}
	fixture += `]}`

	writeFile(t, dir, fixture)

	archiveStore, err := archive.Open(t.TempDir())
	require.NoError(t, err)
	dedupCache, err := dedup.OpenCache(t.TempDir())
	require.NoError(t, err)

	deps := Dependencies{
		SourceDir:    dir,
		ArchiveStore: archiveStore,
		DedupCache:   dedupCache,
		Filter:       relevance.NewFilter(),
		Now:          now,
		WindowHours:  28,
	}

	result, err := Run(context.Background(), deps)
	require.NoError(t, err)

	total := 0
	for _, c := range model.AllCategories {
		total += len(result.Buckets[c])
	}
	assert.Greater(t, total, 0)
	assert.Equal(t, 12, archiveStore.Len(), "every collected item should be upserted into the archive")
}

func TestRunFallsBackToFetchWhenSharedLoaderReturnsFewerThanTen(t *testing.T) {
	dir := t.TempDir() // no latest-24h.json: shared loader returns empty
	fetchClient := fetch.NewClient(5*time.Second, 0)

	deps := Dependencies{
		SourceDir:   dir,
		FetchClient: fetchClient,
		Sources:     nil, // no configured sources; independent fetch yields nothing
		Filter:      relevance.NewFilter(),
		Now:         time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		WindowHours: 28,
	}

	// Every bucket is empty in this scenario, so Run must report
	// EmptyResult rather than silently returning an empty digest.
	result, err := Run(context.Background(), deps)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.EmptyResult))
	for _, c := range model.AllCategories {
		assert.Empty(t, result.Buckets[c])
	}
}

func writeFile(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "latest-24h.json"), []byte(body), 0o644))
}

func itoaTest(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}
