package dedup

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-news-pipeline/internal/model"
)

func scored(title, url string, sourceType model.SourceType) model.ScoredItem {
	return model.ScoredItem{Raw: model.RawItem{Title: title, URL: url, SourceType: sourceType}}
}

func TestDeduplicateDropsAlreadySeenURL(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	require.NoError(t, err)
	cache.Mark("https://example.com/a")

	items := []model.ScoredItem{scored("Brand new AI model", "https://example.com/a", model.SourceENMedia)}
	out := Deduplicate(cache, items)
	assert.Empty(t, out)
}

func TestDeduplicateTitleSimilarityOfficialReplacesNonOfficial(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	require.NoError(t, err)

	items := []model.ScoredItem{
		scored("OpenAI releases GPT-5 today with huge upgrades", "https://blog.example.com/a", model.SourceENMedia),
		scored("OpenAI releases GPT-5 today with huge upgrades", "https://openai.com/blog/gpt-5", model.SourceOfficial),
	}
	out := Deduplicate(cache, items)
	require.Len(t, out, 1, "near-identical titles must collapse to one item")
	assert.Equal(t, model.SourceOfficial, out[0].Raw.SourceType, "official source must replace the incumbent")
}

func TestDeduplicateNonOfficialDoesNotReplaceOfficialIncumbent(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	require.NoError(t, err)

	items := []model.ScoredItem{
		scored("OpenAI releases GPT-5 today with huge upgrades", "https://openai.com/blog/gpt-5", model.SourceOfficial),
		scored("OpenAI releases GPT-5 today with huge upgrades", "https://blog.example.com/a", model.SourceENMedia),
	}
	out := Deduplicate(cache, items)
	require.Len(t, out, 1)
	assert.Equal(t, model.SourceOfficial, out[0].Raw.SourceType)
}

func TestDeduplicateDistinctTitlesBothKept(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	require.NoError(t, err)

	items := []model.ScoredItem{
		scored("OpenAI releases GPT-5 today", "https://example.com/a", model.SourceENMedia),
		scored("Anthropic ships Claude Opus update", "https://example.com/b", model.SourceENMedia),
	}
	out := Deduplicate(cache, items)
	assert.Len(t, out, 2)
}

func TestNormalizeTitleStripsMarkerWords(t *testing.T) {
	assert.Equal(t, normalizeTitle("OpenAI ships update"), normalizeTitle("AI OpenAI ships update"))
}

func TestCacheFlushThenReopenRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenCache(dir)
	require.NoError(t, err)
	cache.Mark("https://example.com/a")
	require.NoError(t, cache.Flush(time.Now().UTC()))

	require.FileExists(t, filepath.Join(dir, "news_cache.json"))

	reopened, err := OpenCache(dir)
	require.NoError(t, err)
	assert.True(t, reopened.Seen("https://example.com/a"))
}
