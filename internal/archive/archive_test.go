package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-news-pipeline/internal/model"
)

func TestUpsertFirstSightingSetsBothTimestamps(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	s.Upsert(model.RawItem{ID: "x1", Title: "Hello", URL: "https://example.com/x1"}, now)

	rec, ok := s.Get("x1")
	require.True(t, ok)
	assert.Equal(t, now, rec.FirstSeenAt)
	assert.Equal(t, now, rec.LastSeenAt)
}

func TestUpsertResightingBumpsLastSeenOnlyAndIsMonotonic(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	t1 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Hour)

	s.Upsert(model.RawItem{ID: "x1", Title: "Hello", URL: "https://example.com/x1"}, t1)
	s.Upsert(model.RawItem{ID: "x1", Title: "Hello v2", URL: "https://example.com/x1"}, t2)

	rec, ok := s.Get("x1")
	require.True(t, ok)
	assert.Equal(t, t1, rec.FirstSeenAt, "first_seen_at must never change across re-sightings")
	assert.Equal(t, t2, rec.LastSeenAt)
	assert.Equal(t, "Hello v2", rec.Title)
}

func TestFlushThenOpenRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	s.Upsert(model.RawItem{ID: "x1", Title: "Hello", URL: "https://example.com/x1"}, now)
	require.NoError(t, s.Flush(now))

	require.FileExists(t, filepath.Join(dir, "archive.json"))
	require.NoFileExists(t, filepath.Join(dir, "archive.json.tmp"))

	reopened, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())
	rec, ok := reopened.Get("x1")
	require.True(t, ok)
	assert.Equal(t, "Hello", rec.Title)
}

func TestPruneOnlyDropsRecordsOlderThanRetainWindow(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -50)
	recent := now.AddDate(0, 0, -10)

	s.Upsert(model.RawItem{ID: "old", Title: "Old", URL: "https://example.com/old"}, old)
	s.Upsert(model.RawItem{ID: "recent", Title: "Recent", URL: "https://example.com/recent"}, recent)

	pruned := s.Prune(now, 45)
	assert.Equal(t, 1, pruned)
	_, ok := s.Get("old")
	assert.False(t, ok)
	_, ok = s.Get("recent")
	assert.True(t, ok)
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}
