// Package archive implements the Archive Store of spec.md §4.3: a JSON
// document keyed by item ID with first_seen_at/last_seen_at lifecycle,
// read once at process start and written atomically at end of run.
// Grounded on the teacher's persistence layer's read-modify-write shape,
// adapted from SQLite rows to a single JSON document per spec.md §6.
package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"ai-news-pipeline/internal/model"
)

type document struct {
	GeneratedAt time.Time            `json:"generated_at"`
	TotalItems  int                  `json:"total_items"`
	Items       []model.ArchiveRecord `json:"items"`
}

// Store is the in-memory working copy of the archive for one run.
type Store struct {
	path    string
	records map[string]model.ArchiveRecord
}

// Open reads <dir>/archive.json if present and returns a Store ready for
// upserts. A missing file starts from an empty archive.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, "archive.json")
	s := &Store{path: path, records: make(map[string]model.ArchiveRecord)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for _, rec := range doc.Items {
		s.records[rec.ID] = rec
	}
	return s, nil
}

// Upsert applies the insert/update rule of spec.md §4.3 for a single
// incoming item, observed in ingestion order: a first sighting sets
// first_seen_at = last_seen_at = now; a re-sighting updates mutable fields
// and bumps last_seen_at, applying the published_at overwrite rule (an
// "opmlrss"-sourced or previously-missing published_at is replaced by the
// incoming value; any other existing published_at is preserved).
func (s *Store) Upsert(item model.RawItem, now time.Time) {
	existing, ok := s.records[item.ID]
	if !ok {
		s.records[item.ID] = model.ArchiveRecord{
			ID:          item.ID,
			Title:       item.Title,
			URL:         item.URL,
			SourceKey:   item.SourceKey,
			SourceName:  item.SourceName,
			SourceType:  item.SourceType,
			Language:    item.Language,
			PublishedAt: item.PubTime,
			Summary:     item.Summary,
			FirstSeenAt: now,
			LastSeenAt:  now,
		}
		return
	}

	existing.Title = item.Title
	existing.URL = item.URL
	existing.SourceKey = item.SourceKey
	existing.SourceName = item.SourceName
	existing.SourceType = item.SourceType
	existing.Language = item.Language
	if item.Summary != "" {
		existing.Summary = item.Summary
	}
	existing.LastSeenAt = now

	if existing.PublishedAt == nil || existing.SourceKey == "opmlrss" {
		existing.PublishedAt = item.PubTime
	}

	s.records[item.ID] = existing
}

// Get returns the archived record for id, if any.
func (s *Store) Get(id string) (model.ArchiveRecord, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// Len reports the number of archived records.
func (s *Store) Len() int { return len(s.records) }

// All returns every archived record, sorted by last_seen_at descending to
// match the on-disk presentation order from spec.md §6.
func (s *Store) All() []model.ArchiveRecord {
	out := make([]model.ArchiveRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeenAt.After(out[j].LastSeenAt) })
	return out
}

// Prune drops every record whose last_seen_at is older than retainDays
// before now. Must only be called at end of run, never during ingestion,
// so that a retried ingest stays idempotent (spec.md §4.3).
func (s *Store) Prune(now time.Time, retainDays int) int {
	keepAfter := now.AddDate(0, 0, -retainDays)
	pruned := 0
	for id, rec := range s.records {
		if rec.LastSeenAt.Before(keepAfter) {
			delete(s.records, id)
			pruned++
		}
	}
	return pruned
}

// Flush writes the archive atomically (write-then-rename) to its backing
// file.
func (s *Store) Flush(now time.Time) error {
	doc := document{
		GeneratedAt: now,
		Items:       s.All(),
	}
	doc.TotalItems = len(doc.Items)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
