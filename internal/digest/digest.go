// Package digest implements the Daily Report Orchestrator of spec.md
// §4.11: the stage pipeline from collection through classification and
// the archive upsert. Rendering and publishing are done by the caller
// (cmd run) on the returned Result. Grounded on the teacher's pipeline orchestration
// shape (internal/pipeline) generalized to this stage order, and on the
// original's ai-daily-report-server scripts for step semantics.
package digest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"ai-news-pipeline/internal/archive"
	"ai-news-pipeline/internal/classify"
	"ai-news-pipeline/internal/dedup"
	"ai-news-pipeline/internal/errs"
	"ai-news-pipeline/internal/fetch"
	"ai-news-pipeline/internal/llm"
	"ai-news-pipeline/internal/logger"
	"ai-news-pipeline/internal/metrics"
	"ai-news-pipeline/internal/model"
	"ai-news-pipeline/internal/normalize"
	"ai-news-pipeline/internal/relevance"
	"ai-news-pipeline/internal/sharedloader"
	"ai-news-pipeline/internal/summarize"
	"ai-news-pipeline/internal/translate"
)

// TopN is the size of the working set after scoring (step 5).
const TopN = 50

// MinBodyLengthForEnrich gates which items get a full-body fetch
// (step 6): items whose summary already clears this length skip it.
const MinBodyLengthForEnrich = 100

// fetchConcurrency bounds concurrent source fetches in collect, per
// SPEC_FULL.md §6 (errgroup + semaphore, cap 8). Scrape sources go
// through fetch.Client and its per-host rate limiter; RSS sources are
// fetched by gofeed's own HTTP client and are not rate limited.
const fetchConcurrency = 8

// Dependencies bundles every external collaborator the orchestrator
// drives. A nil Gateway, Translator, DedupCache, ArchiveStore or
// FetchClient (the latter for body enrichment) degrades that step to a
// no-op rather than panicking; a nil Filter falls back to NewFilter().
type Dependencies struct {
	FetchClient  *fetch.Client
	Sources      []fetch.SourceConfig
	Gateway      *llm.Gateway
	ArchiveStore *archive.Store
	DedupCache   *dedup.Cache
	Filter       *relevance.Filter
	Translator   *translate.Translator
	SourceDir    string // where latest-24h.json lives, for the shared loader
	Now          time.Time
	WindowHours  int
}

// Result is the orchestrator's output, feeding the renderer.
type Result struct {
	Buckets        map[model.Category][]model.ScoredItem
	LeadParagraph  string
	SourceStatuses []model.SourceStatus
}

// Run executes the stage order up to classification and the archive
// upsert; it does not render or publish. Every stage's output is the
// next stage's input; per-source fetch failures are recorded in
// SourceStatuses and never abort the run.
func Run(ctx context.Context, deps Dependencies) (Result, error) {
	log := logger.Stage("digest")
	runStart := time.Now()
	defer func() { metrics.RunDuration.WithLabelValues("digest").Observe(time.Since(runStart).Seconds()) }()

	now := deps.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	windowHours := deps.WindowHours
	if windowHours == 0 {
		windowHours = normalize.WindowHours
	}

	// 1. Collect.
	items, statuses := collect(ctx, deps, now)
	log.Info().Int("items", len(items)).Msg("collected")

	// 2. Time-filter to the window (items lacking pub_time are kept).
	items = filterWindow(items, now, windowHours)

	// 3. Relevance-filter and score.
	filter := deps.Filter
	if filter == nil {
		filter = relevance.NewFilter()
	}
	scored := relevance.FilterAndScore(filter, items)
	metrics.ItemsScored.WithLabelValues("true").Add(float64(len(scored)))
	metrics.ItemsScored.WithLabelValues("false").Add(float64(len(items) - len(scored)))

	// 4. Deduplicate.
	if deps.DedupCache != nil {
		before := len(scored)
		scored = dedup.Deduplicate(deps.DedupCache, scored)
		metrics.DuplicatesDropped.WithLabelValues("dedup").Add(float64(before - len(scored)))
	}

	// 5. Sort by score, take top 50 (FilterAndScore already sorts; dedup
	// preserves order).
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].RelevanceScore > scored[j].RelevanceScore })
	if len(scored) > TopN {
		scored = scored[:TopN]
	}

	// 6. Enrich short-bodied items via the Fetcher's three-tier extraction.
	enrich(ctx, deps, scored)

	// 7. Summarize, then filter invalid summaries.
	if deps.Gateway != nil {
		scored = summarize.New(deps.Gateway).SummarizeAll(ctx, scored)
	}

	// 8. Translate titles.
	translateTitles(ctx, deps, scored)

	// 9. Classify into 5 buckets.
	classifyAll(scored)

	// 10. Trim each bucket to <=10.
	buckets := bucketize(scored)

	// 11. Generate daily lead paragraph.
	lead := leadParagraph(ctx, deps, buckets)

	// Archive upserts observe ingestion order for the same id.
	if deps.ArchiveStore != nil {
		for _, item := range items {
			deps.ArchiveStore.Upsert(item, now)
		}
	}

	result := Result{Buckets: buckets, LeadParagraph: lead, SourceStatuses: statuses}

	if allBucketsEmpty(buckets) {
		log.Warn().Msg("every bucket is empty after classification; nothing to report")
		return result, errs.New(errs.EmptyResult, "no items survived the pipeline", nil)
	}

	return result, nil
}

func allBucketsEmpty(buckets map[model.Category][]model.ScoredItem) bool {
	for _, items := range buckets {
		if len(items) > 0 {
			return false
		}
	}
	return true
}

// collect prefers the shared loader; it falls back to an independent
// fetch across deps.Sources only if the shared loader returned fewer
// than 10 items.
func collect(ctx context.Context, deps Dependencies, now time.Time) ([]model.RawItem, []model.SourceStatus) {
	windowHours := deps.WindowHours
	if windowHours == 0 {
		windowHours = normalize.WindowHours
	}

	var shared []model.RawItem
	if deps.SourceDir != "" {
		shared = sharedloader.Load(deps.SourceDir, now, windowHours)
	}
	if len(shared) >= 10 {
		return shared, nil
	}

	results := make([][]model.RawItem, len(deps.Sources))
	statuses := make([]model.SourceStatus, len(deps.Sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, src := range deps.Sources {
		i, src := i, src
		g.Go(func() error {
			fetchStart := time.Now()
			var fetched []model.RawItem
			var status model.SourceStatus
			if src.Scrape {
				fetched, status = fetch.Scrape(gctx, deps.FetchClient, src)
			} else {
				fetched, status = fetch.ParseRSS(gctx, nil, src)
			}
			metrics.FetchDuration.WithLabelValues(src.Key).Observe(time.Since(fetchStart).Seconds())
			outcome := "ok"
			if !status.OK {
				outcome = "error"
			}
			metrics.ItemsFetchedTotal.WithLabelValues(src.Key, outcome).Add(float64(len(fetched)))
			results[i] = fetched
			statuses[i] = status
			return nil
		})
	}
	_ = g.Wait() // per-source errors are carried in status, not returned

	items := append([]model.RawItem{}, shared...)
	for _, fetched := range results {
		items = append(items, fetched...)
	}
	return items, statuses
}

func filterWindow(items []model.RawItem, now time.Time, windowHours int) []model.RawItem {
	out := make([]model.RawItem, 0, len(items))
	for _, it := range items {
		if it.PubTime == nil {
			out = append(out, it)
			continue
		}
		cutoff := now.Add(-time.Duration(windowHours) * time.Hour)
		if !it.PubTime.Before(cutoff) {
			out = append(out, it)
		}
	}
	return out
}

func enrich(ctx context.Context, deps Dependencies, scored []model.ScoredItem) {
	if deps.FetchClient == nil {
		return
	}
	for i := range scored {
		body := scored[i].Raw.Content
		if body == "" {
			body = scored[i].Raw.Summary
		}
		if len(body) >= MinBodyLengthForEnrich || scored[i].Raw.URL == "" {
			continue
		}
		if text := fetch.Enrich(ctx, deps.FetchClient, scored[i].Raw.URL); text != "" {
			scored[i].Raw.Content = text
		}
	}
}

func translateTitles(ctx context.Context, deps Dependencies, scored []model.ScoredItem) {
	if deps.Translator == nil {
		return
	}
	titles := make([]string, len(scored))
	for i, it := range scored {
		titles[i] = it.Raw.Title
	}
	translated := deps.Translator.TranslateBatchTitles(ctx, titles)
	for i := range scored {
		scored[i].TitleCN = translated[scored[i].Raw.Title]
	}
}

func classifyAll(scored []model.ScoredItem) {
	for i := range scored {
		scored[i].Category = classify.ClassifyRuleBased(scored[i])
	}
}

func bucketize(scored []model.ScoredItem) map[model.Category][]model.ScoredItem {
	buckets := make(map[model.Category][]model.ScoredItem, len(model.AllCategories))
	for _, c := range model.AllCategories {
		buckets[c] = nil
	}
	for _, item := range scored {
		buckets[item.Category] = append(buckets[item.Category], item)
	}
	for c, items := range buckets {
		if len(items) > 10 {
			buckets[c] = items[:10]
		}
	}
	return buckets
}

func leadParagraph(ctx context.Context, deps Dependencies, buckets map[model.Category][]model.ScoredItem) string {
	if deps.Gateway == nil {
		return ""
	}
	var topTitles []string
	for _, c := range model.AllCategories {
		for _, item := range buckets[c] {
			topTitles = append(topTitles, item.Raw.Title)
			if len(topTitles) >= 10 {
				break
			}
		}
	}
	if len(topTitles) == 0 {
		return ""
	}

	prompt := "请基于以下今日要闻标题，写一段50-80字的中文导读：\n"
	for _, t := range topTitles {
		prompt += fmt.Sprintf("- %s\n", t)
	}
	reply, err := deps.Gateway.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, 0.5, 200)
	if err != nil {
		return ""
	}
	return reply
}
