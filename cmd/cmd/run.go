package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ai-news-pipeline/internal/archive"
	"ai-news-pipeline/internal/config"
	"ai-news-pipeline/internal/dedup"
	"ai-news-pipeline/internal/digest"
	"ai-news-pipeline/internal/errs"
	"ai-news-pipeline/internal/fetch"
	"ai-news-pipeline/internal/llm"
	"ai-news-pipeline/internal/logger"
	"ai-news-pipeline/internal/metrics"
	"ai-news-pipeline/internal/model"
	"ai-news-pipeline/internal/normalize"
	"ai-news-pipeline/internal/publish"
	"ai-news-pipeline/internal/relevance"
	"ai-news-pipeline/internal/render"
	"ai-news-pipeline/internal/translate"
)

var (
	runNoPublish bool
	runLocalOnly bool
	runOutputDir string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daily digest orchestrator end to end",
	Long: `run collects news from the shared archive (falling back to independent
RSS/HTML fetch), filters and scores it for relevance, deduplicates
overlapping coverage, summarizes, translates, and classifies the
survivors, then writes a daily Markdown digest and — unless --no-publish or
--local-only is set — pushes it to the configured downstream publishers.`,
	RunE: runDigest,
}

func init() {
	runCmd.Flags().BoolVar(&runNoPublish, "no-publish", false, "skip all downstream publishers")
	runCmd.Flags().BoolVar(&runLocalOnly, "local-only", false, "skip network publishers and the shared-archive fallback fetch")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "digests", "directory to write the rendered digest into")
	rootCmd.AddCommand(runCmd)
}

func runDigest(cmd *cobra.Command, args []string) error {
	log := logger.Stage("run")
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fetchClient := fetch.NewClient(cfg.RequestTimeout, cfg.RequestDelay)

	var gateway *llm.Gateway
	if cfg.DeepSeekAPIKey != "" {
		gateway = llm.New(llm.Config{
			APIKey:     cfg.DeepSeekAPIKey,
			BaseURL:    cfg.DeepSeekBaseURL,
			Model:      cfg.DeepSeekModel,
			MaxRetries: cfg.APIMaxRetries,
			RetryDelay: cfg.APIRetryDelay,
			Timeout:    cfg.APITimeout,
		})
	} else {
		log.Warn().Msg("no DEEPSEEK_API_KEY configured; summarization, translation fallback, and AI classification are skipped")
	}

	archiveStore, err := archive.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	dedupCache, err := dedup.OpenCache(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening dedup cache: %w", err)
	}
	translateCache := translate.LoadCache(cfg.DataDir)
	translator := translate.New(gateway, translateCache)

	var sources []fetch.SourceConfig
	if !runLocalOnly {
		sources = fetch.DefaultSources()
	}

	deps := digest.Dependencies{
		FetchClient:  fetchClient,
		Sources:      sources,
		Gateway:      gateway,
		ArchiveStore: archiveStore,
		DedupCache:   dedupCache,
		Filter:       &relevance.Filter{Priority: relevance.DefaultSourcePriority},
		Translator:   translator,
		SourceDir:    cfg.SharedDataDir,
		Now:          time.Now().UTC(),
		WindowHours:  cfg.ClusterTimeWindowHours,
	}

	result, err := digest.Run(ctx, deps)
	if errs.Is(err, errs.EmptyResult) {
		log.Warn().Msg("no items survived the pipeline; exiting without a digest")
		return err
	}
	if err != nil {
		return fmt.Errorf("running digest: %w", err)
	}

	for _, status := range result.SourceStatuses {
		if !status.OK {
			log.Warn().Str("source", status.SiteID).Str("error", status.Error).Msg("source fetch failed")
		}
	}
	if err := writeSourceStatuses(cfg.DataDir, result.SourceStatuses); err != nil {
		log.Error().Err(err).Msg("failed to write source-status.json")
	}

	path, err := render.RenderDailyDigest(result, runOutputDir, deps.Now)
	if err != nil {
		return fmt.Errorf("rendering digest: %w", err)
	}
	log.Info().Str("path", path).Msg("digest written")

	if err := archiveStore.Flush(deps.Now); err != nil {
		log.Error().Err(err).Msg("failed to flush archive")
	}
	if err := dedupCache.Flush(deps.Now); err != nil {
		log.Error().Err(err).Msg("failed to flush dedup cache")
	}
	if err := translate.SaveCache(cfg.DataDir, translator.Cache); err != nil {
		log.Error().Err(err).Msg("failed to flush translation cache")
	}

	if runNoPublish || runLocalOnly {
		return nil
	}
	publishResult(ctx, cfg, result)
	return nil
}

// writeSourceStatuses persists the per-source fetch outcome of this run to
// <dataDir>/source-status.json, overwriting the previous run's file.
func writeSourceStatuses(dataDir string, statuses []model.SourceStatus) error {
	data, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dataDir, "source-status.json"), data, 0o644)
}

// appendPublishHistory appends one row to <dataDir>/publish_history.json,
// the append-only ledger of everything pushed to a downstream publisher.
func appendPublishHistory(dataDir string, entry model.PublishHistoryEntry) error {
	path := filepath.Join(dataDir, "publish_history.json")
	var history []model.PublishHistoryEntry
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &history)
	}
	history = append(history, entry)
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func publishResult(ctx context.Context, cfg *config.Config, result digest.Result) {
	log := logger.Stage("publish")

	var lines []string
	for _, items := range result.Buckets {
		for _, item := range items {
			title := item.TitleCN
			if title == "" {
				title = item.Raw.Title
			}
			lines = append(lines, fmt.Sprintf("- [%s](%s)", title, item.Raw.URL))
		}
	}
	markdown := result.LeadParagraph + "\n\n"
	for _, l := range lines {
		markdown += l + "\n"
	}

	now := normalize.InShanghai(time.Now())

	if cfg.WeComWebhookURL != "" {
		wecom := publish.NewWeComWebhook(cfg.WeComWebhookURL)
		outcome := "ok"
		if ok := wecom.SendMarkdown(ctx, markdown); !ok {
			outcome = "error"
			log.Warn().Msg("wecom publish failed")
		} else if err := appendPublishHistory(cfg.DataDir, model.PublishHistoryEntry{Title: "AI 快讯日报", PublishedAt: now, Type: "wecom"}); err != nil {
			log.Error().Err(err).Msg("failed to append publish history")
		}
		metrics.PublishTotal.WithLabelValues("wecom", outcome).Inc()
	}

	if cfg.WeChatAppID != "" && cfg.WeChatAppSecret != "" {
		draft := publish.NewWeChatDraft(cfg.WeChatAppID, cfg.WeChatAppSecret, cfg.DataDir+"/wechat_token.json")
		outcome := "ok"
		if mediaID, err := draft.Publish(ctx, "AI 快讯日报", markdown, ""); err != nil {
			outcome = "error"
			log.Warn().Err(err).Msg("wechat publish failed")
		} else if err := appendPublishHistory(cfg.DataDir, model.PublishHistoryEntry{Title: "AI 快讯日报", MediaID: mediaID, PublishedAt: now, Type: "wechat"}); err != nil {
			log.Error().Err(err).Msg("failed to append publish history")
		}
		metrics.PublishTotal.WithLabelValues("wechat", outcome).Inc()
	}

	if cfg.FeishuAppID != "" && cfg.FeishuBitableToken != "" {
		bitable := publish.NewFeishuBitable(cfg.FeishuAppID, cfg.FeishuAppSecret, cfg.FeishuBitableToken, cfg.FeishuTableID, cfg.DataDir+"/feishu_written_ids.json")
		records := make([]publish.FeishuRecord, 0, len(lines))
		for _, items := range result.Buckets {
			for _, item := range items {
				records = append(records, publish.FeishuRecord{
					ID:     item.Raw.ID,
					Fields: map[string]any{"title": item.Raw.Title, "url": item.Raw.URL, "category": string(item.Category)},
				})
			}
		}
		outcome := "ok"
		if n, err := bitable.Append(ctx, records); err != nil {
			outcome = "error"
			log.Warn().Err(err).Msg("feishu publish failed")
		} else if n > 0 {
			if err := appendPublishHistory(cfg.DataDir, model.PublishHistoryEntry{Title: "AI 快讯日报", PublishedAt: now, Type: "feishu"}); err != nil {
				log.Error().Err(err).Msg("failed to append publish history")
			}
		}
		metrics.PublishTotal.WithLabelValues("feishu", outcome).Inc()
	}
}
