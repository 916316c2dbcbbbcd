package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ai-news-pipeline/internal/cluster"
	"ai-news-pipeline/internal/column"
	"ai-news-pipeline/internal/config"
	"ai-news-pipeline/internal/dedup"
	"ai-news-pipeline/internal/fetch"
	"ai-news-pipeline/internal/llm"
	"ai-news-pipeline/internal/logger"
	"ai-news-pipeline/internal/model"
	"ai-news-pipeline/internal/relevance"
	"ai-news-pipeline/internal/render"
	"ai-news-pipeline/internal/sharedloader"
)

var columnCmd = &cobra.Command{
	Use:   "column",
	Short: "Discover trending topic clusters and generate deep-dive columns",
}

var columnDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Collect, score, and cluster today's items, writing candidates.json",
	RunE:  runColumnDiscover,
}

var columnGenerateCmd = &cobra.Command{
	Use:   "generate <candidate-number>",
	Short: "Write a deep-column article for one 1-based candidate number from candidates.json (0 skips)",
	Args:  cobra.ExactArgs(1),
	RunE:  runColumnGenerate,
}

var columnAutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Discover candidates and generate a column for the top-ranked one",
	RunE:  runColumnAuto,
}

func init() {
	columnCmd.AddCommand(columnDiscoverCmd)
	columnCmd.AddCommand(columnGenerateCmd)
	columnCmd.AddCommand(columnAutoCmd)
	rootCmd.AddCommand(columnCmd)
}

// candidateFile mirrors spec.md's candidates.json: {topic_id, title,
// article_count, source_count, sample_titles, sources, entities}.
type candidateFile struct {
	TopicID      string   `json:"topic_id"`
	Title        string   `json:"title"`
	ArticleCount int      `json:"article_count"`
	SourceCount  int      `json:"source_count"`
	SampleTitles []string `json:"sample_titles"`
	Sources      []string `json:"sources"`
	Entities     []string `json:"entities"`
}

func discoverClusters(ctx context.Context, cfg *config.Config) ([]model.TopicCluster, error) {
	now := time.Now().UTC()
	var items []model.RawItem
	if cfg.SharedDataDir != "" {
		items = sharedloader.Load(cfg.SharedDataDir, now, cfg.ClusterTimeWindowHours)
	}

	filter := &relevance.Filter{Priority: relevance.DefaultSourcePriority}
	scored := relevance.FilterAndScore(filter, items)

	dedupCache, err := dedup.OpenCache(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	scored = dedup.Deduplicate(dedupCache, scored)

	return cluster.Build(cluster.FromScored(scored)), nil
}

func runColumnDiscover(cmd *cobra.Command, args []string) error {
	log := logger.Stage("column-discover")
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	clusters, err := discoverClusters(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	candidates := make([]candidateFile, 0, len(clusters))
	for _, tc := range clusters {
		var sampleTitles, sources []string
		for i, m := range tc.Members {
			if i >= 5 {
				break
			}
			sampleTitles = append(sampleTitles, m.Title)
		}
		for s := range tc.Sources {
			sources = append(sources, s)
		}
		var entities []string
		for e := range tc.Entities {
			entities = append(entities, e)
		}
		candidates = append(candidates, candidateFile{
			TopicID:      tc.ID,
			Title:        tc.RepresentativeTitle,
			ArticleCount: tc.Count(),
			SourceCount:  tc.SourceCount(),
			SampleTitles: sampleTitles,
			Sources:      sources,
			Entities:     entities,
		})
	}

	path := filepath.Join(cfg.DataDir, "candidates.json")
	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Info().Int("candidates", len(candidates)).Str("path", path).Msg("candidates written")
	return nil
}

// resolveCandidateIndex converts a 1-based candidate number (as typed on
// the command line, matching candidates.json's display order) into a
// 0-based slice index. num == 0 means "skip": skip is true and idx/err
// are both zero. An out-of-range num is reported as an error.
func resolveCandidateIndex(num, total int) (idx int, skip bool, err error) {
	if num == 0 {
		return 0, true, nil
	}
	if num < 0 || num > total {
		return 0, false, fmt.Errorf("candidate index %d out of range (have %d candidates)", num, total)
	}
	return num - 1, false, nil
}

// runColumnGenerate takes a 1-based candidate number, matching
// candidates.json's display order (candidate 1 is clusters[0]).
// 0 means "skip" and returns cleanly without generating anything.
func runColumnGenerate(cmd *cobra.Command, args []string) error {
	num, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("candidate-index must be an integer: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	clusters, err := discoverClusters(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	idx, skip, err := resolveCandidateIndex(num, len(clusters))
	if err != nil {
		return err
	}
	if skip {
		logger.Stage("column-generate").Info().Msg("candidate index 0: skipping")
		return nil
	}

	return generateColumnFor(cmd.Context(), cfg, clusters[idx])
}

func runColumnAuto(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	clusters, err := discoverClusters(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if len(clusters) == 0 {
		return fmt.Errorf("no hot clusters found; nothing to write a column about")
	}
	return generateColumnFor(cmd.Context(), cfg, clusters[0])
}

func generateColumnFor(ctx context.Context, cfg *config.Config, tc model.TopicCluster) error {
	log := logger.Stage("column-generate")

	fetchClient := fetch.NewClient(cfg.RequestTimeout, cfg.RequestDelay)
	material := column.Collect(ctx, fetchClient, tc)

	if cfg.DeepSeekAPIKey == "" {
		return fmt.Errorf("DEEPSEEK_API_KEY not configured; cannot generate a column")
	}
	gateway := llm.New(llm.Config{
		APIKey:     cfg.DeepSeekAPIKey,
		BaseURL:    cfg.DeepSeekBaseURL,
		Model:      cfg.DeepSeekModel,
		MaxRetries: cfg.APIMaxRetries,
		RetryDelay: cfg.APIRetryDelay,
		Timeout:    cfg.APITimeout,
	})

	article := column.New(gateway).Write(ctx, material)

	path, err := render.RenderColumnArticle(article, "columns", time.Now().UTC())
	if err != nil {
		return err
	}
	log.Info().Str("topic_id", tc.ID).Str("path", path).Msg("column written")
	return nil
}
