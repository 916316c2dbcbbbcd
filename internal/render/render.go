// Package render turns orchestrator output into the on-disk artifacts
// operators and publishers consume: a daily digest Markdown file and a
// deep-column Markdown article. Grounded on the teacher's
// internal/render.RenderMarkdownDigest (string-builder + os.WriteFile
// shape, digests/ default output directory) generalized to
// model.Category buckets and digest.Result.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-news-pipeline/internal/column"
	"ai-news-pipeline/internal/digest"
	"ai-news-pipeline/internal/model"
)

var categoryLabel = map[model.Category]string{
	model.CategoryBigTech:    "大厂动态",
	model.CategoryAIProducts: "AI 产品",
	model.CategoryAITech:     "AI 技术",
	model.CategoryAIGaming:   "AI 游戏",
	model.CategoryIndustry:   "行业资讯",
}

// DigestFilename returns the conventional daily digest filename for now.
func DigestFilename(now time.Time) string {
	return fmt.Sprintf("digest_%s.md", now.UTC().Format("2006-01-02"))
}

// RenderDailyDigest writes result as a Markdown file under outputDir,
// grouped by category in model.AllCategories order, and returns the
// written path. outputDir defaults to "digests" when empty.
func RenderDailyDigest(result digest.Result, outputDir string, now time.Time) (string, error) {
	if outputDir == "" {
		outputDir = "digests"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	var body strings.Builder
	body.WriteString(fmt.Sprintf("# AI 快讯日报 - %s\n\n", now.UTC().Format("2006-01-02")))

	if result.LeadParagraph != "" {
		body.WriteString(result.LeadParagraph)
		body.WriteString("\n\n")
	}

	total := 0
	for _, c := range model.AllCategories {
		items := result.Buckets[c]
		if len(items) == 0 {
			continue
		}
		total += len(items)
		body.WriteString(fmt.Sprintf("## %s\n\n", categoryLabel[c]))
		for i, item := range items {
			title := item.TitleCN
			if title == "" {
				title = item.Raw.Title
			}
			body.WriteString(fmt.Sprintf("%d. [%s](%s)\n", i+1, title, item.Raw.URL))
			if item.SummaryCN != "" {
				body.WriteString("   " + item.SummaryCN + "\n")
			}
		}
		body.WriteString("\n")
	}
	if total == 0 {
		body.WriteString("今日无符合条件的资讯。\n")
	}

	filePath := filepath.Join(outputDir, DigestFilename(now))
	if err := os.WriteFile(filePath, []byte(body.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write digest file %s: %w", filePath, err)
	}
	return filePath, nil
}

// RenderColumnArticle writes a generated deep-column article as a
// Markdown file under outputDir and returns the written path.
func RenderColumnArticle(article column.Article, outputDir string, now time.Time) (string, error) {
	if outputDir == "" {
		outputDir = "columns"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filename := fmt.Sprintf("column_%s.md", now.UTC().Format("2006-01-02_150405"))
	filePath := filepath.Join(outputDir, filename)

	var body strings.Builder
	body.WriteString(fmt.Sprintf("# %s\n\n", article.Title))
	body.WriteString(article.Body)
	body.WriteString("\n")

	if err := os.WriteFile(filePath, []byte(body.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write column file %s: %w", filePath, err)
	}
	return filePath, nil
}
