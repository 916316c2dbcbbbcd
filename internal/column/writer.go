package column

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"ai-news-pipeline/internal/llm"
)

// DefaultTitle is used when the model's response yields no parsable
// title, matching the original's Chinese-language default.
const DefaultTitle = "AI深度专栏"

// Article is the long-form output of the writer.
type Article struct {
	Title string
	Body  string // markdown, H2/H3 structure
}

var titlePrefixPattern = regexp.MustCompile(`(?i)^\s*TITLE:\s*(.+)$`)
var headingPattern = regexp.MustCompile(`^\s*#\s+(.+)$`)

// Writer drives the LLM to produce an 800-1500 Chinese-character
// markdown article about a topic cluster's materials.
type Writer struct {
	Gateway *llm.Gateway
}

// New returns a Writer backed by gw.
func New(gw *llm.Gateway) *Writer {
	return &Writer{Gateway: gw}
}

// Write generates the article. The raw LLM reply is parsed for a
// `TITLE: ...` first line, falling back to a leading `# heading`, falling
// back to DefaultTitle; the remaining text (with the title line removed)
// becomes the article body.
func (w *Writer) Write(ctx context.Context, mat Material) Article {
	prompt := buildPrompt(mat)
	reply, err := w.Gateway.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, 0.7, 3000)
	if err != nil || strings.TrimSpace(reply) == "" {
		return Article{Title: DefaultTitle, Body: ""}
	}
	return parseArticle(reply)
}

func buildPrompt(mat Material) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请基于以下素材撰写一篇800-1500字的中文深度专栏文章，使用Markdown格式，包含H2和H3级标题。"+
		"文章开头单独一行以 \"TITLE: \" 前缀给出标题。\n\n主题：%s\n\n素材：\n", mat.Cluster.RepresentativeTitle)
	for _, member := range mat.Cluster.Members {
		fmt.Fprintf(&b, "- %s (%s)\n", member.Title, member.Source)
		if excerpt, ok := mat.Excerpts[member.URL]; ok {
			fmt.Fprintf(&b, "  摘录: %s\n", excerpt)
		}
	}
	return b.String()
}

// parseArticle extracts the title via the TITLE: prefix, then a leading
// heading, then DefaultTitle, stripping the consumed title line from the
// body.
func parseArticle(reply string) Article {
	lines := strings.Split(strings.TrimSpace(reply), "\n")
	if len(lines) == 0 {
		return Article{Title: DefaultTitle, Body: ""}
	}

	if m := titlePrefixPattern.FindStringSubmatch(lines[0]); len(m) == 2 {
		title := strings.TrimSpace(m[1])
		body := strings.TrimSpace(strings.Join(lines[1:], "\n"))
		return Article{Title: title, Body: body}
	}

	if m := headingPattern.FindStringSubmatch(lines[0]); len(m) == 2 {
		title := strings.TrimSpace(m[1])
		body := strings.TrimSpace(strings.Join(lines[1:], "\n"))
		return Article{Title: title, Body: body}
	}

	return Article{Title: DefaultTitle, Body: strings.TrimSpace(reply)}
}
