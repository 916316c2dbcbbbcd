package fetch

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"ai-news-pipeline/internal/normalize"
)

// MaxContentLength caps the body text handed to the summarizer, per
// spec.md §4.11 step 6.
const MaxContentLength = 3000

// genericSelectors are tried, in order, when readability yields nothing
// useful; they cover the common article-body containers across the
// source set.
var genericSelectors = []string{"article", "main", ".content", "#content", ".post-content"}

// Enrich fetches targetURL's body and returns cleaned article text, trying
// go-readability first, then a short list of generic selectors, then a
// crude whole-document tag strip. It never errors to the caller: an
// enrichment failure simply yields an empty string, leaving the item's
// RSS-supplied Summary as the only content.
func Enrich(ctx context.Context, c *Client, targetURL string) string {
	body, err := c.Get(ctx, targetURL)
	if err != nil {
		return ""
	}

	if text := enrichViaReadability(body, targetURL); text != "" {
		return cap3000(text)
	}
	if text := enrichViaSelectors(body); text != "" {
		return cap3000(text)
	}
	return cap3000(stripHTML(string(body)))
}

func enrichViaReadability(body []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(article.TextContent)
	if text != "" {
		return normalize.RepairMojibake(text)
	}
	return normalize.RepairMojibake(strings.TrimSpace(stripHTML(article.Content)))
}

func enrichViaSelectors(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, sel := range genericSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if len(text) > 200 {
			return normalize.RepairMojibake(strings.Join(strings.Fields(text), " "))
		}
	}
	return ""
}

func cap3000(s string) string {
	if len(s) <= MaxContentLength {
		return s
	}
	return s[:MaxContentLength]
}
