package fetch

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ai-news-pipeline/internal/model"
	"ai-news-pipeline/internal/normalize"
)

// scraper produces a raw item list from a listing page's parsed document.
// Registered per site_id for sources with no usable RSS feed, ported from
// the original's web_scraper.py site-specific parsers.
type scraper func(doc *goquery.Document, src SourceConfig) []model.RawItem

var scraperRegistry = map[string]scraper{
	"36kr_ai":  parse36Kr,
	"techmeme": parseTechmeme,
}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// Scrape fetches src.URL and runs its registered site-specific parser. A
// site_id with no registered parser yields an empty result, not an error,
// since a new scrape-only source should fail closed until it is coded up.
func Scrape(ctx context.Context, c *Client, src SourceConfig) ([]model.RawItem, model.SourceStatus) {
	status := model.SourceStatus{SiteID: src.Key, SiteName: src.Name}

	parse, ok := scraperRegistry[src.Key]
	if !ok {
		status.Error = "no scraper registered for site_id " + src.Key
		return nil, status
	}

	body, err := c.Get(ctx, src.URL)
	if err != nil {
		status.Error = err.Error()
		return nil, status
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		status.Error = err.Error()
		return nil, status
	}

	items := parse(doc, src)
	status.OK = true
	status.ItemCount = len(items)
	return items, status
}

// parse36Kr extracts article cards from 36kr's AI channel listing.
func parse36Kr(doc *goquery.Document, src SourceConfig) []model.RawItem {
	var items []model.RawItem
	doc.Find("a.article-item-title, a.weight-list-title").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Text())
		href, ok := sel.Attr("href")
		if !ok || title == "" {
			return
		}
		link := absoluteURL("https://www.36kr.com", href)
		items = append(items, model.RawItem{
			ID:         normalize.ItemID(link),
			Title:      normalize.RepairMojibake(title),
			URL:        normalize.CanonicalURL(link),
			SourceKey:  src.Key,
			SourceName: src.Name,
			SourceType: src.SourceType,
			Language:   model.LangZH,
		})
	})
	return items
}

// parseTechmeme extracts headline clusters from Techmeme's river page.
func parseTechmeme(doc *goquery.Document, src SourceConfig) []model.RawItem {
	var items []model.RawItem
	doc.Find("div.item .ourh a").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Text())
		href, ok := sel.Attr("href")
		if !ok || title == "" {
			return
		}
		link := absoluteURL("https://www.techmeme.com", href)
		parent := sel.Closest("div.item")
		var pub *time.Time
		if ts, ok := parent.Find("span.time").Attr("title"); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				utc := t.UTC()
				pub = &utc
			}
		}
		items = append(items, model.RawItem{
			ID:         normalize.ItemID(link),
			Title:      normalize.RepairMojibake(title),
			URL:        normalize.CanonicalURL(link),
			SourceKey:  src.Key,
			SourceName: src.Name,
			SourceType: src.SourceType,
			Language:   model.LangEN,
			PubTime:    pub,
		})
	})
	return items
}

func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "/") {
		return base + href
	}
	return base + "/" + href
}

func stripHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
