// Package model defines the tagged data structures shared across every
// pipeline stage. A dict-shaped item with optional keys is replaced here by
// distinct structs that are converted at the pipeline's boundaries (loaders,
// persisters, renderers).
package model

import "time"

// SourceType classifies where a RawItem came from.
type SourceType string

const (
	SourceOfficial SourceType = "official"
	SourceENMedia  SourceType = "en_media"
	SourceZHMedia  SourceType = "zh_media"
	SourceShared   SourceType = "shared"
)

// Language is the detected language of an item's title.
type Language string

const (
	LangZH Language = "zh"
	LangEN Language = "en"
)

// Category is one of the five fixed editorial buckets of the daily digest.
type Category string

const (
	CategoryBigTech     Category = "big_tech"
	CategoryAIProducts  Category = "ai_products"
	CategoryAITech      Category = "ai_tech"
	CategoryAIGaming    Category = "ai_gaming"
	CategoryIndustry    Category = "industry_news"
)

// AllCategories enumerates the category totality invariant.
var AllCategories = []Category{
	CategoryBigTech, CategoryAIProducts, CategoryAITech, CategoryAIGaming, CategoryIndustry,
}

// RawItem is the ingestion unit produced by the Fetcher and the
// Shared-Archive Loader.
type RawItem struct {
	ID         string
	Title      string
	URL        string
	SourceKey  string
	SourceName string
	SourceType SourceType
	Language   Language
	PubTime    *time.Time // nil when unknown
	Summary    string
	Content    string
}

// ScoredItem wraps a RawItem with the output of relevance scoring and,
// later, AI enrichment.
type ScoredItem struct {
	Raw             RawItem
	RelevanceScore  float64
	KeywordsMatched []string
	IsGamingRelated bool
	SummaryCN       string
	TitleCN         string
	Category        Category
}

// ArchiveRecord is the persisted superset of a RawItem, carrying the
// first/last-seen lifecycle described in spec.md §3.
type ArchiveRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	SourceKey   string     `json:"source_key"`
	SourceName  string     `json:"source_name"`
	SourceType  SourceType `json:"source_type"`
	Language    Language   `json:"language"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Summary     string     `json:"summary"`
	FirstSeenAt time.Time  `json:"first_seen_at"`
	LastSeenAt  time.Time  `json:"last_seen_at"`
}

// NewsItem is the clustering view over an item: entity-annotated, with
// Chinese/original title pair.
type NewsItem struct {
	ID          string
	Title       string
	TitleZH     string
	URL         string
	Source      string
	SiteID      string
	PublishedAt *time.Time
	Entities    map[string]struct{}
}

// TopicCluster groups NewsItems reporting the same event.
type TopicCluster struct {
	ID                 string
	Members            []NewsItem // seed first
	Sources            map[string]struct{}
	Entities           map[string]struct{}
	RepresentativeTitle string
	repScore           float64
}

// SourceCount returns the number of distinct site_ids covered by the
// cluster's members.
func (c *TopicCluster) SourceCount() int { return len(c.Sources) }

// Count returns the number of member articles.
func (c *TopicCluster) Count() int { return len(c.Members) }

// TranslationCacheEntry is one row of the title/short-string translation
// cache; translate.SaveCache keeps only the 5000 most recently created
// entries, evicting the oldest.
type TranslationCacheEntry struct {
	SourceText     string    `json:"source_text"`
	TranslatedText string    `json:"translated_text"`
	CreatedAt      time.Time `json:"created_at"`
}

// PublishHistoryEntry is one append-only row of the publish ledger.
type PublishHistoryEntry struct {
	Title       string    `json:"title"`
	MediaID     string    `json:"media_id"`
	PublishedAt time.Time `json:"published_at"` // local Asia/Shanghai
	Type        string    `json:"type"`
}

// SourceStatus records the outcome of fetching a single source.
type SourceStatus struct {
	SiteID    string `json:"site_id"`
	SiteName  string `json:"site_name"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ItemCount int    `json:"item_count"`
}

// Candidate is one hot cluster emitted for operator selection in the
// deep-column workflow.
type Candidate struct {
	TopicID      string   `json:"topic_id"`
	Title        string   `json:"title"`
	ArticleCount int      `json:"article_count"`
	SourceCount  int      `json:"source_count"`
	SampleTitles []string `json:"sample_titles"`
	Sources      []string `json:"sources"`
	Entities     []string `json:"entities"`
}
