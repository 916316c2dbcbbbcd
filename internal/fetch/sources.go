package fetch

import "ai-news-pipeline/internal/model"

// DefaultSources returns the fixed source list the independent-fetch
// fallback pulls from when the shared loader (internal/sharedloader)
// returns fewer than 10 items. Keys match
// relevance.DefaultSourcePriority so source_bonus resolves without the
// "shared_" prefix path.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Key: "openai_blog", Name: "OpenAI Blog", URL: "https://openai.com/news/rss.xml", SourceType: model.SourceOfficial, Language: model.LangEN},
		{Key: "anthropic_news", Name: "Anthropic News", URL: "https://www.anthropic.com/rss.xml", SourceType: model.SourceOfficial, Language: model.LangEN},
		{Key: "google_blog", Name: "Google AI Blog", URL: "https://blog.google/technology/ai/rss/", SourceType: model.SourceOfficial, Language: model.LangEN},
		{Key: "deepmind", Name: "Google DeepMind Blog", URL: "https://deepmind.google/blog/rss.xml", SourceType: model.SourceOfficial, Language: model.LangEN},
		{Key: "hackernews", Name: "Hacker News Front Page", URL: "https://hnrss.org/frontpage", SourceType: model.SourceENMedia, Language: model.LangEN},
		{Key: "producthunt", Name: "Product Hunt", URL: "https://www.producthunt.com/feed", SourceType: model.SourceENMedia, Language: model.LangEN},
		{Key: "techmeme", Name: "Techmeme", URL: "https://www.techmeme.com/river", SourceType: model.SourceENMedia, Scrape: true},
		{Key: "v2ex", Name: "V2EX", URL: "https://www.v2ex.com/index.xml", SourceType: model.SourceZHMedia, Language: model.LangZH},
		{Key: "36kr_ai", Name: "36氪 AI", URL: "https://36kr.com/information/AI", SourceType: model.SourceZHMedia, Language: model.LangZH, Scrape: true},
	}
}
