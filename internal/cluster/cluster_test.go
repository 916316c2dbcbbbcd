package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-news-pipeline/internal/model"
)

func newsItem(title, siteID string) model.NewsItem {
	return model.NewsItem{Title: title, SiteID: siteID, Entities: ExtractEntities(title, "")}
}

func TestBuildRetainsOnlyHotClusters(t *testing.T) {
	items := []model.NewsItem{
		newsItem("OpenAI announces GPT-5 with major safety improvements", "openai_blog"),
		newsItem("OpenAI announces GPT-5 with major safety improvements today", "hackernews"),
		newsItem("GPT-5 launch brings major safety improvements from OpenAI", "techmeme"),
		newsItem("More coverage of OpenAI GPT-5 safety improvements release", "v2ex"),
		newsItem("Completely unrelated story about local weather patterns", "other_site"),
	}

	clusters := Build(items)
	require.Len(t, clusters, 1, "only the 4-article, multi-source cluster should survive retention")
	assert.GreaterOrEqual(t, clusters[0].Count(), MinArticles)
	assert.GreaterOrEqual(t, clusters[0].SourceCount(), MinSources)
}

func TestBuildDropsSmallClusters(t *testing.T) {
	items := []model.NewsItem{
		newsItem("A single standalone story about something minor", "site_a"),
		newsItem("Another unrelated story about something else entirely", "site_b"),
	}
	clusters := Build(items)
	assert.Empty(t, clusters)
}

func TestBuildAttachesViaEntityOverlapNotTitleSimilarity(t *testing.T) {
	items := []model.NewsItem{
		newsItem("Google and Nvidia announce joint AI chip partnership deal", "site_a"),
		newsItem("Nvidia teams up with Google on new chip fundraise plans", "site_b"),
		newsItem("Google Nvidia chip alliance deepens amid fundraise push", "site_c"),
		newsItem("Industry watchers react to Google Nvidia fundraise news today", "site_d"),
	}
	clusters := Build(items)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Members, 4)
}

func TestExtractEntitiesNormalizesAliases(t *testing.T) {
	e1 := ExtractEntities("谷歌发布新模型", "")
	e2 := ExtractEntities("Google releases a new model", "")
	_, ok1 := e1["google"]
	_, ok2 := e2["google"]
	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestGenericEntityAloneDoesNotSatisfyOverlap(t *testing.T) {
	a := map[string]struct{}{"gpt": {}, "agent": {}}
	b := map[string]struct{}{"gpt": {}, "agent": {}}
	n, concrete := overlapCount(a, b)
	assert.Equal(t, 2, n)
	assert.False(t, concrete, "overlap made only of generic entities must not count as concrete")
}

func TestBuildRanksByCountTimesSourceCountDescending(t *testing.T) {
	bigCluster := []model.NewsItem{
		newsItem("OpenAI GPT-5 launch coverage from many outlets worldwide", "a"),
		newsItem("OpenAI GPT-5 launch coverage continues across many outlets", "b"),
		newsItem("More OpenAI GPT-5 launch coverage appears across outlets", "c"),
		newsItem("Additional OpenAI GPT-5 launch coverage surfaces worldwide", "d"),
		newsItem("Yet more OpenAI GPT-5 launch coverage across many outlets", "e"),
	}
	smallCluster := []model.NewsItem{
		newsItem("Anthropic Claude funding round closes with new investors", "f"),
		newsItem("Anthropic Claude funding round closes with fresh investors", "g"),
		newsItem("Anthropic Claude funding round closes with several investors", "h"),
		newsItem("Anthropic Claude funding round closes with many new investors", "i"),
	}
	all := append(append([]model.NewsItem{}, bigCluster...), smallCluster...)

	clusters := Build(all)
	require.Len(t, clusters, 2)
	assert.GreaterOrEqual(t, clusters[0].Count()*clusters[0].SourceCount(), clusters[1].Count()*clusters[1].SourceCount())
}
