package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-news-pipeline/internal/model"
)

func TestAdmissionRequiresCoreMatchAndNoExclude(t *testing.T) {
	f := NewFilter()

	_, admitted := f.Evaluate(model.RawItem{Title: "Local weather forecast for the weekend"})
	assert.False(t, admitted, "no CORE match must be rejected")

	_, admitted = f.Evaluate(model.RawItem{Title: "OpenAI releases new model", Content: "horoscope of the day"})
	assert.False(t, admitted, "an EXCLUDE match must reject even with a CORE match")

	scored, admitted := f.Evaluate(model.RawItem{Title: "OpenAI releases new model"})
	require.True(t, admitted)
	assert.GreaterOrEqual(t, scored.RelevanceScore, 0.1)
}

func TestScoreFloorNeverGoesBelowPointOne(t *testing.T) {
	f := NewFilter()
	scored, admitted := f.Evaluate(model.RawItem{
		Title:     "AI startup sponsored advertisement clickbait",
		Content:   "sponsored content with lots of low signal clickbait sponsored",
		SourceKey: "unlisted_source",
	})
	require.True(t, admitted)
	assert.Equal(t, 0.1, scored.RelevanceScore)
}

func TestSharedSourceKeyWithNoSuffixGetsDefaultPriority(t *testing.T) {
	f := NewFilter()
	scored, admitted := f.Evaluate(model.RawItem{Title: "AI research breakthrough", SourceKey: "shared"})
	require.True(t, admitted)

	baseline, _ := f.Evaluate(model.RawItem{Title: "AI research breakthrough", SourceKey: "unlisted_source_xyz"})
	assert.Equal(t, baseline.RelevanceScore, scored.RelevanceScore, `source_key=="shared" must receive the same (default, priority-4) bonus as an unlisted source`)
}

func TestSharedPrefixIsStrippedBeforePriorityLookup(t *testing.T) {
	f := NewFilter()
	direct, _ := f.Evaluate(model.RawItem{Title: "OpenAI ships new feature", SourceKey: "openai_blog"})
	prefixed, _ := f.Evaluate(model.RawItem{Title: "OpenAI ships new feature", SourceKey: "shared_openai_blog"})
	assert.Equal(t, direct.RelevanceScore, prefixed.RelevanceScore)
}

func TestFilterAndScoreSortsDescending(t *testing.T) {
	f := NewFilter()
	items := []model.RawItem{
		{Title: "AI model update", SourceKey: "unlisted"},
		{Title: "GPT-5 breakthrough AI frontier model", SourceKey: "openai_blog"},
	}
	scored := FilterAndScore(f, items)
	require.Len(t, scored, 2)
	assert.GreaterOrEqual(t, scored[0].RelevanceScore, scored[1].RelevanceScore)
}

func TestIsGamingRelatedSideSignal(t *testing.T) {
	f := NewFilter()
	scored, admitted := f.Evaluate(model.RawItem{Title: "AI NPC behavior in video game engines"})
	require.True(t, admitted)
	assert.True(t, scored.IsGamingRelated)
}
