package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalURLIdempotent(t *testing.T) {
	urls := []string{
		"HTTPS://Example.com/Article?utm_source=twitter&id=5#section-2",
		"https://example.com/article/?ref=hn",
		"http://EXAMPLE.com:80/a/b/c",
	}
	for _, u := range urls {
		once := CanonicalURL(u)
		twice := CanonicalURL(once)
		assert.Equal(t, once, twice, "canon(canon(u)) must equal canon(u) for %q", u)
	}
}

func TestCanonicalURLStripsTrackingAndFragment(t *testing.T) {
	got := CanonicalURL("https://Example.com/post?utm_source=x&id=5#top")
	assert.NotContains(t, got, "utm_source")
	assert.NotContains(t, got, "#")
	assert.Contains(t, got, "id=5")
}

func TestCanonicalURLCollapsesVariants(t *testing.T) {
	a := CanonicalURL("https://EXAMPLE.com/story?utm_campaign=x")
	b := CanonicalURL("https://example.com/story")
	assert.Equal(t, a, b)
}

func TestItemIDStableAcrossURLVariants(t *testing.T) {
	id1 := ItemID("https://Example.com/story?utm_source=rss")
	id2 := ItemID("https://example.com/story")
	assert.Equal(t, id1, id2)
}

func TestRepairMojibakeIdempotent(t *testing.T) {
	samples := []string{
		"OpenAI launches GPT-5",
		"Ã©clair and Ã©tÃ© coverage",
		"",
	}
	for _, s := range samples {
		once := RepairMojibake(s)
		twice := RepairMojibake(once)
		assert.Equal(t, once, twice, "repair(repair(s)) must equal repair(s) for %q", s)
	}
}

func TestRepairMojibakeFixesLatin1AsUTF8(t *testing.T) {
	mangled := "Ã©vÃ©nement technologique majeur annoncÃ© par Ã©quipe Ã©trangÃ¨re"
	got := RepairMojibake(mangled)
	require.NotEqual(t, mangled, got)
	assert.Contains(t, got, "é")
}

func TestWithinWindow(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	recent := now.Add(-25 * time.Hour)
	assert.True(t, WithinWindow(&recent, now), "25h-old item must be retained by the 28h window")

	stale := now.Add(-30 * time.Hour)
	assert.False(t, WithinWindow(&stale, now))

	assert.True(t, WithinWindow(nil, now), "missing pub_time must pass through the time filter")
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "zh", DetectLanguage("谷歌发布新模型"))
	assert.Equal(t, "en", DetectLanguage("Google releases a new model"))
	assert.Equal(t, "en", DetectLanguage("OpenAI 发布 GPT-5 模型"))
}

func TestIsPlaceholderTitle(t *testing.T) {
	assert.True(t, IsPlaceholderTitle("Untitled"))
	assert.False(t, IsPlaceholderTitle("OpenAI launches GPT-5"))
}
