package cluster

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"ai-news-pipeline/internal/metrics"
	"ai-news-pipeline/internal/model"
)

const (
	// TitleSimilarityThreshold gates Strategy A's pairwise attach test.
	TitleSimilarityThreshold = 0.58
	// MinTitleLength excludes near-empty titles from ever seeding or
	// joining a cluster.
	MinTitleLength = 8
	// MinArticles and MinSources gate cluster retention after growth.
	MinArticles = 4
	MinSources  = 2
	// MaxCandidates caps the emitted, ranked candidate list.
	MaxCandidates = 8
	// titleCompareLimit is how many existing members Strategy A compares
	// an incoming item against.
	titleCompareLimit = 10
)

// workingCluster is the mutable, in-progress form of model.TopicCluster
// used during the seed-grow pass.
type workingCluster struct {
	id       string
	members  []model.NewsItem
	entities map[string]struct{}
}

func newWorkingCluster(id string, seed model.NewsItem) *workingCluster {
	c := &workingCluster{id: id, entities: make(map[string]struct{})}
	c.add(seed)
	return c
}

func (c *workingCluster) add(item model.NewsItem) {
	c.members = append(c.members, item)
	for e := range item.Entities {
		c.entities[e] = struct{}{}
	}
}

func titleSimilarity(a, b string) float64 {
	res, err := edlib.StringsSimilarity(a, b, edlib.Lcs)
	if err != nil {
		return 0
	}
	return float64(res)
}

func (c *workingCluster) attaches(item model.NewsItem) bool {
	// Strategy A: title similarity against up to the first 10 members.
	limit := len(c.members)
	if limit > titleCompareLimit {
		limit = titleCompareLimit
	}
	for i := 0; i < limit; i++ {
		if titleSimilarity(normalizedCompareTitle(item.Title), normalizedCompareTitle(c.members[i].Title)) >= TitleSimilarityThreshold {
			return true
		}
	}

	// Strategy B: entity overlap with at least one concrete entity.
	n, hasConcrete := overlapCount(item.Entities, c.entities)
	if n >= 2 && hasConcrete {
		return true
	}
	return false
}

func normalizedCompareTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// FromScored adapts ScoredItems (the relevance filter's output) into the
// NewsItem view Build operates over, extracting entities from title and
// content when not already present.
func FromScored(items []model.ScoredItem) []model.NewsItem {
	out := make([]model.NewsItem, 0, len(items))
	for _, it := range items {
		title := it.Raw.Title
		out = append(out, model.NewsItem{
			ID:          it.Raw.ID,
			Title:       title,
			TitleZH:     it.TitleCN,
			URL:         it.Raw.URL,
			Source:      it.Raw.SourceName,
			SiteID:      it.Raw.SourceKey,
			PublishedAt: it.Raw.PubTime,
			Entities:    ExtractEntities(title, it.Raw.Content),
		})
	}
	return out
}

// Build runs the seed-grow clustering algorithm over items in input order
// and returns every cluster meeting the retention rule, ranked by
// count*source_count descending, capped at MaxCandidates.
func Build(items []model.NewsItem) []model.TopicCluster {
	var clusters []*workingCluster
	seq := 0

	for _, item := range items {
		if utf8.RuneCountInString(strings.TrimSpace(item.Title)) < MinTitleLength {
			continue
		}
		if item.Entities == nil {
			item.Entities = ExtractEntities(item.Title, "")
		}

		attached := false
		for _, wc := range clusters {
			if wc.attaches(item) {
				wc.add(item)
				attached = true
				break
			}
		}
		if !attached {
			seq++
			clusters = append(clusters, newWorkingCluster(clusterID(seq), item))
		}
	}

	var retained []model.TopicCluster
	for _, wc := range clusters {
		tc := toTopicCluster(wc)
		if !meetsRetention(tc) {
			continue
		}
		tc.RepresentativeTitle, _ = pickRepresentative(tc.Members)
		retained = append(retained, tc)
	}

	sort.SliceStable(retained, func(i, j int) bool {
		return retained[i].Count()*retained[i].SourceCount() > retained[j].Count()*retained[j].SourceCount()
	})
	if len(retained) > MaxCandidates {
		retained = retained[:MaxCandidates]
	}
	metrics.ClustersBuilt.Set(float64(len(retained)))
	return retained
}

func meetsRetention(tc model.TopicCluster) bool {
	if tc.Count() < MinArticles {
		return false
	}
	if tc.SourceCount() < MinSources {
		return false
	}
	nonRepo := 0
	for _, m := range tc.Members {
		if !isRepoFormatTitle(m.Title) {
			nonRepo++
		}
	}
	return nonRepo >= 2
}

func toTopicCluster(wc *workingCluster) model.TopicCluster {
	sources := make(map[string]struct{})
	for _, m := range wc.members {
		if m.SiteID != "" {
			sources[m.SiteID] = struct{}{}
		} else {
			sources[m.Source] = struct{}{}
		}
	}
	return model.TopicCluster{
		ID:       wc.id,
		Members:  wc.members,
		Sources:  sources,
		Entities: wc.entities,
	}
}

// pickRepresentative chooses the member title that best represents the
// cluster: Chinese titles are preferred, and length in [15, 50] runes is
// preferred within that.
func pickRepresentative(members []model.NewsItem) (string, float64) {
	best := ""
	bestScore := -1.0
	for _, m := range members {
		title := m.Title
		if m.TitleZH != "" {
			title = m.TitleZH
		}
		score := representativeScore(title)
		if score > bestScore {
			bestScore = score
			best = title
		}
	}
	return best, bestScore
}

func representativeScore(title string) float64 {
	score := 0.0
	if hasHan(title) {
		score += 2.0
	}
	n := utf8.RuneCountInString(title)
	if n >= 15 && n <= 50 {
		score += 1.0
	} else {
		// Penalize titles far outside the preferred length band.
		score -= 0.01 * float64(abs(n-32))
	}
	return score
}

func hasHan(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func clusterID(seq int) string {
	return "cluster-" + strconv.Itoa(seq)
}
