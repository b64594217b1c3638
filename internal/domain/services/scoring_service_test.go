package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HabariMedia/newsroom-go/internal/domain/entities/content"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/geo"
)

func newScorer() *PersonalizationScorer {
	return NewPersonalizationScorer("counties", 100)
}

// fixed anchor so recency multipliers are predictable
var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func article(id, slug string, trending float64, published time.Time) content.Article {
	return content.Article{
		ID:            id,
		Title:         "Headline " + id,
		CategorySlug:  slug,
		TrendingScore: trending,
		PublishedAt:   published,
	}
}

func TestScoreArticlePreferenceBoost(t *testing.T) {
	s := newScorer()
	old := now.Add(-48 * time.Hour) // no recency multiplier

	sig := Signals{PreferredSlugs: []string{"sports", "tech"}}

	sports := s.ScoreArticle(article("a", "sports", 0, old), sig, now)
	tech := s.ScoreArticle(article("b", "tech", 0, old), sig, now)

	// list length 2: rank 0 -> 100, rank 1 -> 50
	assert.Equal(t, 100.0, sports)
	assert.Equal(t, 50.0, tech)
	assert.Greater(t, sports, tech)
}

func TestScoreArticleVisitBoost(t *testing.T) {
	s := newScorer()
	old := now.Add(-48 * time.Hour)

	tests := []struct {
		name   string
		visits int
		want   float64
	}{
		{"12 visits yields 60", 12, 60},
		{"capped at 100", 40, 100},
		{"zero visits", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Signals{Visits: map[string]int{"sports": tt.visits}}
			got := s.ScoreArticle(article("a", "sports", 0, old), sig, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreArticleGeoBoosts(t *testing.T) {
	s := newScorer()
	old := now.Add(-48 * time.Hour)

	sig := Signals{Location: geo.Location{County: "Nairobi"}}
	got := s.ScoreArticle(article("a", "counties", 0, old), sig, now)
	assert.Equal(t, 75.0, got)

	// town match is a case-insensitive substring of the title
	sig = Signals{Location: geo.Location{Town: "eldoret"}}
	a := article("b", "business", 0, old)
	a.Title = "Eldoret factory reopens"
	assert.Equal(t, 50.0, s.ScoreArticle(a, sig, now))

	a.Title = "Nothing relevant here"
	assert.Equal(t, 0.0, s.ScoreArticle(a, sig, now))
}

func TestScoreArticleRecencyMultiplier(t *testing.T) {
	s := newScorer()
	sig := Signals{}

	fresh := s.ScoreArticle(article("a", "news", 100, now.Add(-1*time.Hour)), sig, now)
	recent := s.ScoreArticle(article("b", "news", 100, now.Add(-12*time.Hour)), sig, now)
	stale := s.ScoreArticle(article("c", "news", 100, now.Add(-48*time.Hour)), sig, now)

	assert.InDelta(t, 120.0, fresh, 1e-9)
	assert.InDelta(t, 110.0, recent, 1e-9)
	assert.Equal(t, 100.0, stale)
}

func TestScoreArticleMultiplierAppliesToWholeSum(t *testing.T) {
	s := newScorer()
	sig := Signals{
		PreferredSlugs: []string{"sports"},
		Visits:         map[string]int{"sports": 4},
	}

	// trending 10 + pref 50 + visits 20 = 80, then x1.2
	got := s.ScoreArticle(article("a", "sports", 10, now.Add(-1*time.Hour)), sig, now)
	assert.InDelta(t, 96.0, got, 1e-9)
}

func TestRankArticlesOrderAndTieBreak(t *testing.T) {
	s := newScorer()
	old := now.Add(-48 * time.Hour)

	articles := []content.Article{
		article("older", "news", 10, old.Add(-time.Hour)),
		article("newer", "news", 10, old),
		article("top", "news", 99, old),
	}

	ranked := s.RankArticles(articles, Signals{}, now)
	require.Len(t, ranked, 3)
	assert.Equal(t, "top", ranked[0].ID)
	// equal scores break ties by descending publish time
	assert.Equal(t, "newer", ranked[1].ID)
	assert.Equal(t, "older", ranked[2].ID)
}

func TestRankArticlesDeterministic(t *testing.T) {
	s := newScorer()
	sig := Signals{
		PreferredSlugs: []string{"sports", "business"},
		Visits:         map[string]int{"sports": 7},
		Location:       geo.Location{County: "Kisumu", Town: "Kisumu"},
	}
	articles := []content.Article{
		article("a", "sports", 12, now.Add(-2*time.Hour)),
		article("b", "counties", 3, now.Add(-30*time.Hour)),
		article("c", "business", 40, now.Add(-10*time.Hour)),
	}

	first := s.RankArticles(articles, sig, now)
	second := s.RankArticles(articles, sig, now)
	require.Equal(t, first, second)
}

func TestDeduplicateArticlesKeepsFirstOccurrence(t *testing.T) {
	articles := []content.Article{
		{ID: "1", Title: "first"},
		{ID: "2"},
		{ID: "1", Title: "duplicate"},
	}

	out := DeduplicateArticles(articles)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, "2", out[1].ID)
}

func TestReorderSectionsKeys(t *testing.T) {
	s := newScorer()

	sections := []content.Section{
		{Slug: "politics", OrderIndex: 0},
		{Slug: "business", OrderIndex: 1},
		{Slug: "sports", OrderIndex: 2},
		{Slug: "health", OrderIndex: 3},
		{Slug: "opinion", OrderIndex: 4},
	}
	sig := Signals{
		PreferredSlugs: []string{"sports", "health"},
		Visits:         map[string]int{"opinion": 12, "business": 6},
	}

	ranked := s.ReorderSections(sections, sig)
	require.Len(t, ranked, 5)

	keys := map[string]int{}
	for _, r := range ranked {
		keys[r.Slug] = r.SortKey
	}
	assert.Equal(t, -1000, keys["sports"])  // #1 preference
	assert.Equal(t, -400, keys["health"])   // rank 1 -> -500+100
	assert.Equal(t, -300, keys["opinion"])  // visits > 10
	assert.Equal(t, -100, keys["business"]) // visits > 5
	assert.Equal(t, 0, keys["politics"])    // untouched editorial slot

	assert.Equal(t, "sports", ranked[0].Slug)
	assert.Equal(t, "health", ranked[1].Slug)
	assert.Equal(t, "opinion", ranked[2].Slug)
}

func TestReorderSectionsStableOnEqualKeys(t *testing.T) {
	s := newScorer()

	sections := []content.Section{
		{Slug: "a", OrderIndex: 2},
		{Slug: "b", OrderIndex: 2},
		{Slug: "c", OrderIndex: 1},
	}

	ranked := s.ReorderSections(sections, Signals{})
	assert.Equal(t, "c", ranked[0].Slug)
	assert.Equal(t, "a", ranked[1].Slug)
	assert.Equal(t, "b", ranked[2].Slug)
}
