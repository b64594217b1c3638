// Package content defines the read-only content shapes the engine consumes
// from the news backend.
package content

import "time"

// Category is static reference data describing one publishable category.
type Category struct {
	ID       string `json:"category_id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	GroupKey string `json:"groupKey,omitempty"`
}

// Article is one content item as served by the backend. Numeric fields may
// be absent upstream; zero values are valid scorer inputs.
type Article struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CategorySlug  string    `json:"category_slug"`
	PublishedAt   time.Time `json:"published_at"`
	Views         int       `json:"views"`
	LikesCount    int       `json:"likes_count"`
	TrendingScore float64   `json:"trending_score"`
}

// Section is one category-grouped block on the home page, ordered by the
// editorial OrderIndex before personalization reorders it.
type Section struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	OrderIndex int    `json:"orderIndex"`
}

// RankedArticle pairs an article with its transient personalization score
// for a single ranking pass. Scores are never persisted.
type RankedArticle struct {
	Article
	Score float64 `json:"score"`
}

// RankedSection pairs a section with its computed sort key.
type RankedSection struct {
	Section
	SortKey int `json:"sortKey"`
}
