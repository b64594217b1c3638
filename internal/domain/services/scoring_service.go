// Package services provides pure domain services for business logic
package services

import (
	"sort"
	"strings"
	"time"

	"github.com/HabariMedia/newsroom-go/internal/domain/entities/content"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/geo"
)

// Signals is the read-only personalization context for one ranking pass.
// PreferredSlugs is ordered (rank 0 is the strongest preference), Visits
// maps category slug to recorded visit count, Location is the viewer's
// last known place.
type Signals struct {
	PreferredSlugs []string
	Visits         map[string]int
	Location       geo.Location
}

// PersonalizationScorer computes deterministic content orderings from
// preference, visit, and geo signals. It is a pure domain service: no
// infrastructure dependencies, no hidden state, identical inputs always
// yield identical outputs.
type PersonalizationScorer struct {
	countiesSlug  string
	visitBoostCap float64
}

// NewPersonalizationScorer creates a scorer. countiesSlug names the
// category that receives the county geo boost; visitBoostCap bounds the
// per-article visit boost.
func NewPersonalizationScorer(countiesSlug string, visitBoostCap float64) *PersonalizationScorer {
	return &PersonalizationScorer{
		countiesSlug:  countiesSlug,
		visitBoostCap: visitBoostCap,
	}
}

// ReorderSections computes a sort key per section and returns the sections
// in ascending key order. The key starts at orderIndex*100 and is
// overridden downward when preference signals apply; equal keys keep their
// original relative order.
func (s *PersonalizationScorer) ReorderSections(sections []content.Section, sig Signals) []content.RankedSection {
	ranked := make([]content.RankedSection, 0, len(sections))
	for _, sec := range sections {
		ranked = append(ranked, content.RankedSection{
			Section: sec,
			SortKey: s.sectionKey(sec, sig),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SortKey < ranked[j].SortKey
	})
	return ranked
}

func (s *PersonalizationScorer) sectionKey(sec content.Section, sig Signals) int {
	key := sec.OrderIndex * 100

	switch rank := slugRank(sig.PreferredSlugs, sec.Slug); {
	case rank == 0:
		key = -1000
	case rank == 1 || rank == 2:
		key = -500 + rank*100
	default:
		visits := sig.Visits[sec.Slug]
		if visits > 10 {
			key = -300
		} else if visits > 5 {
			key = -100
		}
	}
	return key
}

// RankArticles scores every article and returns them in descending score
// order, ties broken by descending publish time. now anchors the recency
// multiplier so the pass stays deterministic for a given instant.
func (s *PersonalizationScorer) RankArticles(articles []content.Article, sig Signals, now time.Time) []content.RankedArticle {
	ranked := make([]content.RankedArticle, 0, len(articles))
	for _, a := range articles {
		ranked = append(ranked, content.RankedArticle{
			Article: a,
			Score:   s.ScoreArticle(a, sig, now),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].PublishedAt.After(ranked[j].PublishedAt)
	})
	return ranked
}

// ScoreArticle computes one article's personalization score. The formula is
// total: unknown slugs and missing fields contribute zero boost, never an
// error.
func (s *PersonalizationScorer) ScoreArticle(a content.Article, sig Signals, now time.Time) float64 {
	score := a.TrendingScore

	if rank := slugRank(sig.PreferredSlugs, a.CategorySlug); rank >= 0 {
		score += float64((len(sig.PreferredSlugs) - rank) * 50)
	}

	if visits := sig.Visits[a.CategorySlug]; visits > 0 {
		boost := float64(visits) * 5
		if boost > s.visitBoostCap {
			boost = s.visitBoostCap
		}
		score += boost
	}

	if sig.Location.County != "" && a.CategorySlug == s.countiesSlug {
		score += 75
	}
	if sig.Location.Town != "" &&
		strings.Contains(strings.ToLower(a.Title), strings.ToLower(sig.Location.Town)) {
		score += 50
	}

	// Recency multiplier applies last, over the whole accumulated sum.
	age := now.Sub(a.PublishedAt)
	switch {
	case age < 6*time.Hour:
		score *= 1.2
	case age < 24*time.Hour:
		score *= 1.1
	}

	return score
}

// DeduplicateArticles removes repeated ids, keeping the first occurrence.
// Overlapping backend pages can reintroduce the same article, so merged
// lists pass through here before scoring.
func DeduplicateArticles(articles []content.Article) []content.Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]content.Article, 0, len(articles))
	for _, a := range articles {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

// slugRank returns the 0-indexed position of slug in prefs, or -1.
func slugRank(prefs []string, slug string) int {
	for i, p := range prefs {
		if p == slug {
			return i
		}
	}
	return -1
}
