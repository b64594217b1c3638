package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HabariMedia/newsroom-go/internal/domain/entities/content"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/geo"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/preferences"
	domainservices "github.com/HabariMedia/newsroom-go/internal/domain/services"
)

func newPersonalizationService(t *testing.T, handler http.HandlerFunc) (*PersonalizationService, *PreferenceService, *GeoService) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	deps := newTestDeps(t, server)
	prefs := NewPreferenceService(deps.client, deps.store, deps.logger, deps.broadcaster, 4)
	geoSvc := NewGeoService(deps.client, deps.store, deps.logger, deps.perfTracker, deps.broadcaster, idleGeoConfig())

	scorer := domainservices.NewPersonalizationScorer("counties", 100)
	svc := NewPersonalizationService(deps.client, scorer, prefs, geoSvc, deps.store, deps.logger, deps.perfTracker,
		PersonalizationServiceConfig{PageLimit: 2, MaxPages: 3})
	require.NoError(t, svc.Load())
	return svc, prefs, geoSvc
}

func writeArticles(w http.ResponseWriter, articles []content.Article) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(articles)
}

func TestBuildFeedMergesDeduplicatesAndRanks(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)

	pages := map[int][]content.Article{
		1: {
			{ID: "a-1", Title: "Budget debate", CategorySlug: "politics", PublishedAt: old, TrendingScore: 10},
			{ID: "a-2", Title: "Transfer news", CategorySlug: "football", PublishedAt: old, TrendingScore: 400},
		},
		2: {
			// Overlap with page 1: same article repeated.
			{ID: "a-2", Title: "Transfer news", CategorySlug: "football", PublishedAt: old, TrendingScore: 400},
			{ID: "a-3", Title: "County roads", CategorySlug: "counties", PublishedAt: old, TrendingScore: 200},
		},
		3: {
			{ID: "a-4", Title: "Startup funding", CategorySlug: "startups", PublishedAt: old, TrendingScore: 50},
		},
	}

	svc, prefs, _ := newPersonalizationService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/content" {
			http.NotFound(w, r)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		writeArticles(w, pages[page])
	})

	require.True(t, prefs.SetMainGroup(preferences.GroupSports).Success)

	ranked, err := svc.BuildFeed(context.Background(), now, 0)
	require.NoError(t, err)

	require.Len(t, ranked, 4)
	assert.Equal(t, "a-2", ranked[0].ID)

	seen := map[string]bool{}
	for _, a := range ranked {
		assert.False(t, seen[a.ID], "article %s appears twice", a.ID)
		seen[a.ID] = true
	}
}

func TestBuildFeedStopsOnShortPage(t *testing.T) {
	var pagesServed int
	svc, _, _ := newPersonalizationService(t, func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		// One article against a page limit of two ends the fetch.
		writeArticles(w, []content.Article{{ID: "only", Title: "Only story", CategorySlug: "politics"}})
	})

	ranked, err := svc.BuildFeed(context.Background(), time.Now(), 0)
	require.NoError(t, err)
	assert.Len(t, ranked, 1)
	assert.Equal(t, 1, pagesServed)
}

func TestBuildFeedFirstPageFailureIsFatal(t *testing.T) {
	svc, _, _ := newPersonalizationService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.BuildFeed(context.Background(), time.Now(), 0)
	assert.Error(t, err)
}

func TestRecordVisitFeedsSignalsAndPersists(t *testing.T) {
	svc, _, _ := newPersonalizationService(t, func(w http.ResponseWriter, r *http.Request) {
		writeArticles(w, nil)
	})

	for i := 0; i < 3; i++ {
		svc.RecordVisit("football")
	}
	svc.RecordVisit("")

	sig := svc.Signals()
	assert.Equal(t, 3, sig.Visits["football"])
	assert.NotContains(t, sig.Visits, "")
}

func TestSignalsIncludeGeoLocation(t *testing.T) {
	svc, _, geoSvc := newPersonalizationService(t, func(w http.ResponseWriter, r *http.Request) {
		writeArticles(w, nil)
	})

	require.NoError(t, geoSvc.Start(context.Background()))
	t.Cleanup(func() { geoSvc.Stop(context.Background()) })

	geoSvc.UpdateLocation(context.Background(), geo.Location{County: "Nairobi", Town: "Westlands"})

	sig := svc.Signals()
	assert.Equal(t, "Nairobi", sig.Location.County)
}

func TestSectionsFollowPreferenceOrder(t *testing.T) {
	svc, prefs, _ := newPersonalizationService(t, func(w http.ResponseWriter, r *http.Request) {
		writeArticles(w, nil)
	})

	require.True(t, prefs.SetMainGroup(preferences.GroupSports).Success)

	sections := svc.Sections()
	require.Len(t, sections, 9)
	assert.Equal(t, "sports", sections[0].Slug)
	assert.Equal(t, -1000, sections[0].SortKey)
}
