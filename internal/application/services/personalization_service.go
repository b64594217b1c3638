package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/HabariMedia/newsroom-go/internal/domain/entities/content"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/preferences"
	domainservices "github.com/HabariMedia/newsroom-go/internal/domain/services"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/backend"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/performance"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/persistence/localstore"
)

// sectionOrder fixes the editorial home page order before personalization.
var sectionOrder = []preferences.GroupKey{
	preferences.GroupPolitics,
	preferences.GroupCounties,
	preferences.GroupBusiness,
	preferences.GroupSports,
	preferences.GroupEntertainment,
	preferences.GroupTechnology,
	preferences.GroupHealth,
	preferences.GroupOpinion,
	preferences.GroupLifestyle,
}

// PersonalizationServiceConfig bounds the feed fetch.
type PersonalizationServiceConfig struct {
	PageLimit int
	MaxPages  int
}

// PersonalizationService assembles the personalized feed: it pages content
// from the backend, merges and deduplicates it, snapshots the current
// preference, visit, and geo signals, and hands everything to the scorer.
// It also records the per-category visit counts that feed the visit boost.
type PersonalizationService struct {
	client      *backend.Client
	scorer      *domainservices.PersonalizationScorer
	prefs       *PreferenceService
	geo         *GeoService
	store       *localstore.Store
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	config      PersonalizationServiceConfig

	visitsMu sync.Mutex
	visits   map[string]int
}

// NewPersonalizationService creates a personalization service. Call Load
// before use.
func NewPersonalizationService(client *backend.Client, scorer *domainservices.PersonalizationScorer, prefs *PreferenceService, geo *GeoService, store *localstore.Store, logger *logging.ChanneledLogger, perfTracker *performance.Tracker, config PersonalizationServiceConfig) *PersonalizationService {
	return &PersonalizationService{
		client:      client,
		scorer:      scorer,
		prefs:       prefs,
		geo:         geo,
		store:       store,
		logger:      logger,
		perfTracker: perfTracker,
		config:      config,
		visits:      map[string]int{},
	}
}

// Load restores the persisted visit counts.
func (p *PersonalizationService) Load() error {
	visits, err := p.store.LoadVisits()
	if err != nil {
		return err
	}

	p.visitsMu.Lock()
	p.visits = visits
	p.visitsMu.Unlock()
	return nil
}

// RecordVisit counts one visit to a category slug.
func (p *PersonalizationService) RecordVisit(slug string) {
	if slug == "" {
		return
	}

	p.visitsMu.Lock()
	p.visits[slug]++
	snapshot := make(map[string]int, len(p.visits))
	for k, v := range p.visits {
		snapshot[k] = v
	}
	p.visitsMu.Unlock()

	if err := p.store.SaveVisits(snapshot); err != nil {
		p.logger.Personalization().Error("Failed to persist visit counts", "error", err)
	}
}

// Signals snapshots the current personalization inputs. The returned value
// is independent of manager state so a ranking pass sees one consistent
// view.
func (p *PersonalizationService) Signals() domainservices.Signals {
	sig := domainservices.Signals{
		PreferredSlugs: p.prefs.PreferredSlugs(),
		Visits:         map[string]int{},
	}

	p.visitsMu.Lock()
	for k, v := range p.visits {
		sig.Visits[k] = v
	}
	p.visitsMu.Unlock()

	if sess := p.geo.Snapshot(); sess != nil {
		sig.Location = sess.Location
	}
	return sig
}

// BuildFeed fetches up to maxPages pages of content (0 means the
// configured default, higher values are clamped to it), deduplicates the
// merged list, and returns it ranked. A short page ends the fetch early.
func (p *PersonalizationService) BuildFeed(ctx context.Context, now time.Time, maxPages int) ([]content.RankedArticle, error) {
	marker := p.perfTracker.StartOperation("feed:build")
	defer marker.Complete()

	if maxPages <= 0 || maxPages > p.config.MaxPages {
		maxPages = p.config.MaxPages
	}

	var merged []content.Article
	for page := 1; page <= maxPages; page++ {
		articles, err := p.client.FetchContent(ctx, page, p.config.PageLimit)
		if err != nil {
			if page == 1 {
				marker.SetError(err)
				return nil, err
			}
			// Later pages are best-effort; rank what we have.
			p.logger.Personalization().Warn("Feed page fetch failed, ranking partial feed",
				"page", page, "error", err)
			break
		}
		merged = append(merged, articles...)
		if len(articles) < p.config.PageLimit {
			break
		}
	}

	deduped := domainservices.DeduplicateArticles(merged)
	ranked := p.scorer.RankArticles(deduped, p.Signals(), now)

	marker.AddMetadata("fetched", len(merged))
	marker.AddMetadata("ranked", len(ranked))
	p.logger.Personalization().Info("Feed built",
		"fetched", len(merged),
		"deduplicated", len(merged)-len(deduped),
		"ranked", len(ranked))
	return ranked, nil
}

// Sections returns the home page sections in personalized order.
func (p *PersonalizationService) Sections() []content.RankedSection {
	sections := make([]content.Section, 0, len(sectionOrder))
	for i, key := range sectionOrder {
		sections = append(sections, content.Section{
			Slug:       string(key),
			Title:      sectionTitle(string(key)),
			OrderIndex: i,
		})
	}
	return p.scorer.ReorderSections(sections, p.Signals())
}

func sectionTitle(slug string) string {
	if slug == "" {
		return ""
	}
	return strings.ToUpper(slug[:1]) + slug[1:]
}
