package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/HabariMedia/newsroom-go/internal/domain/entities/content"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/preferences"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/backend"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/messaging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/persistence/localstore"
)

// PreferenceResult reports the outcome of a selection mutation. Validation
// failures are expected outcomes: Success is false, Error carries the
// user-facing reason, and the selection is unchanged.
type PreferenceResult struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	State   preferences.State `json:"state"`
}

// PreferenceService owns the two-level category funnel: one main group,
// then a bounded ordered sub-selection restricted to that group's slugs.
// Category reference data comes from the backend; the selection itself is
// local state.
type PreferenceService struct {
	client         *backend.Client
	store          *localstore.Store
	logger         *logging.ChanneledLogger
	broadcaster    *messaging.Broadcaster
	selectionLimit int

	mu           sync.Mutex
	state        preferences.State
	categoryByID map[string]content.Category
	categories   []content.Category
}

// NewPreferenceService creates a preference service. Call Load before use.
func NewPreferenceService(client *backend.Client, store *localstore.Store, logger *logging.ChanneledLogger, broadcaster *messaging.Broadcaster, selectionLimit int) *PreferenceService {
	return &PreferenceService{
		client:         client,
		store:          store,
		logger:         logger,
		broadcaster:    broadcaster,
		selectionLimit: selectionLimit,
		state:          preferences.State{SelectedCategoryIDs: []string{}},
		categoryByID:   make(map[string]content.Category),
	}
}

// Load restores the persisted selection and category cache, then refreshes
// category reference data from the backend. A backend failure keeps the
// cached categories and is not fatal: validation still runs against the
// last known reference data.
func (p *PreferenceService) Load(ctx context.Context) error {
	state, err := p.store.LoadPreferences()
	if err != nil {
		return err
	}

	cached, err := p.store.LoadCategories()
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.state = state
	p.setCategoriesLocked(cached)
	p.mu.Unlock()

	categories, err := p.client.FetchCategories(ctx)
	if err != nil {
		p.logger.Prefs().Warn("Category refresh failed, using cached reference data", "error", err)
		return nil
	}

	p.mu.Lock()
	p.setCategoriesLocked(categories)
	p.mu.Unlock()

	if err := p.store.SaveCategories(categories); err != nil {
		p.logger.Prefs().Error("Failed to cache categories", "error", err)
	}

	p.logger.Prefs().Info("Preferences loaded",
		"mainGroup", string(state.MainGroup),
		"selected", len(state.SelectedCategoryIDs),
		"categories", len(categories))
	return nil
}

func (p *PreferenceService) setCategoriesLocked(categories []content.Category) {
	p.categories = categories
	p.categoryByID = make(map[string]content.Category, len(categories))
	for _, c := range categories {
		p.categoryByID[c.ID] = c
	}
}

// Categories returns the cached category reference data.
func (p *PreferenceService) Categories() []content.Category {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]content.Category(nil), p.categories...)
}

// Snapshot returns a copy of the current selection.
func (p *PreferenceService) Snapshot() preferences.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

// SetMainGroup selects the main category group. A successful set always
// resets the sub-selection to empty, including when the same group is
// selected again: the funnel restarts from the top.
func (p *PreferenceService) SetMainGroup(key preferences.GroupKey) *PreferenceResult {
	if !preferences.KnownGroup(key) {
		return p.failure(fmt.Sprintf("unknown category group: %s", key))
	}

	p.mu.Lock()
	p.state.MainGroup = key
	p.state.SelectedCategoryIDs = []string{}
	state := p.state.Clone()
	p.mu.Unlock()

	p.commit(state)
	p.logger.Prefs().Info("Main group set", "group", string(key))
	return &PreferenceResult{Success: true, State: state}
}

// ToggleSubCategory adds or removes one sub-category. Validation runs in a
// fixed order so the caller always gets the same reason for the same
// state: main group first, then group membership, then the selection
// limit. Toggling twice always restores the original selection.
func (p *PreferenceService) ToggleSubCategory(id string) *PreferenceResult {
	p.mu.Lock()

	if p.state.Selected(id) {
		kept := p.state.SelectedCategoryIDs[:0]
		for _, sel := range p.state.SelectedCategoryIDs {
			if sel != id {
				kept = append(kept, sel)
			}
		}
		p.state.SelectedCategoryIDs = kept
		state := p.state.Clone()
		p.mu.Unlock()

		p.commit(state)
		p.logger.Prefs().Info("Sub-category removed", "categoryId", id)
		return &PreferenceResult{Success: true, State: state}
	}

	if reason := p.disabledReasonLocked(id); reason != "" {
		p.mu.Unlock()
		return p.failure(reason)
	}

	p.state.SelectedCategoryIDs = append(p.state.SelectedCategoryIDs, id)
	state := p.state.Clone()
	p.mu.Unlock()

	p.commit(state)
	p.logger.Prefs().Info("Sub-category added", "categoryId", id, "selected", len(state.SelectedCategoryIDs))
	return &PreferenceResult{Success: true, State: state}
}

// IsSubCategoryDisabled reports whether toggling id on would be rejected.
// Always consistent with DisabledReason: disabled exactly when the reason
// is non-empty.
func (p *PreferenceService) IsSubCategoryDisabled(id string) bool {
	return p.DisabledReason(id) != ""
}

// DisabledReason returns the user-facing reason id cannot be selected, or
// "" when it can. An already selected id is never disabled: toggling it
// removes it.
func (p *PreferenceService) DisabledReason(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Selected(id) {
		return ""
	}
	return p.disabledReasonLocked(id)
}

func (p *PreferenceService) disabledReasonLocked(id string) string {
	if _, known := p.categoryByID[id]; !known {
		return "category not found"
	}
	if p.state.MainGroup == "" {
		return "select a main category group first"
	}
	if !preferences.GroupAllows(p.state.MainGroup, p.slugForLocked(id)) {
		return fmt.Sprintf("category belongs to a different group than %s", p.state.MainGroup)
	}
	if len(p.state.SelectedCategoryIDs) >= p.selectionLimit {
		return fmt.Sprintf("selection limit of %d reached", p.selectionLimit)
	}
	return ""
}

// PrimaryCategory returns the strongest preference signal: the first
// selected sub-category's slug, falling back to the main group slug.
func (p *PreferenceService) PrimaryCategory() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.state.SelectedCategoryIDs) > 0 {
		return p.slugForLocked(p.state.SelectedCategoryIDs[0])
	}
	return string(p.state.MainGroup)
}

// PreferredSlugs returns the ordered preference slugs for ranking: the
// selected sub-categories in insertion order, then the main group slug
// when one is set and not already present.
func (p *PreferenceService) PreferredSlugs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	slugs := make([]string, 0, len(p.state.SelectedCategoryIDs)+1)
	for _, id := range p.state.SelectedCategoryIDs {
		if slug := p.slugForLocked(id); slug != "" {
			slugs = append(slugs, slug)
		}
	}

	group := string(p.state.MainGroup)
	if group != "" {
		present := false
		for _, s := range slugs {
			if s == group {
				present = true
				break
			}
		}
		if !present {
			slugs = append(slugs, group)
		}
	}
	return slugs
}

// slugForLocked resolves a category id to its slug. Selected ids always
// resolve because toggling validates existence against the category cache
// before admitting them.
func (p *PreferenceService) slugForLocked(id string) string {
	if c, ok := p.categoryByID[id]; ok {
		return c.Slug
	}
	return ""
}

func (p *PreferenceService) commit(state preferences.State) {
	if err := p.store.SavePreferences(state); err != nil {
		p.logger.Prefs().Error("Failed to persist preferences", "error", err)
	}
	p.broadcaster.Publish(messaging.TopicPreferences, state)
}

func (p *PreferenceService) failure(reason string) *PreferenceResult {
	p.logger.Prefs().Warn("Preference mutation rejected", "reason", reason)
	return &PreferenceResult{Success: false, Error: reason, State: p.Snapshot()}
}
