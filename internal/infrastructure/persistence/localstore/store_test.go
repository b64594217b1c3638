package localstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HabariMedia/newsroom-go/internal/domain/entities/content"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/geo"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/preferences"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetMissingKey(t *testing.T) {
	store := openTestStore(t)

	_, found, err := store.Get("nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetOverwrites(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set("k", "first"))
	require.NoError(t, store.Set("k", "second"))

	value, found, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", value)
}

func TestDeviceIDStable(t *testing.T) {
	store := openTestStore(t)

	first, err := store.DeviceID()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := store.DeviceID()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGeoSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	missing, err := store.LoadGeoSession()
	require.NoError(t, err)
	assert.Nil(t, missing)

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	sess := geo.NewSession("01HZXEXAMPLE", now)
	sess.Location.County = "Nairobi"
	sess.Touch(now.Add(time.Minute))

	require.NoError(t, store.SaveGeoSession(sess))

	loaded, err := store.LoadGeoSession()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "01HZXEXAMPLE", loaded.SessionID)
	assert.Equal(t, "Nairobi", loaded.Location.County)
	assert.Equal(t, 1, loaded.VisitCount)
	assert.True(t, loaded.PendingSync)
}

func TestCategoriesRoundTrip(t *testing.T) {
	store := openTestStore(t)

	missing, err := store.LoadCategories()
	require.NoError(t, err)
	assert.Nil(t, missing)

	cats := []content.Category{
		{ID: "cat-1", Name: "Nairobi", Slug: "nairobi"},
		{ID: "cat-2", Name: "Football", Slug: "football"},
	}
	require.NoError(t, store.SaveCategories(cats))

	loaded, err := store.LoadCategories()
	require.NoError(t, err)
	assert.Equal(t, cats, loaded)
}

func TestPreferencesRoundTrip(t *testing.T) {
	store := openTestStore(t)

	empty, err := store.LoadPreferences()
	require.NoError(t, err)
	assert.Empty(t, empty.MainGroup)
	assert.NotNil(t, empty.SelectedCategoryIDs)

	state := preferences.State{
		MainGroup:           preferences.GroupCounties,
		SelectedCategoryIDs: []string{"cat-1", "cat-2"},
	}
	require.NoError(t, store.SavePreferences(state))

	loaded, err := store.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, preferences.GroupCounties, loaded.MainGroup)
	assert.Equal(t, []string{"cat-1", "cat-2"}, loaded.SelectedCategoryIDs)
}
