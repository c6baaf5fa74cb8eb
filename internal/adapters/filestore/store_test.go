package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/preferences"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "preferences.json")
	store, err := NewStore(path, nil)
	require.NoError(t, err)
	return store, path
}

func TestStoreRoundTrip(t *testing.T) {
	store, path := newStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "themeMode")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "themeMode", "dark"))
	value, ok, err := store.Get(ctx, "themeMode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", value)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerms), info.Mode().Perm())

	// новое значение видно другому экземпляру на том же файле
	reopened, err := NewStore(path, nil)
	require.NoError(t, err)
	value, ok, err = reopened.Get(ctx, "themeMode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", value)

	require.NoError(t, store.Delete(ctx, "themeMode"))
	require.NoError(t, store.Delete(ctx, "themeMode"))
	_, ok, err = store.Get(ctx, "themeMode")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreAcceptsHandEditedFile(t *testing.T) {
	store, path := newStore(t)
	content := "{\n  // выбранная тема\n  \"themeMode\": \"light\",\n}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	value, ok, err := store.Get(context.Background(), "themeMode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", value)
}

func TestStoreIgnoresCorruptFile(t *testing.T) {
	store, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o600))
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "filterPresets")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "filterPresets", "{}"))
	value, _, err := store.Get(ctx, "filterPresets")
	require.NoError(t, err)
	assert.Equal(t, "{}", value)
}

func TestStoreBacksPresets(t *testing.T) {
	store, _ := newStore(t)
	presets := preferences.NewPresetStore(store)
	ctx := context.Background()

	state := domain.DefaultFilterState().WithStatuses([]domain.Status{domain.StatusPending})
	require.NoError(t, presets.Save(ctx, "Срочные", state))

	names, err := presets.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Срочные"}, names)

	query, err := presets.Load(ctx, "Срочные")
	require.NoError(t, err)
	assert.Equal(t, "status=pending", query)
}

func TestNewStoreRequiresPath(t *testing.T) {
	_, err := NewStore("", nil)
	assert.Error(t, err)
}
