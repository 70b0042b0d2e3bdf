package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/preferences"
)

var quiet = zerolog.New(io.Discard)

func TestOpenPreferences_Memory(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, ""} {
		repo, closeFn, err := openPreferences(context.Background(), config.PrefsConfig{Backend: backend}, quiet)
		require.NoError(t, err)
		defer closeFn()

		assert.IsType(t, &preferences.InMemoryRepository{}, repo)
		assert.NoError(t, repo.Ping(context.Background()))
	}
}

func TestOpenPreferences_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := config.PrefsConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "data", "prefs.db")}

	repo, closeFn, err := openPreferences(ctx, cfg, quiet)
	require.NoError(t, err)
	defer closeFn()

	store := dashboard.NewStore(dashboard.StoreConfig{})
	persister := preferencesPersister(repo, store, quiet)
	require.NoError(t, persister.Restore(ctx))
	persister.Start()

	store.SetSidebarCollapsed(true)

	saved, err := repo.Load(ctx, preferences.StorageKey)
	require.NoError(t, err)
	assert.True(t, saved.SidebarCollapsed)
}

func TestOpenPreferences_UnknownBackend(t *testing.T) {
	_, _, err := openPreferences(context.Background(), config.PrefsConfig{Backend: "etcd"}, quiet)
	assert.ErrorContains(t, err, `unknown preferences backend "etcd"`)
}

func TestBuildNotifiers_LogOnly(t *testing.T) {
	notifiers, closeFn := buildNotifiers(context.Background(), config.Config{}, quiet)
	defer closeFn()

	require.Len(t, notifiers, 1)
	assert.Equal(t, "log", notifiers[0].Name())
}
