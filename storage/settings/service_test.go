package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpix/photostore/database"
	"github.com/lumenpix/photostore/storage/api"
	"github.com/lumenpix/photostore/storage/config"
)

func newService(t *testing.T) (*Service, *SQLStore) {
	t.Helper()
	// A file-backed database: sqlite ":memory:" would give every pooled
	// connection its own empty schema.
	db, err := database.Open(database.DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewSQLStore(db)
	require.NoError(t, store.Init(context.Background()))
	return NewService(store), store
}

func TestInitializeDefaults_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	require.NoError(t, svc.InitializeDefaults(ctx))
	require.NoError(t, svc.InitializeDefaults(ctx))

	cfgs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cfgs, len(api.AllProviders()))

	for _, cfg := range cfgs {
		assert.False(t, cfg.Enabled, "defaults must start disabled: %s", cfg.Provider)
	}
}

func TestGetConfig_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.GetConfig(ctx, api.ProviderAwsS3)
	assert.ErrorIs(t, err, api.ErrConfigNotFound)
}

func TestIsProviderEnabled(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	assert.False(t, svc.IsProviderEnabled(ctx, api.ProviderLocal), "missing config reads as disabled")

	require.NoError(t, svc.InitializeDefaults(ctx))
	assert.False(t, svc.IsProviderEnabled(ctx, api.ProviderLocal))

	enabled := true
	require.NoError(t, svc.UpdateConfig(ctx, api.ProviderLocal, Patch{Enabled: &enabled}))
	assert.True(t, svc.IsProviderEnabled(ctx, api.ProviderLocal))
}

func TestUpdateConfig_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	require.NoError(t, svc.InitializeDefaults(ctx))

	// Warm the cache, then mutate. The read after the mutation must see
	// the new state immediately, not after TTL expiry.
	cfg, err := svc.GetConfig(ctx, api.ProviderLocal)
	require.NoError(t, err)
	require.False(t, cfg.Enabled)

	enabled := true
	name := "Primary Disk"
	require.NoError(t, svc.UpdateConfig(ctx, api.ProviderLocal, Patch{Enabled: &enabled, Name: &name}))

	cfg, err = svc.GetConfig(ctx, api.ProviderLocal)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "Primary Disk", cfg.Name)
}

func TestUpdateConfig_MissingDocument(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	enabled := true
	err := svc.UpdateConfig(ctx, api.ProviderMinio, Patch{Enabled: &enabled})
	assert.ErrorIs(t, err, api.ErrConfigNotFound, "update never creates documents")
}

func TestUpdateConfig_SettingsReplacedWholesale(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	require.NoError(t, svc.InitializeDefaults(ctx))

	require.NoError(t, svc.UpdateConfig(ctx, api.ProviderAwsS3, Patch{
		Settings: map[string]string{
			config.KeyAccessKeyID:     "AKIA123",
			config.KeySecretAccessKey: "secret",
			config.KeyBucket:          "photos",
		},
	}))

	cfg, err := svc.GetConfig(ctx, api.ProviderAwsS3)
	require.NoError(t, err)
	assert.Equal(t, "AKIA123", cfg.Settings[config.KeyAccessKeyID])
	assert.NotContains(t, cfg.Settings, config.KeyRegion, "old settings do not survive a replacement")
}

func TestActiveProviders(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	require.NoError(t, svc.InitializeDefaults(ctx))

	active, err := svc.ActiveProviders(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	enabled := true
	require.NoError(t, svc.UpdateConfig(ctx, api.ProviderLocal, Patch{Enabled: &enabled}))
	require.NoError(t, svc.UpdateConfig(ctx, api.ProviderMinio, Patch{Enabled: &enabled}))

	active, err = svc.ActiveProviders(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []api.ProviderID{api.ProviderLocal, api.ProviderMinio}, active)
}

func TestValidateConfig(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	require.NoError(t, svc.InitializeDefaults(ctx))

	// Disabled with empty credentials: both kinds of error reported.
	v := svc.ValidateConfig(ctx, api.ProviderAwsS3)
	assert.False(t, v.Valid)
	assert.Contains(t, v.Errors, "provider aws-s3 is not enabled")
	assert.Contains(t, v.Errors, "missing required field: accessKeyId")

	enabled := true
	require.NoError(t, svc.UpdateConfig(ctx, api.ProviderLocal, Patch{Enabled: &enabled}))
	v = svc.ValidateConfig(ctx, api.ProviderLocal)
	assert.True(t, v.Valid)
	assert.Empty(t, v.Errors)
}

func TestUpsertConfigs(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	cfg := config.ProviderConfig{
		Provider: api.ProviderLocal,
		Name:     "Disk",
		Enabled:  true,
		Settings: map[string]string{config.KeyBasePath: "/data/photos"},
	}
	require.NoError(t, svc.UpsertConfigs(ctx, []config.ProviderConfig{cfg}))

	stored, err := store.Get(ctx, api.ProviderLocal)
	require.NoError(t, err)
	assert.True(t, stored.Enabled)
	assert.Equal(t, "/data/photos", stored.Settings[config.KeyBasePath])

	// Second upsert replaces, not duplicates.
	cfg.Name = "Disk 2"
	require.NoError(t, svc.UpsertConfigs(ctx, []config.ProviderConfig{cfg}))
	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Disk 2", all[0].Name)
}
