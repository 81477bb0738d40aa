package manager

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpix/photostore/database"
	"github.com/lumenpix/photostore/storage/api"
	"github.com/lumenpix/photostore/storage/config"
	"github.com/lumenpix/photostore/storage/settings"
)

func newManager(t *testing.T) (*Manager, *settings.Service) {
	t.Helper()
	db, err := database.Open(database.DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := settings.NewSQLStore(db)
	require.NoError(t, store.Init(context.Background()))
	svc := settings.NewService(store)
	require.NoError(t, svc.InitializeDefaults(context.Background()))

	return New(svc, zerolog.Nop()), svc
}

func enableLocal(t *testing.T, svc *settings.Service, basePath string) {
	t.Helper()
	enabled := true
	require.NoError(t, svc.UpdateConfig(context.Background(), api.ProviderLocal, settings.Patch{
		Enabled:  &enabled,
		Settings: map[string]string{config.KeyBasePath: basePath},
	}))
}

func TestProvider_UnknownID(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Provider(context.Background(), api.ProviderID("dropbox"))
	assert.True(t, api.IsUnavailable(err))
}

func TestProvider_Disabled(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Provider(context.Background(), api.ProviderLocal)
	require.True(t, api.IsUnavailable(err))
	assert.Contains(t, err.Error(), "disabled")
}

func TestProvider_MissingRequiredFields(t *testing.T) {
	m, svc := newManager(t)

	enabled := true
	require.NoError(t, svc.UpdateConfig(context.Background(), api.ProviderAwsS3, settings.Patch{
		Enabled:  &enabled,
		Settings: map[string]string{config.KeyRegion: "us-east-1"},
	}))

	_, err := m.Provider(context.Background(), api.ProviderAwsS3)
	require.True(t, api.IsUnavailable(err))
	assert.Contains(t, err.Error(), "accessKeyId")
	assert.Contains(t, err.Error(), "bucketName")
}

func TestProvider_BuildsAndCaches(t *testing.T) {
	ctx := context.Background()
	m, svc := newManager(t)
	enableLocal(t, svc, t.TempDir())

	first, err := m.Provider(ctx, api.ProviderLocal)
	require.NoError(t, err)
	assert.Equal(t, api.ProviderLocal, first.ID())

	second, err := m.Provider(ctx, api.ProviderLocal)
	require.NoError(t, err)
	assert.Same(t, first, second, "adapter is reused until invalidated")
}

func TestInvalidate_RebuildsFromFreshConfig(t *testing.T) {
	ctx := context.Background()
	m, svc := newManager(t)
	enableLocal(t, svc, t.TempDir())

	first, err := m.Provider(ctx, api.ProviderLocal)
	require.NoError(t, err)

	m.Invalidate(api.ProviderLocal)

	second, err := m.Provider(ctx, api.ProviderLocal)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestInvalidate_SeesDisable(t *testing.T) {
	ctx := context.Background()
	m, svc := newManager(t)
	enableLocal(t, svc, t.TempDir())

	_, err := m.Provider(ctx, api.ProviderLocal)
	require.NoError(t, err)

	disabled := false
	require.NoError(t, svc.UpdateConfig(ctx, api.ProviderLocal, settings.Patch{Enabled: &disabled}))
	m.Invalidate(api.ProviderLocal)

	_, err = m.Provider(ctx, api.ProviderLocal)
	assert.True(t, api.IsUnavailable(err))
}

func TestTestConnection(t *testing.T) {
	ctx := context.Background()
	m, svc := newManager(t)
	enableLocal(t, svc, t.TempDir())

	ok, err := m.TestConnection(ctx, api.ProviderLocal)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = m.TestConnection(ctx, api.ProviderMinio)
	assert.True(t, api.IsUnavailable(err))
}
