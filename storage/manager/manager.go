// Package manager resolves provider ids to initialized storage adapters.
// It is the sole entry point upload callers use: they never construct
// adapters directly and never see backend SDK types.
package manager

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lumenpix/photostore/storage/adapters/googledrive"
	"github.com/lumenpix/photostore/storage/adapters/local"
	"github.com/lumenpix/photostore/storage/adapters/minio"
	"github.com/lumenpix/photostore/storage/adapters/s3"
	"github.com/lumenpix/photostore/storage/api"
	"github.com/lumenpix/photostore/storage/config"
	"github.com/lumenpix/photostore/storage/settings"
)

// Manager owns adapter lifecycle. Adapters are stateless per call and safe
// for concurrent use, so one instance per provider is built and cached
// until its config changes.
type Manager struct {
	settings *settings.Service
	logger   zerolog.Logger

	mu       sync.Mutex
	adapters map[api.ProviderID]api.StorageProvider
}

func New(svc *settings.Service, logger zerolog.Logger) *Manager {
	return &Manager{
		settings: svc,
		logger:   logger.With().Str("component", "storage-manager").Logger(),
		adapters: make(map[api.ProviderID]api.StorageProvider),
	}
}

// Provider returns an initialized adapter for the given provider id. It
// fails with *api.UnavailableError if the provider is unknown, has no
// stored config, is disabled, or fails validation.
func (m *Manager) Provider(ctx context.Context, id api.ProviderID) (api.StorageProvider, error) {
	if !id.Valid() {
		return nil, &api.UnavailableError{Provider: id, Reason: "unknown provider id"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if adapter, ok := m.adapters[id]; ok {
		return adapter, nil
	}

	cfg, err := m.settings.GetConfig(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrConfigNotFound) {
			return nil, &api.UnavailableError{Provider: id, Reason: "no configuration stored"}
		}
		return nil, err
	}
	if !cfg.Enabled {
		return nil, &api.UnavailableError{Provider: id, Reason: "provider is disabled"}
	}
	if missing := cfg.MissingSettings(); len(missing) > 0 {
		return nil, &api.UnavailableError{
			Provider: id,
			Reason:   "missing required fields: " + strings.Join(missing, ", "),
		}
	}

	adapter, err := buildAdapter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m.adapters[id] = adapter
	m.logger.Info().Str("provider", string(id)).Msg("storage adapter initialized")
	return adapter, nil
}

func buildAdapter(ctx context.Context, cfg *config.ProviderConfig) (api.StorageProvider, error) {
	switch cfg.Provider {
	case api.ProviderLocal:
		return local.New(cfg.Local())
	case api.ProviderAwsS3:
		return s3.New(ctx, cfg.S3())
	case api.ProviderMinio:
		return minio.New(cfg.Minio())
	case api.ProviderGoogleDrive:
		return googledrive.New(ctx, cfg.Drive())
	default:
		return nil, &api.UnavailableError{Provider: cfg.Provider, Reason: "unknown provider id"}
	}
}

// Invalidate drops the cached adapter for a provider, forcing the next
// Provider call to rebuild it from fresh config. Called after config
// mutations.
func (m *Manager) Invalidate(id api.ProviderID) {
	m.mu.Lock()
	delete(m.adapters, id)
	m.mu.Unlock()
}

// InvalidateAll drops every cached adapter.
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	m.adapters = make(map[api.ProviderID]api.StorageProvider)
	m.mu.Unlock()
}

// TestConnection resolves the provider and runs its reachability probe.
// Used by admin "test connection" actions.
func (m *Manager) TestConnection(ctx context.Context, id api.ProviderID) (bool, error) {
	adapter, err := m.Provider(ctx, id)
	if err != nil {
		return false, err
	}
	return adapter.ValidateConnection(ctx), nil
}
