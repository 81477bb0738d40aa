// Package settings is the configuration service for storage providers:
// persistent CRUD over per-provider config documents, fronted by an
// in-memory TTL cache so storage operations avoid a database round-trip.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/lumenpix/photostore/storage/api"
	"github.com/lumenpix/photostore/storage/config"
)

// DefaultCacheTTL is how long cached configs stay valid without an
// explicit invalidation.
const DefaultCacheTTL = 5 * time.Minute

const cacheKeyAll = "configs:all"

// Service provides cached access to provider configurations.
type Service struct {
	store  Store
	cache  *cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

type Option func(*Service)

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		ttl:    DefaultCacheTTL,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = cache.New(s.ttl, 2*s.ttl)
	s.logger = s.logger.With().Str("component", "storage-settings").Logger()
	return s
}

func cacheKey(provider api.ProviderID) string {
	return "config:" + string(provider)
}

// GetConfig returns the stored config for provider, or an error wrapping
// api.ErrConfigNotFound.
func (s *Service) GetConfig(ctx context.Context, provider api.ProviderID) (*config.ProviderConfig, error) {
	if cached, ok := s.cache.Get(cacheKey(provider)); ok {
		cfg := cached.(config.ProviderConfig)
		return &cfg, nil
	}

	cfg, err := s.store.Get(ctx, provider)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cacheKey(provider), *cfg, s.ttl)
	return cfg, nil
}

// GetAllConfigs returns every stored provider config.
func (s *Service) GetAllConfigs(ctx context.Context) ([]config.ProviderConfig, error) {
	if cached, ok := s.cache.Get(cacheKeyAll); ok {
		return cached.([]config.ProviderConfig), nil
	}

	cfgs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cacheKeyAll, cfgs, s.ttl)
	for _, cfg := range cfgs {
		s.cache.Set(cacheKey(cfg.Provider), cfg, s.ttl)
	}
	return cfgs, nil
}

// ActiveProviders returns the ids of every enabled provider.
func (s *Service) ActiveProviders(ctx context.Context) ([]api.ProviderID, error) {
	cfgs, err := s.GetAllConfigs(ctx)
	if err != nil {
		return nil, err
	}
	var active []api.ProviderID
	for _, cfg := range cfgs {
		if cfg.Enabled {
			active = append(active, cfg.Provider)
		}
	}
	return active, nil
}

// IsProviderEnabled never fails: a missing config or store error reads as
// disabled, since callers use this for soft feature checks.
func (s *Service) IsProviderEnabled(ctx context.Context, provider api.ProviderID) bool {
	cfg, err := s.GetConfig(ctx, provider)
	if err != nil {
		if !errors.Is(err, api.ErrConfigNotFound) {
			s.logger.Warn().Err(err).Str("provider", string(provider)).Msg("enabled check failed")
		}
		return false
	}
	return cfg.Enabled
}

// UpdateConfig applies a partial update to an existing config. It fails
// with api.ErrConfigNotFound if no document exists.
func (s *Service) UpdateConfig(ctx context.Context, provider api.ProviderID, patch Patch) error {
	if err := s.store.Update(ctx, provider, patch); err != nil {
		return err
	}
	// Flush everything rather than patching entries: config reads are
	// infrequent relative to uploads, so correctness wins.
	s.cache.Flush()
	s.logger.Info().Str("provider", string(provider)).Msg("storage config updated")
	return nil
}

// UpsertConfigs creates or replaces the given configs in bulk.
func (s *Service) UpsertConfigs(ctx context.Context, cfgs []config.ProviderConfig) error {
	if err := s.store.Upsert(ctx, cfgs); err != nil {
		return err
	}
	s.cache.Flush()
	s.logger.Info().Int("count", len(cfgs)).Msg("storage configs upserted")
	return nil
}

// InitializeDefaults inserts a safe default config for every provider id
// missing from the store. Idempotent; called once at startup.
func (s *Service) InitializeDefaults(ctx context.Context) error {
	defaults, err := config.LoadDefaults()
	if err != nil {
		return fmt.Errorf("load storage defaults: %w", err)
	}

	var missing []config.ProviderConfig
	for _, cfg := range config.DefaultConfigs(defaults) {
		_, err := s.store.Get(ctx, cfg.Provider)
		if errors.Is(err, api.ErrConfigNotFound) {
			missing = append(missing, cfg)
			continue
		}
		if err != nil {
			return err
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := s.store.Upsert(ctx, missing); err != nil {
		return err
	}
	s.cache.Flush()
	for _, cfg := range missing {
		s.logger.Info().Str("provider", string(cfg.Provider)).Msg("initialized default storage config")
	}
	return nil
}

// Validation is the outcome of a provider config check.
type Validation struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
}

// ValidateConfig runs the provider-specific required-field checks. A
// disabled provider is always invalid, with an explicit "not enabled"
// error alongside any missing-field errors.
func (s *Service) ValidateConfig(ctx context.Context, provider api.ProviderID) Validation {
	cfg, err := s.GetConfig(ctx, provider)
	if err != nil {
		return Validation{Valid: false, Errors: []string{err.Error()}}
	}

	var errs []string
	if !cfg.Enabled {
		errs = append(errs, fmt.Sprintf("provider %s is not enabled", provider))
	}
	for _, key := range cfg.MissingSettings() {
		errs = append(errs, fmt.Sprintf("missing required field: %s", key))
	}
	return Validation{Valid: len(errs) == 0, Errors: errs}
}

// InvalidateCache drops every cached config immediately.
func (s *Service) InvalidateCache() {
	s.cache.Flush()
}
