package settings

import (
	"context"

	"github.com/lumenpix/photostore/storage/api"
	"github.com/lumenpix/photostore/storage/config"
)

// Patch is a partial update to a provider config. Nil fields are left
// untouched; a non-nil Settings map replaces the stored settings wholesale.
type Patch struct {
	Name     *string           `json:"name,omitempty"`
	Enabled  *bool             `json:"isEnabled,omitempty"`
	Settings map[string]string `json:"config,omitempty"`
}

// Store persists provider configuration documents.
type Store interface {
	// Get returns the config for provider, or an error wrapping
	// api.ErrConfigNotFound if no document exists.
	Get(ctx context.Context, provider api.ProviderID) (*config.ProviderConfig, error)

	// List returns every stored config.
	List(ctx context.Context) ([]config.ProviderConfig, error)

	// Update applies a partial update. It fails with api.ErrConfigNotFound
	// if no document exists; there is no implicit upsert on update.
	Update(ctx context.Context, provider api.ProviderID, patch Patch) error

	// Upsert creates or replaces each given config.
	Upsert(ctx context.Context, cfgs []config.ProviderConfig) error
}
