package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lumenpix/photostore/database"
	"github.com/lumenpix/photostore/storage/api"
	"github.com/lumenpix/photostore/storage/config"
)

const createConfigsTable = `
CREATE TABLE IF NOT EXISTS storage_configs (
	provider_id TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	is_enabled  INTEGER NOT NULL DEFAULT 0,
	settings    TEXT NOT NULL DEFAULT '{}',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
)`

// SQLStore persists configs as one document-style row per provider, with
// the provider-specific settings in a JSON column.
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Init creates the backing table if it does not exist.
func (s *SQLStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createConfigsTable)
	return database.WrapError("init storage_configs", err)
}

func (s *SQLStore) Get(ctx context.Context, provider api.ProviderID) (*config.ProviderConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT provider_id, name, is_enabled, settings, created_at, updated_at
		 FROM storage_configs WHERE provider_id = ?`, string(provider))

	cfg, err := scanConfig(row)
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("provider %s: %w", provider, api.ErrConfigNotFound)
	}
	if err != nil {
		return nil, database.WrapError("get storage config", err)
	}
	return cfg, nil
}

func (s *SQLStore) List(ctx context.Context) ([]config.ProviderConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider_id, name, is_enabled, settings, created_at, updated_at
		 FROM storage_configs ORDER BY provider_id`)
	if err != nil {
		return nil, database.WrapError("list storage configs", err)
	}
	defer rows.Close()

	var cfgs []config.ProviderConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, database.WrapError("scan storage config", err)
		}
		cfgs = append(cfgs, *cfg)
	}
	return cfgs, database.WrapError("list storage configs", rows.Err())
}

func (s *SQLStore) Update(ctx context.Context, provider api.ProviderID, patch Patch) error {
	current, err := s.Get(ctx, provider)
	if err != nil {
		return err
	}

	if patch.Name != nil {
		current.Name = *patch.Name
	}
	if patch.Enabled != nil {
		current.Enabled = *patch.Enabled
	}
	if patch.Settings != nil {
		current.Settings = patch.Settings
	}
	current.UpdatedAt = time.Now().UTC()

	settingsJSON, err := json.Marshal(current.Settings)
	if err != nil {
		return database.WrapError("encode settings", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE storage_configs SET name = ?, is_enabled = ?, settings = ?, updated_at = ?
		 WHERE provider_id = ?`,
		current.Name, boolToInt(current.Enabled), string(settingsJSON), current.UpdatedAt, string(provider))
	return database.WrapError("update storage config", err)
}

func (s *SQLStore) Upsert(ctx context.Context, cfgs []config.ProviderConfig) error {
	return database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		for _, cfg := range cfgs {
			settingsJSON, err := json.Marshal(cfg.Settings)
			if err != nil {
				return database.WrapError("encode settings", err)
			}
			now := time.Now().UTC()
			createdAt := cfg.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}

			res, err := tx.ExecContext(ctx,
				`UPDATE storage_configs SET name = ?, is_enabled = ?, settings = ?, updated_at = ?
				 WHERE provider_id = ?`,
				cfg.Name, boolToInt(cfg.Enabled), string(settingsJSON), now, string(cfg.Provider))
			if err != nil {
				return database.WrapError("upsert storage config", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return database.WrapError("upsert storage config", err)
			}
			if affected == 0 {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO storage_configs (provider_id, name, is_enabled, settings, created_at, updated_at)
					 VALUES (?, ?, ?, ?, ?, ?)`,
					string(cfg.Provider), cfg.Name, boolToInt(cfg.Enabled), string(settingsJSON), createdAt, now)
				if err != nil {
					return database.WrapError("upsert storage config", err)
				}
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (*config.ProviderConfig, error) {
	var (
		cfg          config.ProviderConfig
		provider     string
		enabled      int
		settingsJSON string
	)
	if err := row.Scan(&provider, &cfg.Name, &enabled, &settingsJSON, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		return nil, err
	}
	cfg.Provider = api.ProviderID(provider)
	cfg.Enabled = enabled != 0
	if err := json.Unmarshal([]byte(settingsJSON), &cfg.Settings); err != nil {
		return nil, fmt.Errorf("decode settings for %s: %w", provider, err)
	}
	return &cfg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
