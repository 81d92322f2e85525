// Package backend opens the storage provider named in the config.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/byxorna/orderpane/pkg/config"
	"github.com/byxorna/orderpane/pkg/db"
	"github.com/byxorna/orderpane/pkg/db/fs"
	"github.com/byxorna/orderpane/pkg/db/sanity"
	"github.com/byxorna/orderpane/pkg/db/sqlite"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (db.Backend, error) {
	switch cfg.Backend {
	case config.BackendFS:
		store, err := fs.New(cfg.FS.Path, log)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendSQLite:
		path, err := homedir.Expand(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("error creating %s: %w", filepath.Dir(path), err)
		}
		store, err := sqlite.New(ctx, path, log)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendSanity:
		token, err := cfg.SanityToken()
		if err != nil {
			return nil, err
		}
		client, err := sanity.New(sanity.Settings{
			ProjectID:  cfg.Sanity.ProjectID,
			Dataset:    cfg.Sanity.Dataset,
			APIVersion: cfg.Sanity.APIVersion,
			Token:      token,
			BaseURL:    cfg.Sanity.BaseURL,
			RateLimit:  cfg.Sanity.RateLimit,
			Burst:      cfg.Sanity.Burst,
		}, nil, log)
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

// Seeder returns b as a db.Seeder if it can be loaded locally.
func Seeder(b db.Backend) (db.Seeder, error) {
	s, ok := b.(db.Seeder)
	if !ok {
		return nil, fmt.Errorf("backend %s cannot be seeded", b.Name())
	}
	return s, nil
}
