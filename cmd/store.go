package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recon-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "recon.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		if cfg.Store.DSN == "" {
			return nil, eris.New("store: postgres driver needs a DSN (store.dsn / RECON_STORE_DSN)")
		}
		return store.NewPostgres(ctx, cfg.Store.DSN, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
