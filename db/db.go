package db

import (
	"context"
	"fmt"
	"time"

	"food-preorder/config"
	"food-preorder/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the shared connection pool for the self-hosted Postgres
// backend. Deployments against the hosted platform never initialize it.
var Pool *pgxpool.Pool

func Init(cfg config.DBConfig) error {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	Pool = pool
	return nil
}

// Open connects, applies migrations, and returns the document store
// backed by the pool. This is the entry point for self-hosted
// deployments; hosted ones use store.NewRemote instead.
func Open(ctx context.Context, cfg config.DBConfig) (store.Store, error) {
	if err := Init(cfg); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, Pool); err != nil {
		Close()
		return nil, err
	}
	return store.NewPostgres(Pool), nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
	}
}
