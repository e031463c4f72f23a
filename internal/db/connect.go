package db

import (
	"context"
	"fmt"
	"time"

	"referral_ledger/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Open creates a pool and pings it. A non-empty schema becomes the
// connection search_path.
func Open(ctx context.Context, dsn, schema string) (*pgxpool.Pool, error) {
	cfg, err := ParseConfig(dsn, schema)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// ParseConfig parses dsn into a pool config with search_path applied
func ParseConfig(dsn, schema string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
	return cfg, nil
}

func Connect(dsn, schema string) *pgxpool.Pool {
	pool, err := Open(context.Background(), dsn, schema)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}

	logger.Info("database connected", "schema", schema)
	return pool
}
