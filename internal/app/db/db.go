/*
Package db owns the PostgreSQL connection pool, the embedded schema migrations and the Store
that serves menu, client, cart and order data together with the authoritative clock.
*/
package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"menupoll/internal/pkg/logx"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// PoolOptions sizes the connection pool. Zero values fall back to the defaults below.
type PoolOptions struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

const (
	defaultMaxConns = 25
	defaultMinConns = 5
)

// NewPool connects to PostgreSQL, verifies the connection and brings the schema up to date.
func NewPool(ctx context.Context, opts PoolOptions) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = defaultMaxConns
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	config.MinConns = min(defaultMinConns, config.MaxConns)
	if opts.MinConns > 0 {
		config.MinConns = min(opts.MinConns, config.MaxConns)
	}
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// Migrate applies every pending embedded migration through a goose provider bound to pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, r := range results {
		logx.Info("Migration applied.", "version", r.Source.Version, "duration", r.Duration.String())
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logx.Info("Database schema is up to date.", "version", version, "applied", len(results))
	return nil
}
