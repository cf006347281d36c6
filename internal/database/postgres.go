// Package database opens the PostgreSQL pool used by the postgres storage
// driver.
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assistenteze/agro/internal/config"
)

const (
	connectTimeout    = 5 * time.Second
	maxConnIdleTime   = 30 * time.Second
	maxConnLifetime   = time.Hour
	healthCheckPeriod = time.Minute
	defaultSSLMode    = "disable"
)

// Database wraps the pgx connection pool backing the postgres storage driver.
type Database struct {
	Pool *pgxpool.Pool
}

// DSN builds the connection URL for cfg with escaped credentials.
func DSN(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// PoolConfig parses cfg into a pgxpool configuration without connecting.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pc.MinConns = int32(cfg.PoolMin)
	pc.MaxConns = int32(cfg.PoolMax)
	pc.ConnConfig.ConnectTimeout = connectTimeout
	pc.MaxConnIdleTime = maxConnIdleTime
	pc.MaxConnLifetime = maxConnLifetime
	pc.HealthCheckPeriod = healthCheckPeriod
	return pc, nil
}

// NewPostgresPool opens the pool and waits until the server answers a ping.
// Pings are retried with exponential backoff for up to cfg.ConnectWait, so
// the API may start before the database has finished booting.
func NewPostgresPool(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	wait := cfg.ConnectWait
	if wait <= 0 {
		wait = time.Second
	}

	ping := func() (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	}
	if _, err := backoff.Retry(ctx, ping,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(wait),
	); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database not reachable after %s: %w", wait, err)
	}

	return &Database{Pool: pool}, nil
}

// Ping checks if the database connection is alive.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close closes the pool. Safe to call more than once.
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Stats returns pool statistics, or nil when the pool is not open.
func (db *Database) Stats() *pgxpool.Stat {
	if db.Pool == nil {
		return nil
	}
	return db.Pool.Stat()
}
