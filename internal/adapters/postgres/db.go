package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB owns the shared pgx pool used by every repository.
type DB struct {
	Pool *pgxpool.Pool
}

// Option adjusts the pool configuration before connecting.
type Option func(*pgxpool.Config)

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) Option {
	return func(cfg *pgxpool.Config) { cfg.MaxConns = n }
}

// WithApplicationName tags connections in pg_stat_activity.
func WithApplicationName(name string) Option {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.RuntimeParams["application_name"] = name
	}
}

// WithSlowQueryLog logs every statement slower than threshold.
func WithSlowQueryLog(threshold time.Duration) Option {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = slowQueryTracer{threshold: threshold}
	}
}

// New connects and pings. Writes are rare and small, so the pool defaults to
// a handful of connections.
func New(ctx context.Context, dsn string, opts ...Option) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute
	for _, o := range opts {
		o(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

// Stat snapshots pool usage for the metrics reporter.
func (db *DB) Stat() *pgxpool.Stat { return db.Pool.Stat() }

func (db *DB) Close() { db.Pool.Close() }

type queryStartKey struct{}

type queryStart struct {
	at  time.Time
	sql string
}

type slowQueryTracer struct {
	threshold time.Duration
}

func (t slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: time.Now(), sql: data.SQL})
}

func (t slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	if took := time.Since(start.at); took >= t.threshold {
		slog.WarnContext(ctx, "slow query",
			"sql", start.sql,
			"duration", took,
			"rows", data.CommandTag.RowsAffected(),
			"error", data.Err,
		)
	}
}
