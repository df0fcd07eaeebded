package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolhub/internal/config"
	"github.com/yigit/schoolhub/internal/pkg/helpers"
)

const connectTimeout = 10 * time.Second

// PostgresDB holds the pgx pool behind the postgres repositories
type PostgresDB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// PoolConfig builds the pgxpool settings from the database section of cfg.
// Unset or malformed durations fall back to the defaults.
func PoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetPostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgxpool config: %w", err)
	}

	if cfg.Database.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	}
	minConns := int32(cfg.Database.MaxIdleConns)
	if minConns > poolConfig.MaxConns {
		minConns = poolConfig.MaxConns
	}
	poolConfig.MinConns = minConns

	poolConfig.MaxConnLifetime = helpers.ParseDuration(cfg.Database.ConnMaxLifetime, time.Hour)
	poolConfig.MaxConnIdleTime = helpers.ParseDuration(cfg.Database.ConnMaxIdleTime, 30*time.Minute)
	poolConfig.HealthCheckPeriod = helpers.ParseDuration(cfg.Database.HealthCheck, time.Minute)
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	if cfg.Database.ApplicationName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = cfg.Database.ApplicationName
	}
	return poolConfig, nil
}

// NewPostgresDB opens the pool and checks it with a ping
func NewPostgresDB(cfg *config.Config, lgr zerolog.Logger) (*PostgresDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}

	lgr.Info().
		Int32("maxConns", poolConfig.MaxConns).
		Int32("minConns", poolConfig.MinConns).
		Dur("maxConnLifetime", poolConfig.MaxConnLifetime).
		Msg("Postgres pool ready")

	return &PostgresDB{Pool: pool, logger: lgr}, nil
}

// Close closes the pool
func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// TxFunc runs inside a transaction opened by WithTransaction
type TxFunc func(ctx context.Context, tx pgx.Tx) error

// WithTransaction runs fn in a transaction. The transaction commits only when
// fn returns nil and is rolled back on error or panic.
func (db *PostgresDB) WithTransaction(ctx context.Context, fn TxFunc) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("Failed to roll back transaction")
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
