package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverPgx    = "pgx"
	DriverSQLite = "sqlite"
)

type Config struct {
	Driver          string
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// Open connects the staging store. Postgres goes through a pgx pool wrapped
// for database/sql; sqlite is the embedded fallback for desktop deployments.
// The returned close function tears down both layers.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case DriverPgx:
		return openPgx(ctx, cfg, logger)
	case DriverSQLite:
		return openSQLite(ctx, cfg, logger)
	default:
		return nil, nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

func openPgx(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, func(), error) {
	logger.Info("connecting to database", "driver", DriverPgx)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "creditnexus"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, err
	}

	// Wrap the pool as *sql.DB
	db := stdlib.OpenDBFromPool(pool)
	closer := func() {
		_ = db.Close()
		pool.Close()
	}

	logger.Info("successfully connected to database", "driver", DriverPgx)
	return db, closer, nil
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, func(), error) {
	logger.Info("connecting to database", "driver", DriverSQLite, "dsn", cfg.DSN)
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		logger.Error("failed to open sqlite database", "error", err)
		return nil, nil, err
	}
	// modernc sqlite is single-writer; keep the pool at one connection.
	db.SetMaxOpenConns(1)

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		logger.Error("failed to ping sqlite database", "error", err)
		return nil, nil, err
	}

	logger.Info("successfully connected to database", "driver", DriverSQLite)
	return db, func() { _ = db.Close() }, nil
}

// HealthCheck verifies connectivity within timeout.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
