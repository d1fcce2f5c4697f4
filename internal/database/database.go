package database

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/frahmantamala/rti-filing/internal"
)

const driverName = "pgx"

// DB owns the process-wide connection pool. Gorm runs on the same *sql.DB
// as sqlx, so pool limits apply to both.
type DB struct {
	SQL  *sqlx.DB
	Gorm *gorm.DB
}

type Options struct {
	Tracing bool
	Logger  *slog.Logger
}

func Open(ctx context.Context, cfg internal.DatabaseConfig, opts Options) (*DB, error) {
	sqlDB, err := sqlx.Open(driverName, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// close underlying *sql.DB on failure
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	if opts.Tracing {
		if err := gdb.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to install gorm tracing: %w", err)
		}
	}

	if opts.Logger != nil {
		opts.Logger.Info("database connected",
			"max_open_conns", cfg.MaxOpenConns,
			"max_idle_conns", cfg.MaxIdleConns,
			"tracing", opts.Tracing)
	}

	return &DB{SQL: sqlDB, Gorm: gdb}, nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.SQL.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.SQL.Close()
}
