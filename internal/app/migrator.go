package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator wraps goose over the shared pgx pool.
type Migrator struct {
	db             *sql.DB
	migrationsPath string
	logger         *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	// Goose works with *sql.DB, so open one on top of the pool.
	db := stdlib.OpenDBFromPool(pool)

	return &Migrator{
		db:             db,
		migrationsPath: migrationsPath,
		logger:         logger,
	}, nil
}

// Run applies all pending migrations.
func (mg *Migrator) Run(ctx context.Context) error {
	mg.logger.Info("Applying database migrations", zap.String("path", mg.migrationsPath))

	if err := goose.UpContext(ctx, mg.db, mg.migrationsPath); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	mg.logger.Info("Migrations applied")
	return nil
}

// Version reports the current migration version.
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close closes the migrator's sql.DB but not the underlying pool.
func (mg *Migrator) Close() error {
	if mg.db != nil {
		return mg.db.Close()
	}
	return nil
}
