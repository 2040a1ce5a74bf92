package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dropDatabas3/hellochat/internal/observability/logger"
	"github.com/dropDatabas3/hellochat/migrations/postgres"
)

// gooseLogger manda la salida de goose a zap.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) { logger.S().Infof(format, v...) }
func (gooseLogger) Fatalf(format string, v ...any) { logger.S().Fatalf(format, v...) }

func withGoose(s *Store, fn func(db *sql.DB) error) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("pg: goose dialect: %w", err)
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return fn(db)
}

// Migrate aplica todas las migraciones pendientes.
func (s *Store) Migrate(ctx context.Context) error {
	return withGoose(s, func(db *sql.DB) error {
		if err := goose.UpContext(ctx, db, migrations.Dir); err != nil {
			return fmt.Errorf("pg: migrate up: %w", err)
		}
		return nil
	})
}

// MigrateDown revierte la última migración.
func (s *Store) MigrateDown(ctx context.Context) error {
	return withGoose(s, func(db *sql.DB) error {
		if err := goose.DownContext(ctx, db, migrations.Dir); err != nil {
			return fmt.Errorf("pg: migrate down: %w", err)
		}
		return nil
	})
}

// MigrateStatus imprime (vía logger) el estado de cada migración.
func (s *Store) MigrateStatus(ctx context.Context) error {
	return withGoose(s, func(db *sql.DB) error {
		return goose.StatusContext(ctx, db, migrations.Dir)
	})
}
