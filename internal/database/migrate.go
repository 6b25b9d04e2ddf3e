package database

import (
	"context"
	"embed"
	"fmt"

	"socialnest/internal/middleware"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationFS embed.FS

// gooseLogger routes goose output through the structured logger.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	middleware.Logger.Info(fmt.Sprintf(format, v...))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	middleware.Logger.Error(fmt.Sprintf(format, v...))
}

func prepareGoose(db *gorm.DB) error {
	goose.SetBaseFS(migrationFS)
	goose.SetLogger(gooseLogger{})
	return goose.SetDialect(db.Dialector.Name())
}

// MigrateUp applies every pending embedded migration.
func MigrateUp(ctx context.Context, db *gorm.DB) error {
	if err := prepareGoose(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *gorm.DB) error {
	if err := prepareGoose(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := goose.DownContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

// MigrationVersion reports the current schema version recorded by goose.
func MigrationVersion(ctx context.Context, db *gorm.DB) (int64, error) {
	if err := prepareGoose(db); err != nil {
		return 0, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, sqlDB)
}

// MigrationStatus logs applied and pending migrations.
func MigrationStatus(ctx context.Context, db *gorm.DB) error {
	if err := prepareGoose(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return goose.StatusContext(ctx, sqlDB, migrationsDir)
}
