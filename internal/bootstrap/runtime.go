// Package bootstrap wires the process-wide dependencies shared by the API
// server and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"socialnest/internal/cache"
	"socialnest/internal/config"
	"socialnest/internal/database"
	"socialnest/internal/middleware"
	"socialnest/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	ApplySchema bool
	// Seed, when set, runs after the schema is in place.
	Seed *seed.Options
}

// OptionsFromConfig derives the server's startup options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{ApplySchema: true}
	if cfg.SeedOnStart {
		seedOpts := seed.DefaultOptions()
		seedOpts.ScenarioFile = cfg.SeedScenario
		opts.Seed = &seedOpts
	}
	return opts
}

// InitRuntime connects to DB and Redis, brings the schema up to date and
// optionally seeds demo data. Redis is optional: a nil client disables the
// token denylist.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := Prepare(ctx, db, cfg, opts); err != nil {
		return nil, nil, err
	}

	cache.InitRedis(cfg.RedisURL)
	return db, cache.GetClient(), nil
}

// Prepare runs the schema and seed steps of InitRuntime against an open database.
func Prepare(ctx context.Context, db *gorm.DB, cfg *config.Config, opts Options) error {
	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if opts.Seed != nil {
		var users int64
		if err := db.WithContext(ctx).Table("users").Count(&users).Error; err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if users > 0 && !opts.Seed.ShouldClean {
			middleware.Logger.Info("Skipping seed, database already has users", slog.Int64("users", users))
			return nil
		}
		summary, err := seed.Seed(ctx, db, *opts.Seed)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		middleware.Logger.Info("Seeded demo data", slog.String("summary", summary.String()))
	}
	return nil
}
