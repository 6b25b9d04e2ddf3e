// Command socialctl runs schema migrations and seeds demo data.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"socialnest/internal/bootstrap"
	"socialnest/internal/config"
	"socialnest/internal/database"
	"socialnest/internal/seed"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// env resolves configuration and the database handle. Tests swap it out.
type env struct {
	loadConfig func() (*config.Config, error)
	connect    func(*config.Config) (*gorm.DB, error)
	out        io.Writer
}

func defaultEnv() *env {
	return &env{
		loadConfig: config.LoadConfig,
		connect:    database.Connect,
		out:        os.Stdout,
	}
}

func main() {
	if err := newRootCommand(defaultEnv()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "socialctl",
		Short:         "Operational tooling for the SocialNest backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand(e))
	cmd.AddCommand(newSeedCommand(e))
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (e *env) open() (*config.Config, *gorm.DB, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := e.connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newMigrateCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Embedded SQL migration operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	run := func(op func(ctx context.Context, db *gorm.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			_, db, err := e.open()
			if err != nil {
				return err
			}
			defer closeDB(db)
			return op(commandContext(cmd), db)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: run(func(ctx context.Context, db *gorm.DB) error {
			if err := database.MigrateUp(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "sql migrations applied")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: run(func(ctx context.Context, db *gorm.DB) error {
			if err := database.MigrateDown(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "rolled back one migration")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		RunE:  run(database.MigrationStatus),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: run(func(ctx context.Context, db *gorm.DB) error {
			v, err := database.MigrationVersion(ctx, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "schema version %d\n", v)
			return nil
		}),
	})
	return cmd
}

func newSeedCommand(e *env) *cobra.Command {
	opts := seed.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo users, follows, posts, likes and comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := e.open()
			if err != nil {
				return err
			}
			defer closeDB(db)
			if cfg.IsProduction() {
				return errors.New("refusing to seed a production database")
			}

			ctx := commandContext(cmd)
			if err := bootstrap.Prepare(ctx, db, cfg, bootstrap.Options{ApplySchema: true}); err != nil {
				return err
			}
			summary, err := seed.Seed(ctx, db, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "seeded %s\n", summary)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.NumUsers, "users", opts.NumUsers, "Number of users to create")
	cmd.Flags().IntVar(&opts.PostsPerUser, "posts-per-user", opts.PostsPerUser, "Posts created for each user")
	cmd.Flags().IntVar(&opts.FollowsPerUser, "follows-per-user", opts.FollowsPerUser, "Accounts each user follows")
	cmd.Flags().IntVar(&opts.LikesPerPost, "likes-per-post", opts.LikesPerPost, "Likes added to each post")
	cmd.Flags().IntVar(&opts.CommentsPerPost, "comments-per-post", opts.CommentsPerPost, "Comments added to each post")
	cmd.Flags().IntVar(&opts.MaxDays, "max-days", opts.MaxDays, "Spread post timestamps over this many days")
	cmd.Flags().BoolVar(&opts.ShouldClean, "clean", false, "Delete existing users and content first")
	cmd.Flags().BoolVar(&opts.SkipBcrypt, "skip-bcrypt", false, "Store placeholder password hashes (accounts cannot log in)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Password for generated accounts")
	cmd.Flags().StringVar(&opts.ScenarioFile, "scenario", "", "YAML scenario file to apply instead of random data")
	cmd.Flags().Int64Var(&opts.RandSeed, "rand-seed", 0, "Seed for reproducible data (0 picks one)")
	return cmd
}
