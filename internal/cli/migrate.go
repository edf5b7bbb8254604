package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"ranczo-quiz/internal/bank"
	"ranczo-quiz/internal/config"
	"ranczo-quiz/internal/infra/postgres"
	pgmigrations "ranczo-quiz/internal/infra/postgres/migrations"
	rediscache "ranczo-quiz/internal/infra/redis"
	"ranczo-quiz/internal/logging"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies the question bank schema.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres question bank schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return withBunDB(cfg, func(db *bun.DB) error {
				return runMigrations(cmd.Context(), cfg, db)
			})
		},
	}
}

// NewSeedCmd copies the YAML question bank into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var bankPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questions into Postgres, replacing the stored bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if bankPath == "" {
				bankPath = cfg.Quiz.BankPath
			}
			questions, err := bank.Loader{Path: bankPath}.LoadBank(cmd.Context())
			if err != nil {
				return err
			}
			return withBunDB(cfg, func(db *bun.DB) error {
				if err := runMigrations(cmd.Context(), cfg, db); err != nil {
					return err
				}
				if err := postgres.SeedBank(cmd.Context(), db, questions); err != nil {
					return err
				}
				if err := invalidateBankCache(cmd.Context(), cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d questions\n", len(questions))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bankPath, "bank", "", "YAML bank to load (defaults to quiz.bank_path or the built-in bank)")
	return cmd
}

// invalidateBankCache drops the Redis copy of the bank so running servers
// pick up the seeded questions on their next load.
func invalidateBankCache(ctx context.Context, cfg config.Config) error {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()
	cache := rediscache.NewBankCache(client, bank.Loader{Path: cfg.Quiz.BankPath}, cfg.Redis.Prefix, 0)
	if err := cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate bank cache: %w", err)
	}
	return nil
}

func withBunDB(cfg config.Config, fn func(db *bun.DB) error) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()
	return fn(db)
}

func runMigrations(ctx context.Context, cfg config.Config, db *bun.DB) error {
	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("no new migrations")
		return nil
	}
	log.WithField("group", group.String()).Info("migrations applied")
	return nil
}
