package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/helioshr/helios/internal/server"
	"github.com/helioshr/helios/migrations"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/configuration"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	root := &cobra.Command{
		Use:           "helios",
		Short:         "Organizational hierarchy and access control service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := configuration.Use()
			srv, err := server.New(ctx, cfg)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply or roll back database migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configuration.Use()
			db, err := sql.Open("pgx", cfg.Database.ConnectionString())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			goose.SetBaseFS(migrations.FS)
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}

			direction := "up"
			if len(args) > 0 {
				direction = args[0]
			}
			if direction == "down" {
				return goose.Down(db, ".")
			}
			return goose.Up(db, ".")
		},
	}
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demonstration data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configuration.Use()

			pool, err := pgxpool.New(ctx, cfg.Database.ConnectionString())
			if err != nil {
				return err
			}
			defer pool.Close()

			return server.Seed(composables.WithPool(ctx, pool), cfg.Logger())
		},
	}
}
