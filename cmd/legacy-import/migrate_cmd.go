package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/legacy-import/pkg/configuration"
	"github.com/iota-uz/legacy-import/pkg/dbmigrate"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the embedded schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(cmd.Context(), func(ctx context.Context, db *sql.DB, conf *configuration.Configuration) error {
				if err := dbmigrate.Up(ctx, db, conf.MigrationsTable, conf.Logger()); err != nil {
					return withCode(exitDB, err)
				}
				version, err := dbmigrate.Version(ctx, db, conf.MigrationsTable)
				if err != nil {
					return withCode(exitDB, err)
				}
				return writeJSONLine(cmd.OutOrStdout(), map[string]any{"status": "ok", "version": version})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print migration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(cmd.Context(), func(ctx context.Context, db *sql.DB, conf *configuration.Configuration) error {
				if err := dbmigrate.Status(ctx, db, conf.MigrationsTable, conf.Logger()); err != nil {
					return withCode(exitDB, err)
				}
				return nil
			})
		},
	})
	return cmd
}

func withMigrationDB(ctx context.Context, fn func(context.Context, *sql.DB, *configuration.Configuration) error) error {
	conf := configuration.Use()
	db, err := sql.Open("postgres", conf.Database.Opts)
	if err != nil {
		return withCode(exitDB, fmt.Errorf("db open: %w", err))
	}
	defer func() { _ = db.Close() }()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return withCode(exitDB, fmt.Errorf("db connect failed: %w", err))
	}
	return fn(ctx, db, conf)
}
