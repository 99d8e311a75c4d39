package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/repository/postgres"
)

func newDBCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the conversation node table ($DATABASE_URL, $TABLE_PREFIX)",
	}

	run := func(action func(cmd *cobra.Command, m *postgres.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL environment variable is required")
			}

			pool, err := postgres.CreateConnectionPool(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := postgres.NewMigrator(&postgres.RepositoryConfig{
				Pool:   pool,
				Tables: postgres.NewTableNames(cfg.TablePrefix),
				Logger: root.logger(cmd),
			})
			return action(cmd, migrator)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the node table if missing",
			RunE: run(func(cmd *cobra.Command, m *postgres.Migrator) error {
				return m.Migrate(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "drop",
			Short: "Drop the node table for the current prefix",
			RunE: run(func(cmd *cobra.Command, m *postgres.Migrator) error {
				if err := m.Drop(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "tables dropped")
				return err
			}),
		},
	)
	return cmd
}
