package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"loom/internal/domain/repositories"
)

// Migrator creates and drops the tables behind a table prefix.
type Migrator struct {
	pool   *pgxpool.Pool
	tables *TableNames
	tx     repositories.TransactionManager
	logger *slog.Logger
}

// NewMigrator creates a migrator for the configured tables.
func NewMigrator(config *RepositoryConfig) *Migrator {
	return &Migrator{
		pool:   config.Pool,
		tables: config.Tables,
		tx:     NewTransactionManager(config.Pool, config.Logger),
		logger: config.Logger,
	}
}

// Migrate creates the node table and its index when missing.
func (m *Migrator) Migrate(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				chat_id         TEXT NOT NULL,
				parent_id       UUID REFERENCES %[1]s(id) ON DELETE CASCADE,
				role            TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
				content         JSONB NOT NULL,
				reasoning       JSONB,
				source_model_id TEXT NOT NULL DEFAULT '',
				created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, m.tables.Nodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_chat_parent_idx ON %[1]s (chat_id, parent_id, created_at)`, m.tables.Nodes),
	}

	if err := m.exec(ctx, statements); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	m.logger.Info("schema ready", "table", m.tables.Nodes)
	return nil
}

// Drop removes every table owned by the prefix.
func (m *Migrator) Drop(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, m.tables.Nodes),
	}

	if err := m.exec(ctx, statements); err != nil {
		return fmt.Errorf("drop: %w", err)
	}
	m.logger.Info("schema dropped", "table", m.tables.Nodes)
	return nil
}

func (m *Migrator) exec(ctx context.Context, statements []string) error {
	return m.tx.ExecTx(ctx, func(ctx context.Context) error {
		executor := GetExecutor(ctx, m.pool)
		for _, stmt := range statements {
			if _, err := executor.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
