package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"loom/internal/domain"
	"loom/internal/domain/models/chat"
	"loom/internal/domain/repositories"
	chatRepo "loom/internal/domain/repositories/chat"
	"loom/internal/repository/postgres"
)

// MaxRecursionDepth bounds the path CTE.
const MaxRecursionDepth = 1000

const nodeColumns = `id, chat_id, parent_id, role, content, reasoning, source_model_id, created_at`

// PostgresNodeRepository implements NodeRepository using PostgreSQL
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	tx     repositories.TransactionManager
	logger *slog.Logger
}

// NewNodeRepository creates a new PostgresNodeRepository
func NewNodeRepository(config *postgres.RepositoryConfig) chatRepo.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		tx:     postgres.NewTransactionManager(config.Pool, config.Logger),
		logger: config.Logger,
	}
}

// CreateNode inserts a node, letting the database assign ID and CreatedAt
// when they are empty. The parent check and the insert share a transaction
// so a parent from another chat is never linked.
func (r *PostgresNodeRepository) CreateNode(ctx context.Context, chatID string, node *chat.ConversationNode) error {
	content, err := json.Marshal(node.Content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	reasoning, err := encodeReasoning(node.Reasoning)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, chat_id, parent_id, role, content, reasoning, source_model_id, created_at)
		VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
		RETURNING id, created_at
	`, r.tables.Nodes)

	err = r.tx.ExecTx(ctx, func(ctx context.Context) error {
		if node.ParentID != "" {
			exists, err := r.nodeExists(ctx, chatID, node.ParentID)
			if err != nil {
				if postgres.IsPgInvalidTextError(err) {
					return fmt.Errorf("parent node %s: %w", node.ParentID, domain.ErrNotFound)
				}
				return fmt.Errorf("validate parent node: %w", err)
			}
			if !exists {
				return fmt.Errorf("parent node %s: %w", node.ParentID, domain.ErrNotFound)
			}
		}

		executor := postgres.GetExecutor(ctx, r.pool)
		return executor.QueryRow(ctx, query,
			nullable(node.ID),
			chatID,
			nullable(node.ParentID),
			string(node.Role),
			content,
			reasoning,
			node.SourceModelID,
			nullableTime(node),
		).Scan(&node.ID, &node.CreatedAt)
	})
	if err != nil {
		switch {
		case postgres.IsPgDuplicateError(err):
			return &domain.ConflictError{
				Message:      fmt.Sprintf("node %s already exists", node.ID),
				ResourceType: "node",
				ResourceID:   node.ID,
			}
		case postgres.IsPgForeignKeyError(err):
			return fmt.Errorf("parent node %s: %w", node.ParentID, domain.ErrNotFound)
		case postgres.IsPgInvalidTextError(err), postgres.IsPgCheckViolation(err):
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		return fmt.Errorf("create node: %w", err)
	}

	r.logger.Debug("node created", "chat_id", chatID, "node_id", node.ID)
	return nil
}

func (r *PostgresNodeRepository) nodeExists(ctx context.Context, chatID, nodeID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1 AND chat_id = $2)`, r.tables.Nodes)

	var exists bool
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, nodeID, chatID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// GetNode retrieves a node by ID
func (r *PostgresNodeRepository) GetNode(ctx context.Context, chatID, nodeID string) (*chat.ConversationNode, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND chat_id = $2`, nodeColumns, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	node, err := scanNode(executor.QueryRow(ctx, query, nodeID, chatID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("node %s: %w", nodeID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return node, nil
}

// GetPath walks parent links from the leaf to the root with a recursive CTE
// and returns the nodes root first.
func (r *PostgresNodeRepository) GetPath(ctx context.Context, chatID, leafID string) ([]chat.ConversationNode, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE node_path AS (
			SELECT %[1]s, 1 AS depth
			FROM %[2]s
			WHERE id = $1 AND chat_id = $2

			UNION ALL

			SELECT n.id, n.chat_id, n.parent_id, n.role, n.content, n.reasoning,
			       n.source_model_id, n.created_at, np.depth + 1
			FROM %[2]s n
			INNER JOIN node_path np ON n.id = np.parent_id
			WHERE np.depth < %[3]d
		)
		SELECT %[1]s
		FROM node_path
		ORDER BY depth DESC
	`, nodeColumns, r.tables.Nodes, MaxRecursionDepth)

	nodes, err := r.queryNodes(ctx, query, leafID, chatID)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("node %s: %w", leafID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get path: %w", err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("node %s: %w", leafID, domain.ErrNotFound)
	}
	return nodes, nil
}

// GetChildren returns the children of parentID, or the roots for "".
func (r *PostgresNodeRepository) GetChildren(ctx context.Context, chatID, parentID string) ([]chat.ConversationNode, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE chat_id = $1 AND parent_id IS NOT DISTINCT FROM $2::uuid
		ORDER BY created_at ASC, id ASC
	`, nodeColumns, r.tables.Nodes)

	nodes, err := r.queryNodes(ctx, query, chatID, nullable(parentID))
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			// Not a node ID, so nothing can hang off it.
			return []chat.ConversationNode{}, nil
		}
		return nil, fmt.Errorf("get children: %w", err)
	}
	return nodes, nil
}

func (r *PostgresNodeRepository) queryNodes(ctx context.Context, query string, args ...interface{}) ([]chat.ConversationNode, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := []chat.ConversationNode{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

// scanner is implemented by both pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row scanner) (*chat.ConversationNode, error) {
	var (
		node      chat.ConversationNode
		chatID    string
		parentID  *string
		role      string
		content   []byte
		reasoning []byte
	)
	if err := row.Scan(&node.ID, &chatID, &parentID, &role, &content, &reasoning, &node.SourceModelID, &node.CreatedAt); err != nil {
		return nil, err
	}

	if parentID != nil {
		node.ParentID = *parentID
	}
	node.Role = chat.NormalizeRole(role)

	if err := json.Unmarshal(content, &node.Content); err != nil {
		return nil, fmt.Errorf("decode content of node %s: %w", node.ID, err)
	}
	if len(reasoning) > 0 {
		var trace chat.ReasoningTrace
		if err := json.Unmarshal(reasoning, &trace); err != nil {
			return nil, fmt.Errorf("decode reasoning of node %s: %w", node.ID, err)
		}
		node.Reasoning = &trace
	}
	return &node, nil
}

func encodeReasoning(trace *chat.ReasoningTrace) (interface{}, error) {
	if trace == nil {
		return nil, nil
	}
	data, err := json.Marshal(trace)
	if err != nil {
		return nil, fmt.Errorf("encode reasoning: %w", err)
	}
	return data, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableTime(node *chat.ConversationNode) interface{} {
	if node.CreatedAt.IsZero() {
		return nil
	}
	return node.CreatedAt
}
