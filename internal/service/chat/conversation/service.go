package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"loom/internal/config"
	"loom/internal/domain"
	"loom/internal/domain/models/chat"
	chatRepo "loom/internal/domain/repositories/chat"
)

// AppendRequest adds one turn under a parent node.
type AppendRequest struct {
	ParentID      string               `json:"parent_id,omitempty"`
	Role          chat.Role            `json:"role"`
	Content       chat.MessageContent  `json:"content"`
	Reasoning     *chat.ReasoningTrace `json:"reasoning,omitempty"`
	SourceModelID string               `json:"source_model_id,omitempty"`
}

// Service appends turns and reads active paths.
type Service struct {
	nodes  chatRepo.NodeRepository
	logger *slog.Logger
}

// NewService creates a conversation service over a node repository.
func NewService(nodes chatRepo.NodeRepository, logger *slog.Logger) *Service {
	return &Service{nodes: nodes, logger: logger}
}

// Append validates and stores a new node, returning it with its ID set.
func (s *Service) Append(ctx context.Context, chatID string, req *AppendRequest) (*chat.ConversationNode, error) {
	if err := validateAppend(chatID, req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	node := &chat.ConversationNode{
		ParentID:      req.ParentID,
		Role:          req.Role,
		Content:       req.Content.Clone(),
		Reasoning:     req.Reasoning,
		SourceModelID: strings.TrimSpace(req.SourceModelID),
	}
	if err := s.nodes.CreateNode(ctx, chatID, node); err != nil {
		return nil, fmt.Errorf("append node: %w", err)
	}

	s.logger.Debug("node appended",
		"chat_id", chatID,
		"node_id", node.ID,
		"parent_id", node.ParentID,
		"role", node.Role,
		"has_reasoning", node.Reasoning != nil,
	)
	return node, nil
}

// Path returns the active chain ending at leafID, oldest first.
func (s *Service) Path(ctx context.Context, chatID, leafID string) ([]chat.ConversationNode, error) {
	if leafID == "" {
		return nil, fmt.Errorf("%w: leaf node id is required", domain.ErrValidation)
	}
	path, err := s.nodes.GetPath(ctx, chatID, leafID)
	if err != nil {
		return nil, fmt.Errorf("get path: %w", err)
	}
	return path, nil
}

// Branches returns the alternatives stored under parentID.
func (s *Service) Branches(ctx context.Context, chatID, parentID string) ([]chat.ConversationNode, error) {
	children, err := s.nodes.GetChildren(ctx, chatID, parentID)
	if err != nil {
		return nil, fmt.Errorf("get children: %w", err)
	}
	return children, nil
}

// RegenerateTarget returns the node a regeneration of nodeID truncates to:
// the parent of an assistant node, or the node itself otherwise.
func (s *Service) RegenerateTarget(ctx context.Context, chatID, nodeID string) (string, error) {
	node, err := s.nodes.GetNode(ctx, chatID, nodeID)
	if err != nil {
		return "", fmt.Errorf("get node: %w", err)
	}
	if node.Role == chat.RoleAssistant && node.ParentID != "" {
		return node.ParentID, nil
	}
	return node.ID, nil
}

var errEmptyContent = errors.New("must not be empty")

func validateAppend(chatID string, req *AppendRequest) error {
	if strings.TrimSpace(chatID) == "" {
		return errors.New("chat id is required")
	}
	if req == nil {
		return errors.New("request body is required")
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.Role, validation.Required,
			validation.In(chat.RoleUser, chat.RoleAssistant, chat.RoleSystem)),
		validation.Field(&req.Content, validation.By(func(value interface{}) error {
			content, _ := value.(chat.MessageContent)
			if content.IsString() && strings.TrimSpace(content.Text) == "" {
				return errEmptyContent
			}
			if !content.IsString() && len(content.Parts) == 0 {
				return errEmptyContent
			}
			return nil
		})),
		validation.Field(&req.SourceModelID, validation.Length(0, config.MaxModelLength)),
	)
}
