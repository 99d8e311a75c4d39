package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"loom/internal/domain/models/chat"
	"loom/internal/httputil"
	chatSvc "loom/internal/service/chat"
	"loom/internal/service/chat/conversation"
	"loom/internal/service/chat/responsemode"
)

// ChatHandler serves request composition and the conversation tree.
// Handlers only talk to services.
type ChatHandler struct {
	requests     *chatSvc.RequestService
	conversation *conversation.Service
	modeDefaults chatSvc.RequestConfig
	logger       *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	requests *chatSvc.RequestService,
	conv *conversation.Service,
	modeDefaults chatSvc.RequestConfig,
	logger *slog.Logger,
) *ChatHandler {
	return &ChatHandler{
		requests:     requests,
		conversation: conv,
		modeDefaults: modeDefaults,
		logger:       logger,
	}
}

// Compose builds an outbound request from an inline chain
// POST /api/compose
func (h *ChatHandler) Compose(w http.ResponseWriter, r *http.Request) {
	var req chatSvc.ComposeRequest
	if !parseBody(w, r, &req) {
		return
	}

	preview, err := h.requests.Compose(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, preview)
}

// Preview builds an outbound request from the stored path ending at leaf_id
// POST /api/chats/{id}/preview
func (h *ChatHandler) Preview(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat ID")
	if !ok {
		return
	}

	var req chatSvc.PreviewRequest
	if !parseBody(w, r, &req) {
		return
	}

	preview, err := h.requests.Preview(r.Context(), chatID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, preview)
}

// AppendNode appends a turn under parent_id (empty for a new root)
// POST /api/chats/{id}/nodes
func (h *ChatHandler) AppendNode(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat ID")
	if !ok {
		return
	}

	var req conversation.AppendRequest
	if !parseBody(w, r, &req) {
		return
	}

	node, err := h.conversation.Append(r.Context(), chatID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Debug("node appended",
		"chat_id", chatID,
		"node_id", node.ID,
		"user_id", httputil.GetUserID(r),
	)
	httputil.RespondJSON(w, http.StatusCreated, node)
}

// ListNodes returns the children of parent_id: the branches a user can
// switch between. Without parent_id the chat's roots are returned.
// GET /api/chats/{id}/nodes?parent_id=X
func (h *ChatHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat ID")
	if !ok {
		return
	}

	nodes, err := h.conversation.Branches(r.Context(), chatID, r.URL.Query().Get("parent_id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// GetPath returns the active path ending at a node
// GET /api/chats/{id}/nodes/{nodeId}/path
func (h *ChatHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat ID")
	if !ok {
		return
	}
	nodeID, ok := PathParam(w, r, "nodeId", "Node ID")
	if !ok {
		return
	}

	path, err := h.conversation.Path(r.Context(), chatID, nodeID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, path)
}

// ModeRequest asks how an exchange would be delivered. Omitted fields fall
// back to the server configuration.
type ModeRequest struct {
	APIFamily                string `json:"api_family,omitempty"`
	ConfiguredWantsStreaming *bool  `json:"configured_wants_streaming,omitempty"`
	RequestDeclaresStream    bool   `json:"request_declares_stream"`
}

// ModeResponse is the resolved response mode.
type ModeResponse struct {
	APIFamily string            `json:"api_family"`
	Mode      chat.ResponseMode `json:"mode"`
}

// ResolveMode resolves the response mode of an exchange
// POST /api/mode
func (h *ChatHandler) ResolveMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if !parseBody(w, r, &req) {
		return
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.APIFamily, validation.Length(0, 100)),
	); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	family := req.APIFamily
	if family == "" {
		family = h.modeDefaults.APIFamily
	}
	wants := req.ConfiguredWantsStreaming
	if wants == nil {
		wants = h.modeDefaults.StreamingEnabled
	}

	httputil.RespondJSON(w, http.StatusOK, ModeResponse{
		APIFamily: responsemode.NormalizeFamily(family),
		Mode:      responsemode.Resolve(family, wants, req.RequestDeclaresStream),
	})
}
