package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"loom/internal/config"
	"loom/internal/domain/models/chat"
	"loom/internal/handler/sse"
	"loom/internal/httputil"
	"loom/internal/service/chat/streaming"
)

// TurnHandler serves streaming turns: chunks come in over POST and render
// transitions go out over SSE.
type TurnHandler struct {
	streaming *streaming.Service
	sseConfig *sse.Config
	logger    *slog.Logger
}

// NewTurnHandler creates a new turn handler
func NewTurnHandler(streamingService *streaming.Service, sseConfig *sse.Config, logger *slog.Logger) *TurnHandler {
	if sseConfig == nil {
		sseConfig = sse.DefaultConfig()
	}
	return &TurnHandler{
		streaming: streamingService,
		sseConfig: sseConfig,
		logger:    logger,
	}
}

// ChunkRequest carries chunks for a turn, in arrival order.
type ChunkRequest struct {
	Chunks []chat.Chunk `json:"chunks"`
}

// Validate checks the chunk batch size.
func (r *ChunkRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Chunks, validation.Required, validation.Length(1, config.MaxChunksPerRequest)),
	)
}

// OpenTurn starts a streaming turn
// POST /api/turns/{id}/stream
// Returns 201 with the initial state, 409 if the turn is already open
func (h *TurnHandler) OpenTurn(w http.ResponseWriter, r *http.Request) {
	turnID, ok := UUIDParam(w, r, "id", "Turn ID")
	if !ok {
		return
	}

	executor, err := h.streaming.Open(turnID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, executor.Snapshot())
}

// PushChunks feeds chunks to a streaming turn
// POST /api/turns/{id}/chunks
func (h *TurnHandler) PushChunks(w http.ResponseWriter, r *http.Request) {
	turnID, ok := UUIDParam(w, r, "id", "Turn ID")
	if !ok {
		return
	}

	var req ChunkRequest
	if !parseBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	for i, chunk := range req.Chunks {
		if err := h.streaming.Push(r.Context(), turnID, chunk); err != nil {
			h.logger.Warn("chunk push failed",
				"turn_id", turnID,
				"accepted", i,
				"error", err,
			)
			handleError(w, err)
			return
		}
	}

	httputil.RespondJSON(w, http.StatusAccepted, map[string]interface{}{
		"turn_id":  turnID,
		"accepted": len(req.Chunks),
	})
}

// CompleteTurn marks the end of the response
// POST /api/turns/{id}/complete
func (h *TurnHandler) CompleteTurn(w http.ResponseWriter, r *http.Request) {
	turnID, ok := UUIDParam(w, r, "id", "Turn ID")
	if !ok {
		return
	}

	if err := h.streaming.Complete(turnID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, map[string]interface{}{
		"turn_id": turnID,
	})
}

// InterruptTurn cancels a streaming turn
// POST /api/turns/{id}/interrupt
func (h *TurnHandler) InterruptTurn(w http.ResponseWriter, r *http.Request) {
	turnID, ok := UUIDParam(w, r, "id", "Turn ID")
	if !ok {
		return
	}

	if err := h.streaming.Interrupt(turnID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"turn_id": turnID,
		"status":  streaming.StatusCancelled,
	})
}

// GetTurnState returns the turn's stream state and merged texts
// GET /api/turns/{id}/state
func (h *TurnHandler) GetTurnState(w http.ResponseWriter, r *http.Request) {
	turnID, ok := UUIDParam(w, r, "id", "Turn ID")
	if !ok {
		return
	}

	state, err := h.streaming.State(turnID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, state)
}

// StreamEvents streams render transitions via Server-Sent Events (SSE).
// The first event is a "state" snapshot so late joiners can catch up; a
// finished turn sends only that snapshot and closes.
// GET /api/turns/{id}/events
func (h *TurnHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	turnID, ok := UUIDParam(w, r, "id", "Turn ID")
	if !ok {
		return
	}

	executor, err := h.streaming.Executor(turnID)
	if err != nil {
		handleError(w, err)
		return
	}

	clientID := uuid.New().String()
	// Subscribe before the snapshot so no event falls between the two.
	events := executor.AddClient(clientID)
	defer func() {
		executor.RemoveClient(clientID)
		h.logger.Debug("SSE client removed", "turn_id", turnID, "client_id", clientID)
	}()

	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Debug("SSE stream established", "turn_id", turnID, "client_id", clientID)

	seq := 0
	nextID := func() string {
		seq++
		return strconv.Itoa(seq)
	}

	snapshot, err := json.Marshal(executor.Snapshot())
	if err != nil {
		h.logger.Error("failed to encode snapshot", "turn_id", turnID, "error", err)
		return
	}
	if err := writer.WriteEvent("state", nextID(), snapshot); err != nil {
		h.logger.Info("client disconnected before catchup", "turn_id", turnID, "client_id", clientID)
		return
	}

	keepAlive := sse.NewTickerKeepAlive(h.sseConfig.KeepAliveInterval)
	keepAliveStopped := keepAlive.Start(writer, h.logger)
	defer keepAlive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				h.logger.Debug("event channel closed, ending stream", "turn_id", turnID, "client_id", clientID)
				return
			}
			if err := writer.WriteEvent(event.Type, nextID(), event.Data); err != nil {
				h.logger.Info("client disconnected during event write",
					"turn_id", turnID,
					"client_id", clientID,
					"error", err,
				)
				return
			}

		case <-keepAliveStopped:
			return

		case <-r.Context().Done():
			h.logger.Debug("client disconnected", "turn_id", turnID, "client_id", clientID)
			return
		}
	}
}
