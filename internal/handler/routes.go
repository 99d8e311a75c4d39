package handler

import "net/http"

// RegisterRoutes mounts all API routes on mux (Go 1.22+ patterns).
func RegisterRoutes(mux *http.ServeMux, chat *ChatHandler, turns *TurnHandler) {
	// Health check
	mux.HandleFunc("GET /health", HealthCheck)

	// Composition
	mux.HandleFunc("POST /api/compose", chat.Compose)
	mux.HandleFunc("POST /api/mode", chat.ResolveMode)

	// Conversation tree
	mux.HandleFunc("POST /api/chats/{id}/preview", chat.Preview)
	mux.HandleFunc("POST /api/chats/{id}/nodes", chat.AppendNode)
	mux.HandleFunc("GET /api/chats/{id}/nodes", chat.ListNodes)
	mux.HandleFunc("GET /api/chats/{id}/nodes/{nodeId}/path", chat.GetPath)

	// Streaming turns
	mux.HandleFunc("POST /api/turns/{id}/stream", turns.OpenTurn)
	mux.HandleFunc("POST /api/turns/{id}/chunks", turns.PushChunks)
	mux.HandleFunc("POST /api/turns/{id}/complete", turns.CompleteTurn)
	mux.HandleFunc("POST /api/turns/{id}/interrupt", turns.InterruptTurn)
	mux.HandleFunc("GET /api/turns/{id}/state", turns.GetTurnState)
	mux.HandleFunc("GET /api/turns/{id}/events", turns.StreamEvents) // SSE
}
