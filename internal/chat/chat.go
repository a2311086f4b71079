// Package chat exposes the completion pipeline over a WebSocket, streaming
// answer chunks as they arrive from the model.
package chat

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/apiscout/apiscout/internal/orchestrator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	UserID      string `json:"userId"`
	WorkspaceID string `json:"workspaceId"`
	Tenant      string `json:"tenant"`
	Environment string `json:"environment"`
	Question    string `json:"question"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type           string `json:"type"` // "chunk", "done" or "error"
	Content        string `json:"content,omitempty"`
	Route          string `json:"route,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

// Handler answers chat questions over a WebSocket connection.
type Handler struct {
	orch *orchestrator.Orchestrator
}

// NewHandler creates a chat handler over the given orchestrator.
func NewHandler(orch *orchestrator.Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes mounts the chat endpoint on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("chat: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("chat: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			h.sendError(conn, "invalid message format")
			continue
		}
		if req.UserID == "" || req.Question == "" {
			h.sendError(conn, "userId and question are required")
			continue
		}

		h.handleQuestion(conn, r, req)
	}
}

func (h *Handler) handleQuestion(conn *websocket.Conn, r *http.Request, req chatRequest) {
	onDelta := func(delta string) error {
		return conn.WriteJSON(chatResponse{Type: "chunk", Content: delta})
	}

	result, err := h.orch.AnswerStream(r.Context(), orchestrator.Request{
		UserID:      req.UserID,
		WorkspaceID: req.WorkspaceID,
		Tenant:      req.Tenant,
		Environment: req.Environment,
		Question:    req.Question,
	}, onDelta)
	if err != nil {
		h.sendError(conn, "completion failed: "+err.Error())
		return
	}

	if err := conn.WriteJSON(chatResponse{
		Type:           "done",
		Route:          string(result.Route),
		ConversationID: result.ConversationID,
	}); err != nil {
		log.Printf("chat: websocket write: %v", err)
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(chatResponse{Type: "error", Content: message}); err != nil {
		log.Printf("chat: websocket write error: %v", err)
	}
}
