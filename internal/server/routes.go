package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apiscout/apiscout/internal/description"
	"github.com/apiscout/apiscout/internal/orchestrator"
)

type completionRequest struct {
	UserID      string `json:"userId"`
	WorkspaceID string `json:"workspaceId"`
	Tenant      string `json:"tenant"`
	Environment string `json:"environment"`
	Question    string `json:"question"`
	Stream      bool   `json:"stream"`
}

type completionResponse struct {
	Answer         string `json:"answer"`
	Route          string `json:"route"`
	ConversationID string `json:"conversationId"`
	Stats          any    `json:"stats,omitempty"`
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Post("/function-completion", s.handleCompletion)
	r.Post("/function-description", s.handleFunctionDescription)
	r.Post("/webhook-description", s.handleWebhookDescription)
	r.Post("/clear-conversations", s.handleClearConversations)
	r.Post("/configure", s.handleConfigure)
	r.Post("/system-prompt", s.handleSetSystemPrompt)

	r.Route("/docs", func(r chi.Router) {
		r.Get("/", s.handleListDocs)
		r.Post("/", s.handleAddDoc)
		r.Delete("/{id}", s.handleDeleteDoc)
	})
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Question == "" {
		http.Error(w, "userId and question are required", http.StatusBadRequest)
		return
	}

	orchReq := orchestrator.Request{
		UserID:      req.UserID,
		WorkspaceID: req.WorkspaceID,
		Tenant:      req.Tenant,
		Environment: req.Environment,
		Question:    req.Question,
	}

	if req.Stream || r.Header.Get("Accept") == "text/event-stream" {
		s.streamCompletion(w, r, orchReq)
		return
	}

	result, err := s.deps.Orchestrator.Answer(r.Context(), orchReq)
	if err != nil {
		log.Printf("server: completion failed: %v", err)
		http.Error(w, "completion failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, completionResponse{
		Answer:         result.Answer,
		Route:          string(result.Route),
		ConversationID: result.ConversationID,
		Stats:          result.Stats,
	})
}

// streamCompletion writes the final model call as server-sent events, one
// {"chunk": ...} payload per delta, then a closing {"done": true} event.
func (s *Server) streamCompletion(w http.ResponseWriter, r *http.Request, req orchestrator.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	onDelta := func(delta string) error {
		payload, err := json.Marshal(map[string]string{"chunk": delta})
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	result, err := s.deps.Orchestrator.AnswerStream(r.Context(), req, onDelta)
	if err != nil {
		log.Printf("server: streaming completion failed: %v", err)
		payload, _ := json.Marshal(map[string]string{"error": "completion failed"})
		w.Write([]byte("data: " + string(payload) + "\n\n"))
		flusher.Flush()
		return
	}

	payload, _ := json.Marshal(map[string]any{
		"done":           true,
		"conversationId": result.ConversationID,
		"route":          string(result.Route),
	})
	w.Write([]byte("data: " + string(payload) + "\n\n"))
	flusher.Flush()
}

func (s *Server) handleFunctionDescription(w http.ResponseWriter, r *http.Request) {
	s.handleDescription(w, r, s.deps.Descriptions.FunctionDescription)
}

func (s *Server) handleWebhookDescription(w http.ResponseWriter, r *http.Request) {
	s.handleDescription(w, r, s.deps.Descriptions.WebhookDescription)
}

// handleDescription runs the naming call and returns the generated metadata.
// An unparseable model reply comes back as an error payload carrying the raw
// reply, so callers can fall back to manual naming.
func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request,
	generate func(context.Context, description.Input) (*description.Output, error)) {

	if s.deps.Descriptions == nil {
		http.Error(w, "description generation not configured", http.StatusServiceUnavailable)
		return
	}

	var in description.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	out, err := generate(r.Context(), in)
	if err != nil {
		var pe *description.ParseError
		if errors.As(err, &pe) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": "could not parse model reply: " + pe.Reply,
			})
			return
		}
		log.Printf("server: description generation: %v", err)
		http.Error(w, "description generation failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClearConversations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	if err := s.deps.Conversations.Clear(r.Context(), req.UserID); err != nil {
		log.Printf("server: clearing conversations: %v", err)
		http.Error(w, "clear failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "name and value are required", http.StatusBadRequest)
		return
	}

	if err := s.deps.Settings.Set(r.Context(), req.Name, req.Value); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetSystemPrompt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	if err := s.deps.Conversations.SetSystemPrompt(r.Context(), req.Content); err != nil {
		log.Printf("server: setting system prompt: %v", err)
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDocs(w http.ResponseWriter, r *http.Request) {
	sections, err := s.deps.DocsStore.List(r.Context())
	if err != nil {
		log.Printf("server: listing docs: %v", err)
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

func (s *Server) handleAddDoc(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Content == "" {
		http.Error(w, "name and content are required", http.StatusBadRequest)
		return
	}

	section, err := s.deps.DocsStore.Add(r.Context(), req.Name, req.Content)
	if err != nil {
		log.Printf("server: adding doc: %v", err)
		http.Error(w, "add failed", http.StatusInternalServerError)
		return
	}
	s.reindexDocs(r)
	writeJSON(w, http.StatusCreated, section)
}

func (s *Server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.DocsStore.Delete(r.Context(), id); err != nil {
		log.Printf("server: deleting doc: %v", err)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}
	s.reindexDocs(r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reindexDocs(r *http.Request) {
	if s.deps.DocsIndex == nil {
		return
	}
	sections, err := s.deps.DocsStore.List(r.Context())
	if err != nil {
		log.Printf("server: reindex list: %v", err)
		return
	}
	if err := s.deps.DocsIndex.Reindex(r.Context(), sections); err != nil {
		log.Printf("server: reindex: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}
