package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andrevrochaz/agent-swarm-rag/internal/agent"
)

// ChatService is the slice of the orchestrator the handlers need.
type ChatService interface {
	ProcessMessage(ctx context.Context, message, userID string) agent.ChatResponse
	RebuildIndex(ctx context.Context) error
	CollectionCounts(ctx context.Context) (map[string]int64, error)
}

type Handler struct {
	service ChatService
}

func NewHandler(service ChatService) *Handler {
	return &Handler{service: service}
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.CollectionCounts(r.Context())
	status := "healthy"
	if err != nil {
		log.Printf("health index count failed: %v", err)
		status = "degraded"
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"indexed_chunks": total,
		"collections":    counts,
	})
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)
	log.Printf("chat request %s user=%s", requestID, req.UserID)

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	resp := h.service.ProcessMessage(ctx, req.Message, req.UserID)
	writeJSON(w, http.StatusOK, resp)
}

// RebuildIndex kicks the reindex off in the background, detached from the
// request context, and answers immediately.
func (h *Handler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := h.service.RebuildIndex(context.Background()); err != nil {
			log.Printf("index rebuild failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"message": "Index rebuild started in background",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
