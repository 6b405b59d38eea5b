package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrevrochaz/agent-swarm-rag/internal/agent"
)

type stubService struct {
	mu          sync.Mutex
	lastMessage string
	lastUserID  string
	rebuilt     chan struct{}
	countErr    error
	counts      map[string]int64
}

func (s *stubService) ProcessMessage(ctx context.Context, message, userID string) agent.ChatResponse {
	s.mu.Lock()
	s.lastMessage = message
	s.lastUserID = userID
	s.mu.Unlock()
	return agent.ChatResponse{
		Response:            "final answer",
		SourceAgentResponse: "raw answer",
		AgentWorkflow: []agent.WorkflowStep{
			{AgentName: "RouterAgent"},
			{AgentName: "KnowledgeAgent"},
			{AgentName: "PersonalityAgent"},
		},
	}
}

func (s *stubService) RebuildIndex(ctx context.Context) error {
	if s.rebuilt != nil {
		close(s.rebuilt)
	}
	return nil
}

func (s *stubService) CollectionCounts(ctx context.Context) (map[string]int64, error) {
	return s.counts, s.countErr
}

func TestChatEndpoint(t *testing.T) {
	svc := &stubService{}
	server := httptest.NewServer(NewRouter(NewHandler(svc)))
	defer server.Close()

	body := `{"message":"What are the card machine fees?","user_id":"client789"}`
	resp, err := http.Post(server.URL+"/api/v1/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var got agent.ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "final answer", got.Response)
	assert.Equal(t, "raw answer", got.SourceAgentResponse)
	require.Len(t, got.AgentWorkflow, 3)
	assert.Equal(t, "RouterAgent", got.AgentWorkflow[0].AgentName)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, "What are the card machine fees?", svc.lastMessage)
	assert.Equal(t, "client789", svc.lastUserID)
}

func TestChatRejectsInvalidBody(t *testing.T) {
	server := httptest.NewServer(NewRouter(NewHandler(&stubService{})))
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/chat", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	server := httptest.NewServer(NewRouter(NewHandler(&stubService{})))
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/chat", "application/json", strings.NewReader(`{"message":"   "}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRebuildIndexRunsInBackground(t *testing.T) {
	svc := &stubService{rebuilt: make(chan struct{})}
	server := httptest.NewServer(NewRouter(NewHandler(svc)))
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/rebuild-index", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	select {
	case <-svc.rebuilt:
	case <-time.After(2 * time.Second):
		t.Fatal("rebuild was never invoked")
	}
}

func TestHealth(t *testing.T) {
	svc := &stubService{counts: map[string]int64{
		"infinitepay_text":       40,
		"infinitepay_pricing":    1,
		"infinitepay_structured": 1,
	}}
	server := httptest.NewServer(NewRouter(NewHandler(svc)))
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "healthy", got["status"])
	assert.Equal(t, float64(42), got["indexed_chunks"])

	collections, ok := got["collections"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(40), collections["infinitepay_text"])
	assert.Equal(t, float64(1), collections["infinitepay_pricing"])
	assert.Equal(t, float64(1), collections["infinitepay_structured"])
}

func TestHealthDegradedWhenCountFails(t *testing.T) {
	svc := &stubService{countErr: errors.New("db down")}
	server := httptest.NewServer(NewRouter(NewHandler(svc)))
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "degraded", got["status"])
}
