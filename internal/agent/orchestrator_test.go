package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
)

type panickingLLM struct{}

func (panickingLLM) Generate(ctx context.Context, systemPrompt, userMessage string, temperature *float32) (string, error) {
	panic("llm client state corrupted")
}

type countingRepo struct {
	fakeSearchRepo
	counts map[string]int64
}

func (c *countingRepo) Count(ctx context.Context, collection string) (int64, error) {
	return c.counts[collection], nil
}

func TestProcessMessageRunsFullPipeline(t *testing.T) {
	llm := &fakeLLM{reply: `{"agent":"KNOWLEDGE","reasoning":"product question"}`}
	o := NewOrchestrator(OrchestratorDeps{
		Router:      NewRouter(llm),
		Knowledge:   NewKnowledge(llm, newTestRetriever(&fakeSearchRepo{})),
		Personality: NewPersonality(llm),
	})

	resp := o.ProcessMessage(context.Background(), "what's the weather like today", "")

	require.Len(t, resp.AgentWorkflow, 3)
	assert.Equal(t, "Router", resp.AgentWorkflow[0].AgentName)
	assert.Equal(t, "Knowledge", resp.AgentWorkflow[1].AgentName)
	assert.Equal(t, "Personality", resp.AgentWorkflow[2].AgentName)
}

func TestProcessMessageRecoversFromPanic(t *testing.T) {
	o := NewOrchestrator(OrchestratorDeps{
		Router: NewRouter(panickingLLM{}),
	})

	resp := o.ProcessMessage(context.Background(), "hello", "client789")

	assert.Equal(t, apologyAnswer, resp.Response)
	assert.Equal(t, "Error occurred during processing", resp.SourceAgentResponse)
	require.Len(t, resp.AgentWorkflow, 1)
	assert.Equal(t, "error_handler", resp.AgentWorkflow[0].AgentName)

	msg, ok := resp.AgentWorkflow[0].ToolCalls["error"].(string)
	require.True(t, ok)
	assert.Contains(t, msg, "llm client state corrupted")
}

func TestCollectionCounts(t *testing.T) {
	cols := rag.NewCollectionSet("infinitepay")
	repo := &countingRepo{counts: map[string]int64{
		cols.Text:       40,
		cols.Pricing:    1,
		cols.Structured: 1,
	}}
	o := NewOrchestrator(OrchestratorDeps{Repo: repo, Collections: cols})

	counts, err := o.CollectionCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repo.counts, counts)

	total, err := o.IndexedCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)
}
