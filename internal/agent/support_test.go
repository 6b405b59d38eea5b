package agent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrevrochaz/agent-swarm-rag/internal/tools"
)

func newTestStore(t *testing.T) *tools.CustomerStore {
	t.Helper()
	store, err := tools.OpenCustomerStore(filepath.Join(t.TempDir(), "customers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSupportWithKnownCustomer(t *testing.T) {
	llm := &fakeLLM{reply: "Here is what I found about your account."}
	support := NewSupport(llm, newTestStore(t))

	resp := support.Process(context.Background(), "Why can't I make transfers?", "client789")

	assert.Equal(t, 0.9, resp.Confidence)
	assert.Equal(t, true, resp.Metadata["customer_found"])

	names := make([]string, 0, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		names = append(names, tc.ToolName)
	}
	assert.Contains(t, names, "get_customer_info")
	assert.Contains(t, names, "check_account_status")
	// "transfers" mentions transactions, so history is pulled too.
	assert.Contains(t, names, "get_recent_transactions")

	assert.Contains(t, llm.lastUser, "João Silva")
	assert.Contains(t, llm.lastUser, "Recent Transactions")
}

func TestSupportSkipsTransactionsWhenNotMentioned(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	support := NewSupport(llm, newTestStore(t))

	resp := support.Process(context.Background(), "I forgot my password", "client789")

	for _, tc := range resp.ToolCalls {
		assert.NotEqual(t, "get_recent_transactions", tc.ToolName)
	}
}

func TestSupportUnknownCustomer(t *testing.T) {
	llm := &fakeLLM{reply: "I could not find your account."}
	support := NewSupport(llm, newTestStore(t))

	resp := support.Process(context.Background(), "help me", "ghost999")

	assert.Equal(t, 0.6, resp.Confidence)
	assert.Equal(t, false, resp.Metadata["customer_found"])
	assert.Contains(t, llm.lastUser, "Customer information not available")
}

func TestSupportWithoutUserID(t *testing.T) {
	llm := &fakeLLM{reply: "generic help"}
	support := NewSupport(llm, newTestStore(t))

	resp := support.Process(context.Background(), "help me", "")

	assert.Empty(t, resp.ToolCalls)
	assert.Equal(t, "generic help", resp.Response)
}
