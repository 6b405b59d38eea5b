package agent

type Type string

const (
	TypeRouter      Type = "router"
	TypeKnowledge   Type = "knowledge"
	TypeSupport     Type = "support"
	TypePersonality Type = "personality"
)

// ToolCall records one tool invocation for the workflow trace.
type ToolCall struct {
	ToolName   string         `json:"tool_name"`
	ToolInput  map[string]any `json:"tool_input"`
	ToolOutput map[string]any `json:"tool_output"`
}

// Response is what every agent produces: the text plus enough metadata for
// the orchestrator to route and trace.
type Response struct {
	AgentName  string         `json:"agent_name"`
	AgentType  Type           `json:"agent_type"`
	Response   string         `json:"response"`
	ToolCalls  []ToolCall     `json:"tool_calls"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata"`
}

// WorkflowStep is one entry of the per-request trace returned to clients.
type WorkflowStep struct {
	AgentName string         `json:"agent_name"`
	ToolCalls map[string]any `json:"tool_calls"`
}

// ChatResponse is the final payload of a processed message.
type ChatResponse struct {
	Response            string         `json:"response"`
	SourceAgentResponse string         `json:"source_agent_response"`
	AgentWorkflow       []WorkflowStep `json:"agent_workflow"`
}

func workflowStep(r Response) WorkflowStep {
	calls := make(map[string]any, len(r.ToolCalls))
	for _, tc := range r.ToolCalls {
		calls[tc.ToolName] = tc.ToolOutput
	}
	return WorkflowStep{AgentName: r.AgentName, ToolCalls: calls}
}
