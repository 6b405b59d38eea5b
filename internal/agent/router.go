package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
)

const routerSystemPrompt = `You are a Router Agent responsible for analyzing user messages and determining which specialized agent should handle the request.

Available agents:
1. KNOWLEDGE - Handles questions about InfinitePay products, services, fees, and general information
2. SUPPORT - Handles customer support issues, account problems, technical issues, and user-specific queries

Analyze the user message and respond with a JSON object containing:
{
    "agent": "KNOWLEDGE" or "SUPPORT",
    "reasoning": "Brief explanation of why this agent was chosen",
    "priority": "high", "medium", or "low",
    "context": {
        "user_intent": "description of what user wants",
        "query_type": "product_info", "pricing", "technical_support", "account_issue", etc.
    }
}

Examples:
- "What are the fees for Maquininha Smart?" -> KNOWLEDGE (product pricing info)
- "How can I use my phone as a card machine?" -> KNOWLEDGE (product features)
- "I can't sign in to my account" -> SUPPORT (account access issue)
- "Why can't I make transfers?" -> SUPPORT (account functionality issue)
- "What is PIX?" -> KNOWLEDGE (product/service information)

Always respond with valid JSON only.`

// Router asks the LLM which specialized agent should handle a message.
type Router struct {
	llm rag.LLMClient
}

func NewRouter(llm rag.LLMClient) *Router {
	return &Router{llm: llm}
}

type routingDecision struct {
	Agent     string         `json:"agent"`
	Reasoning string         `json:"reasoning"`
	Priority  string         `json:"priority"`
	Context   map[string]any `json:"context"`
}

func (r *Router) Process(ctx context.Context, message string) Response {
	temp := float32(0.1)
	raw, err := r.llm.Generate(ctx, routerSystemPrompt, "User message: "+message, &temp)
	if err != nil {
		log.Printf("router generation failed: %v", err)
		return Response{
			AgentName:  "Router",
			AgentType:  TypeRouter,
			Response:   "Routing to KNOWLEDGE agent (fallback)",
			Confidence: 0.5,
			Metadata:   map[string]any{"agent": "KNOWLEDGE", "reasoning": "Error fallback"},
		}
	}

	decision := parseRoutingDecision(raw)

	return Response{
		AgentName: "Router",
		AgentType: TypeRouter,
		Response:  fmt.Sprintf("Routing to %s agent: %s", decision.Agent, decision.Reasoning),
		ToolCalls: []ToolCall{{
			ToolName:  "route_analysis",
			ToolInput: map[string]any{"message": message},
			ToolOutput: map[string]any{
				"agent":     decision.Agent,
				"reasoning": decision.Reasoning,
				"priority":  decision.Priority,
				"context":   decision.Context,
			},
		}},
		Confidence: 0.9,
		Metadata: map[string]any{
			"agent":     decision.Agent,
			"reasoning": decision.Reasoning,
			"priority":  decision.Priority,
			"context":   decision.Context,
		},
	}
}

func parseRoutingDecision(raw string) routingDecision {
	var decision routingDecision

	// Models like to wrap JSON in code fences.
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &decision); err != nil || decision.Agent == "" {
		log.Printf("failed to parse routing JSON: %q", raw)
		return routingDecision{
			Agent:     "KNOWLEDGE",
			Reasoning: "Default routing due to parsing error",
			Priority:  "medium",
			Context:   map[string]any{"user_intent": "unknown", "query_type": "general"},
		}
	}

	decision.Agent = strings.ToUpper(decision.Agent)
	if decision.Agent != "SUPPORT" {
		decision.Agent = "KNOWLEDGE"
	}
	return decision
}
