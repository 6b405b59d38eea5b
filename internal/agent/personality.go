package agent

import (
	"context"
	"fmt"
	"log"

	wl "github.com/abadojack/whatlanggo"

	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
)

const personalitySystemPrompt = `You are a Personality Agent that adds a human-like, friendly touch to responses from other agents.

Your role:
1. Take the technical/formal response from other agents
2. Make it more conversational and human-like
3. Add appropriate empathy and warmth
4. Maintain all the factual information

Personality traits to embody:
- Friendly and approachable
- Helpful and solution-oriented
- Empathetic to customer concerns
- Professional but warm
- Clear and easy to understand

Do NOT:
- Change any factual information
- Add information not in the original response
- Be overly casual or unprofessional
- Use excessive enthusiasm that seems fake`

// Personality rewrites a source agent's answer in a warmer register,
// keeping the facts intact and matching the user's language.
type Personality struct {
	llm rag.LLMClient
}

func NewPersonality(llm rag.LLMClient) *Personality {
	return &Personality{llm: llm}
}

func (p *Personality) Process(ctx context.Context, originalQuery, sourceAgent, sourceResponse string) Response {
	if sourceResponse == "" {
		log.Printf("no source response provided to personality agent")
		return Response{
			AgentName:  "Personality",
			AgentType:  TypePersonality,
			Response:   "I'm here to help! How can I assist you today?",
			Confidence: 0.5,
			Metadata:   map[string]any{"error": "No source response provided"},
		}
	}

	language := detectLanguage(originalQuery)

	prompt := fmt.Sprintf(`Original user query: %s

Source agent response from %s agent:
%s

Transform this response to be more human-like and friendly while keeping all the factual information exactly the same. Make it conversational and warm. Write the final answer in %s.`,
		originalQuery, sourceAgent, sourceResponse, language)

	temp := float32(0.8)
	enhanced, err := p.llm.Generate(ctx, personalitySystemPrompt, prompt, &temp)
	if err != nil {
		// The plain answer still beats no answer.
		log.Printf("personality generation failed: %v", err)
		return Response{
			AgentName:  "Personality",
			AgentType:  TypePersonality,
			Response:   sourceResponse,
			Confidence: 0.0,
			Metadata:   map[string]any{"error": err.Error(), "fallback_used": true},
		}
	}

	excerpt := sourceResponse
	if len(excerpt) > 100 {
		excerpt = excerpt[:100] + "..."
	}

	return Response{
		AgentName: "Personality",
		AgentType: TypePersonality,
		Response:  enhanced,
		ToolCalls: []ToolCall{{
			ToolName: "personality_enhancement",
			ToolInput: map[string]any{
				"original_response": excerpt,
				"source_agent":      sourceAgent,
			},
			ToolOutput: map[string]any{
				"enhancement_applied": true,
				"response_length":     len(enhanced),
				"target_language":     language,
			},
		}},
		Confidence: 0.9,
		Metadata: map[string]any{
			"source_agent":    sourceAgent,
			"original_length": len(sourceResponse),
			"enhanced_length": len(enhanced),
		},
	}
}

func detectLanguage(s string) string {
	info := wl.Detect(s)
	switch wl.LangToString(info.Lang) {
	case "por":
		return "Brazilian Portuguese"
	case "spa":
		return "Spanish"
	default:
		return "English"
	}
}
