package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
)

const knowledgeSystemPrompt = `You are a Knowledge Agent specialized in providing information about InfinitePay's products and services.

Your primary source of information is InfinitePay's website content, retrieved for you below.

InfinitePay Products/Services:
- Maquininhas (card readers): Smart, Celular, Tap-to-Pay
- Payment solutions: PIX, Boleto, Link de Pagamento
- Business tools: PDV, Loja Online, Gestão de Cobrança
- Financial services: Conta Digital, Empréstimo, Cartão, Rendimento

Instructions:
1. Answer using the retrieved context first
2. Always cite your sources
3. Provide accurate, helpful information
4. If you don't have specific information, say so clearly
5. Respond in the same language as the user's question

Be conversational but professional. Focus on being helpful and accurate.`

// Queries mentioning any of these go through retrieval.
var infinitePayKeywords = []string{
	"infinitepay", "maquininha", "maquinha", "smart", "celular",
	"tap-to-pay", "pix", "boleto", "conta digital", "emprestimo",
	"cartao", "rendimento", "pdv", "loja online", "taxa", "fee",
	"rate", "cost", "price",
}

const fallbackAnswer = "I apologize, but I'm having trouble accessing information sources right now. " +
	"Could you please rephrase your question or try again later?"

// Knowledge answers product questions from the retrieval pipeline.
type Knowledge struct {
	llm       rag.LLMClient
	retriever *rag.Service
}

func NewKnowledge(llm rag.LLMClient, retriever *rag.Service) *Knowledge {
	return &Knowledge{llm: llm, retriever: retriever}
}

func (k *Knowledge) Process(ctx context.Context, message string) Response {
	var toolCalls []ToolCall
	answer := ""

	if isInfinitePayQuery(message) {
		results := k.retriever.Search(ctx, message, 5, rag.ScopeAll)
		if len(results) > 0 {
			insights := rag.AggregateInsights(message, results)

			toolCalls = append(toolCalls, ToolCall{
				ToolName:  "rag_retrieval",
				ToolInput: map[string]any{"query": message},
				ToolOutput: map[string]any{
					"results_count":  len(results),
					"top_similarity": results[0].Similarity,
				},
			})
			if insights.HasPricingData {
				toolCalls = append(toolCalls, ToolCall{
					ToolName:  "pricing_insights",
					ToolInput: map[string]any{"query": message},
					ToolOutput: map[string]any{
						"payment_methods": insights.PaymentMethods,
						"rate_ranges":     insights.RateRanges,
						"volume_tiers":    insights.VolumeTiers,
					},
				})
			}

			prompt := buildKnowledgePrompt(message, results, insights)
			generated, err := k.llm.Generate(ctx, knowledgeSystemPrompt, prompt, nil)
			if err != nil {
				log.Printf("knowledge generation failed: %v", err)
			} else {
				answer = generated
			}
		}
	}

	if answer == "" {
		answer = fallbackAnswer
	}

	confidence := 0.3
	if len(toolCalls) > 0 {
		confidence = 0.8
	}

	return Response{
		AgentName:  "Knowledge",
		AgentType:  TypeKnowledge,
		Response:   answer,
		ToolCalls:  toolCalls,
		Confidence: confidence,
		Metadata: map[string]any{
			"used_rag":      len(toolCalls) > 0,
			"sources_count": len(toolCalls),
		},
	}
}

func isInfinitePayQuery(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range infinitePayKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func buildKnowledgePrompt(message string, results []rag.RetrievalResult, insights rag.PricingInsights) string {
	var b strings.Builder

	b.WriteString("Based on the following InfinitePay website content, answer the user's question.\n\n")
	b.WriteString("Retrieved Content:\n")

	for _, r := range results {
		excerpt := r.Content
		if len(excerpt) > 500 {
			excerpt = excerpt[:500] + "..."
		}
		fmt.Fprintf(&b, "\nSource: %s\nTitle: %s\nType: %s\nContent: %s\nSimilarity: %.2f\n",
			r.Metadata["url"], r.Metadata["title"], r.Kind, excerpt, r.Similarity)
	}

	if insights.HasPricingData {
		b.WriteString("\nStructured pricing summary:\n")
		for _, method := range insights.PaymentMethods {
			if rng, ok := insights.RateRanges[method]; ok {
				fmt.Fprintf(&b, "- %s: %.2f%% to %.2f%%\n", method, rng.Min, rng.Max)
			} else {
				fmt.Fprintf(&b, "- %s: rate mentioned without a numeric value\n", method)
			}
		}
		if len(insights.VolumeTiers) > 0 {
			fmt.Fprintf(&b, "- volume tiers: %s\n", strings.Join(insights.VolumeTiers, ", "))
		}
		// First few observations are enough for the prompt.
		obs := insights.SpecificRates
		if len(obs) > 5 {
			obs = obs[:5]
		}
		for _, o := range obs {
			fmt.Fprintf(&b, "- observed: %s at %s (%s)\n", o.Method, o.Rate, o.Conditions)
		}
	}

	fmt.Fprintf(&b, "\nUser Question: %s\n\n", message)
	b.WriteString("Provide a helpful, accurate answer based on the retrieved content. " +
		"If the content doesn't fully answer the question, say so and provide what information you can.")

	return b.String()
}
