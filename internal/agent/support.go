package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
	"github.com/andrevrochaz/agent-swarm-rag/internal/tools"
)

const supportSystemPrompt = `You are a Customer Support Agent for InfinitePay, specialized in helping customers with account issues, technical problems, and support requests.

Common support scenarios:
- Login/access issues
- Transaction problems
- Account restrictions/blocks
- Transfer limitations
- Technical difficulties
- Product troubleshooting

Instructions:
1. Use the customer information provided below when available
2. Provide step-by-step solutions when possible
3. Be empathetic and professional
4. If you identify account issues, explain them clearly
5. Escalate complex issues when necessary
6. Respond in the same language as the customer

Be helpful, understanding, and solution-focused.`

const supportErrorAnswer = "I apologize for the technical difficulty. Please contact our support team directly for immediate assistance."

var transactionKeywords = []string{"transfer", "payment", "transaction", "pix", "money"}

// Support handles account and troubleshooting requests backed by the
// customer store.
type Support struct {
	llm   rag.LLMClient
	store *tools.CustomerStore
}

func NewSupport(llm rag.LLMClient, store *tools.CustomerStore) *Support {
	return &Support{llm: llm, store: store}
}

func (s *Support) Process(ctx context.Context, message, userID string) Response {
	var (
		toolCalls []ToolCall
		customer  *tools.Customer
		status    *tools.AccountStatus
		txns      []tools.Transaction
	)

	if userID != "" {
		var err error
		customer, err = s.store.GetCustomer(ctx, userID)
		switch {
		case errors.Is(err, tools.ErrCustomerNotFound):
			toolCalls = append(toolCalls, ToolCall{
				ToolName:   "get_customer_info",
				ToolInput:  map[string]any{"user_id": userID},
				ToolOutput: map[string]any{"success": false, "error": "Customer not found"},
			})
		case err != nil:
			log.Printf("customer lookup failed: %v", err)
		default:
			toolCalls = append(toolCalls, ToolCall{
				ToolName:   "get_customer_info",
				ToolInput:  map[string]any{"user_id": userID},
				ToolOutput: map[string]any{"success": true, "name": customer.Name, "account_status": customer.AccountStatus},
			})

			status, err = s.store.CheckAccountStatus(ctx, userID)
			if err != nil {
				log.Printf("account status check failed: %v", err)
			} else {
				toolCalls = append(toolCalls, ToolCall{
					ToolName:   "check_account_status",
					ToolInput:  map[string]any{"user_id": userID},
					ToolOutput: map[string]any{"success": true, "account_status": status.Status, "issues": status.Issues},
				})
			}

			if mentionsTransactions(message) {
				txns, err = s.store.RecentTransactions(ctx, userID, 3)
				if err != nil {
					log.Printf("transaction lookup failed: %v", err)
				} else {
					toolCalls = append(toolCalls, ToolCall{
						ToolName:   "get_recent_transactions",
						ToolInput:  map[string]any{"user_id": userID, "limit": 3},
						ToolOutput: map[string]any{"success": true, "count": len(txns)},
					})
				}
			}
		}
	}

	prompt := buildSupportPrompt(message, customer, status, txns)

	answer, err := s.llm.Generate(ctx, supportSystemPrompt, prompt, nil)
	if err != nil {
		log.Printf("support generation failed: %v", err)
		answer = supportErrorAnswer
	}

	confidence := 0.6
	if customer != nil {
		confidence = 0.9
	}

	return Response{
		AgentName:  "Support",
		AgentType:  TypeSupport,
		Response:   answer,
		ToolCalls:  toolCalls,
		Confidence: confidence,
		Metadata: map[string]any{
			"customer_found": customer != nil,
			"tools_used":     len(toolCalls),
			"user_id":        userID,
		},
	}
}

func mentionsTransactions(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range transactionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func buildSupportPrompt(message string, customer *tools.Customer, status *tools.AccountStatus, txns []tools.Transaction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Customer Message: %s\n\n", message)

	if customer != nil {
		fmt.Fprintf(&b, "Customer Information:\n- Name: %s\n- Account Status: %s\n- Products: %s\n- Balance: R$ %.2f\n\n",
			customer.Name, customer.AccountStatus, strings.Join(customer.Products, ", "), customer.Balance)

		if status != nil && len(status.Issues) > 0 {
			fmt.Fprintf(&b, "Account Issues Detected: %s\n\n", strings.Join(status.Issues, ", "))
		}

		if len(txns) > 0 {
			b.WriteString("Recent Transactions:\n")
			for _, t := range txns {
				fmt.Fprintf(&b, "- %s: %s (R$ %.2f)\n", t.Date, t.Description, t.Amount)
			}
			b.WriteString("\n")
		}
	} else {
		b.WriteString("Note: Customer information not available.\n\n")
	}

	b.WriteString("Provide helpful customer support based on the customer's message and available information.\n" +
		"If you identified specific account issues, address them directly.\n" +
		"Offer concrete solutions and next steps.")

	return b.String()
}
