package rag

import "context"

type EmbeddingsClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type LLMClient interface {
	Generate(ctx context.Context, systemPrompt, userMessage string, temperature *float32) (string, error)
}
