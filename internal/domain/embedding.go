package domain

import "context"

// EmbeddingResult holds a query embedding and provider token usage.
type EmbeddingResult struct {
	Embedding   []float32
	TotalTokens int
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}
