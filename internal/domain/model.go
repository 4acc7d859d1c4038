package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Completer is the chat-completion contract used by the search router.
type Completer interface {
	// RewriteQuery expands a short user query into a longer descriptive
	// passage. Implementations fall back to the original query on failure.
	RewriteQuery(ctx context.Context, query string) (string, error)
	// CaptionImage describes an uploaded image. Failures propagate; there is
	// no fallback caption.
	CaptionImage(ctx context.Context, image []byte) (string, error)
}

// HealthChecker verifies model provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
