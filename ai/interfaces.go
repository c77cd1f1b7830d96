package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error wrapping ErrEmbeddingUnavailable if the provider
	// fails or times out.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error wrapping ErrEmbeddingUnavailable if the
	// provider fails or times out.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
