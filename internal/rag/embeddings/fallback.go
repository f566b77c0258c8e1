package embeddings

import (
	"context"

	"finassist/internal/rag/interfaces"
)

// FallbackDimension is the vector size produced by the hash embedder. It
// deliberately differs from the primary Dimension: fallback vectors must
// never be written to or searched against the primary collection, and the
// vector store enforces that at its boundary.
const FallbackDimension = 384

// HashEmbedder is a deterministic degraded-mode embedder that maps text to a
// fixed-dimension vector via a character-code hash. It is used only when the
// primary embedding credential is absent or the primary call fails at query
// time.
type HashEmbedder struct{}

// NewHashEmbedder creates a HashEmbedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

// Embed maps text to a FallbackDimension vector. It never fails.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, FallbackDimension)
	for i, r := range []byte(text) {
		vector[i%FallbackDimension] += float32(r) / 255
	}
	return vector, nil
}

// EmbedBatch maps each text independently via Embed.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i], _ = e.Embed(ctx, text)
	}
	return vectors, nil
}

// compile-time check to ensure HashEmbedder implements the EmbeddingModel interface
var _ interfaces.EmbeddingModel = (*HashEmbedder)(nil)
