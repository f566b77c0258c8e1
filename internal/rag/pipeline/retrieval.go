package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"finassist/internal/rag/interfaces"
	"finassist/pkg/logger"
)

// ContextSeparator joins retrieved chunks into the grounding context string.
const ContextSeparator = "\n---\n"

// defaultTopK bounds the number of chunks assembled into the context.
const defaultTopK = 5

// embeddingCacheTTL bounds how long a cached question embedding is reused.
const embeddingCacheTTL = time.Hour

// RetrievalPipeline answers "what do we know about this question" by
// embedding the question, searching the vector index and assembling a
// bounded context string. It never fails: every degradation step ends in an
// empty context so chat generation can proceed without grounding.
type RetrievalPipeline struct {
	embedder    interfaces.EmbeddingModel // primary; nil when the credential is absent
	fallback    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	cache       *redis.Client // optional query-embedding cache
	log         *logger.Logger
	topK        int
}

// NewRetrievalPipeline creates a new RetrievalPipeline. embedder may be nil
// (no primary credential), cache may be nil (no Redis configured); both
// degrade gracefully.
func NewRetrievalPipeline(
	embedder interfaces.EmbeddingModel,
	fallback interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	cache *redis.Client,
	log *logger.Logger,
) *RetrievalPipeline {
	return &RetrievalPipeline{
		embedder:    embedder,
		fallback:    fallback,
		vectorStore: vectorStore,
		cache:       cache,
		log:         log,
		topK:        defaultTopK,
	}
}

// Run retrieves the grounding context for a question, optionally restricted
// to one document. The result is the top chunks joined with
// ContextSeparator, or "" when nothing relevant is available.
func (p *RetrievalPipeline) Run(ctx context.Context, question, documentID string) string {
	vector := p.questionVector(ctx, question)
	if vector == nil {
		return ""
	}

	results := p.vectorStore.Search(ctx, vector, p.topK, documentID)
	if len(results) == 0 {
		return ""
	}

	chunks := make([]string, 0, len(results))
	for _, point := range results {
		if text, ok := point.ChunkText(); ok {
			chunks = append(chunks, text)
		}
	}
	if len(chunks) == 0 {
		return ""
	}

	p.log.Info("Found relevant chunks for question")
	return strings.Join(chunks, ContextSeparator)
}

// questionVector produces the question embedding: cache, then the primary
// embedder, then the degraded hash embedder. Fallback vectors have a
// different dimension and are rejected by the vector store, which turns the
// degraded path into an empty context rather than a wrong-collection write.
func (p *RetrievalPipeline) questionVector(ctx context.Context, question string) []float32 {
	if vector := p.cachedVector(ctx, question); vector != nil {
		return vector
	}

	if p.embedder != nil {
		vector, err := p.embedder.Embed(ctx, question)
		if err == nil {
			p.storeVector(ctx, question, vector)
			return vector
		}
		p.log.WithErr(err).Warn("Primary embedding failed, using fallback")
	}

	vector, _ := p.fallback.Embed(ctx, question)
	return vector
}

func cacheKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return "finassist:qembed:" + hex.EncodeToString(sum[:])
}

func (p *RetrievalPipeline) cachedVector(ctx context.Context, question string) []float32 {
	if p.cache == nil {
		return nil
	}
	data, err := p.cache.Get(ctx, cacheKey(question)).Bytes()
	if err != nil {
		return nil
	}
	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		return nil
	}
	return vector
}

func (p *RetrievalPipeline) storeVector(ctx context.Context, question string, vector []float32) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, cacheKey(question), data, embeddingCacheTTL).Err(); err != nil {
		p.log.WithErr(err).Debug("Failed to cache question embedding")
	}
}
