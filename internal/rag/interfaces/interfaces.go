package interfaces

import (
	"context"

	"finassist/internal/rag/schema"
)

// Loader is the interface for reading a source file and extracting its full
// text content.
type Loader interface {
	Load(ctx context.Context, path string) (string, error)
}

// Splitter is the interface for cutting a document's text into bounded,
// overlapping chunks.
type Splitter interface {
	Split(text string) ([]string, error)
}

// EmbeddingModel is the interface for a text embedding model.
type EmbeddingModel interface {
	// Embed generates the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch generates embedding vectors for a batch of texts,
	// preserving input order and length.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore is the interface for the vector index: schema verification,
// point writes and similarity search.
type VectorStore interface {
	// Verify checks that the collection exists with the expected dimension.
	// A wrong dimension is a *schema.SchemaMismatchError; an absent
	// collection wraps schema.ErrCollectionNotFound.
	Verify(ctx context.Context) error
	// Ensure creates the collection when it does not exist. It never
	// repairs an existing collection with the wrong dimension.
	Ensure(ctx context.Context) error
	// Upsert writes points in sequential durable batches. On failure it
	// returns a *schema.UpsertError; earlier batches remain persisted.
	Upsert(ctx context.Context, points []schema.Point) error
	// Search returns up to limit nearest points, optionally restricted to
	// one documentId. It degrades to an empty result set when the index is
	// unreachable or misconfigured; retrieval failure must not fail the
	// caller.
	Search(ctx context.Context, vector []float32, limit int, documentID string) []schema.ScoredPoint
}

// DocumentStore is the metadata record store for ingested documents.
type DocumentStore interface {
	Create(ctx context.Context, id, filename, vectorID string) error
	ExistsByFilename(ctx context.Context, filename string) (bool, error)
	ListFilenames(ctx context.Context) ([]string, error)
}
