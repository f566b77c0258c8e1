package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"finassist/internal/rag/interfaces"
	"finassist/internal/rag/loaders"
	"finassist/internal/rag/schema"
	"finassist/pkg/logger"
)

// pointNamespace is the UUIDv5 namespace for point ids. Deriving point ids
// from (documentId, chunkIndex) makes re-upserting a document's chunks
// overwrite the previous points instead of accumulating duplicates.
var pointNamespace = uuid.MustParse("3c2e4cb6-9d8f-4a71-b0cd-5f6a2e61d04b")

// PointID derives the deterministic point id for one chunk of a document.
func PointID(documentID string, chunkIndex int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("%s:%d", documentID, chunkIndex))).String()
}

// IndexingPipeline orchestrates document ingestion: idempotence check,
// text extraction, splitting, embedding, metadata record and point upsert.
type IndexingPipeline struct {
	documents   interfaces.DocumentStore
	splitter    interfaces.Splitter
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	log         *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	documents interfaces.DocumentStore,
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	log *logger.Logger,
) *IndexingPipeline {
	return &IndexingPipeline{
		documents:   documents,
		splitter:    splitter,
		embedder:    embedder,
		vectorStore: vectorStore,
		log:         log,
	}
}

// Run ingests one source file. A filename already present in the metadata
// store makes the run a no-op with a nil result, which is what keeps batch
// ingestion idempotent and re-runnable after partial failures.
func (p *IndexingPipeline) Run(ctx context.Context, loader interfaces.Loader, path string) (*schema.IngestResult, error) {
	filename := filepath.Base(path)

	exists, err := p.documents.ExistsByFilename(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to check metadata store for %s: %w", filename, err)
	}
	if exists {
		p.log.Info(fmt.Sprintf("Document %s already ingested, skipping", filename))
		return nil, nil
	}

	text, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return p.RunText(ctx, text, filename)
}

// RunText ingests already-extracted text under the given filename. The
// collection schema is verified before any embedding work or writes; a
// dimension mismatch halts ingestion here.
func (p *IndexingPipeline) RunText(ctx context.Context, text, filename string) (*schema.IngestResult, error) {
	if err := p.vectorStore.Verify(ctx); err != nil {
		return nil, err
	}

	chunks, err := p.splitter.Split(text)
	if err != nil {
		return nil, err
	}
	p.log.WithPayload(map[string]interface{}{
		"filename": filename,
		"chunks":   len(chunks),
	}).Info("Split document")

	vectors, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, err
	}

	documentID := uuid.New().String()
	if err := p.documents.Create(ctx, documentID, filename, documentID); err != nil {
		return nil, fmt.Errorf("failed to create document record for %s: %w", filename, err)
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	points := make([]schema.Point, len(chunks))
	for i := range chunks {
		points[i] = schema.Point{
			ID:     PointID(documentID, i),
			Vector: vectors[i],
			Payload: schema.Payload{
				DocumentID: documentID,
				Chunk:      chunks[i],
				ChunkIndex: i,
				Filename:   filename,
				CreatedAt:  createdAt,
			},
		}
	}

	if err := p.vectorStore.Upsert(ctx, points); err != nil {
		return nil, err
	}

	p.log.WithPayload(map[string]interface{}{
		"filename":   filename,
		"documentId": documentID,
		"points":     len(points),
	}).Info("Uploaded document")

	return &schema.IngestResult{
		DocumentID: documentID,
		Filename:   filename,
		Chunks:     len(chunks),
		Vectors:    len(vectors),
		Dimensions: len(vectors[0]),
	}, nil
}

// RunAll ingests every source path and reports how many were processed and
// how many failed. A single file's failure is logged and does not stop the
// batch; already-ingested files count as neither.
func (p *IndexingPipeline) RunAll(ctx context.Context, sources []string) (processed, failed int) {
	for _, path := range sources {
		loader, err := loaders.ForPath(path)
		if err != nil {
			p.log.WithErr(err).Error(fmt.Sprintf("Skipping source %s", path))
			failed++
			continue
		}
		result, err := p.Run(ctx, loader, path)
		if err != nil {
			p.log.WithErr(err).Error(fmt.Sprintf("Failed to process %s", path))
			failed++
			continue
		}
		if result != nil {
			processed++
		}
	}
	return processed, failed
}

// InitializeDocuments checks whether every configured source file already has
// a metadata record and, when any present-on-disk source is missing, runs the
// full batch ingestion. The server calls this once before answering the
// first chat request.
func (p *IndexingPipeline) InitializeDocuments(ctx context.Context, sources []string) error {
	filenames, err := p.documents.ListFilenames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list ingested documents: %w", err)
	}
	ingested := make(map[string]bool, len(filenames))
	for _, name := range filenames {
		ingested[name] = true
	}

	missing := 0
	for _, path := range sources {
		if ingested[filepath.Base(path)] {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			missing++
		}
	}

	if missing == 0 {
		p.log.Info("All documents are already loaded")
		return nil
	}

	p.log.Info(fmt.Sprintf("Found %d missing documents, running loader", missing))
	p.RunAll(ctx, sources)
	return nil
}
