package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"

	"finassist/internal/rag/embeddings"
	"finassist/internal/rag/schema"
	"finassist/pkg/logger"
)

type fakeDocumentStore struct {
	existing  map[string]bool
	created   []string
	createErr error
}

func (f *fakeDocumentStore) Create(_ context.Context, id, filename, vectorID string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, filename)
	return nil
}

func (f *fakeDocumentStore) ExistsByFilename(_ context.Context, filename string) (bool, error) {
	return f.existing[filename], nil
}

func (f *fakeDocumentStore) ListFilenames(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(f.existing))
	for name := range f.existing {
		names = append(names, name)
	}
	return names, nil
}

type fakeSplitter struct {
	chunks []string
	err    error
}

func (f *fakeSplitter) Split(string) ([]string, error) { return f.chunks, f.err }

type fakeEmbedder struct {
	dimension int
	err       error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, f.dimension), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, f.dimension)
	}
	return vectors, nil
}

type fakeVectorStore struct {
	verifyErr error
	upsertErr error
	upserted  []schema.Point
	searched  []schema.ScoredPoint
}

func (f *fakeVectorStore) Verify(context.Context) error { return f.verifyErr }
func (f *fakeVectorStore) Ensure(context.Context) error { return f.verifyErr }

func (f *fakeVectorStore) Upsert(_ context.Context, points []schema.Point) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, vector []float32, limit int, documentID string) []schema.ScoredPoint {
	return f.searched
}

func newIndexing(docs *fakeDocumentStore, split *fakeSplitter, embed *fakeEmbedder, store *fakeVectorStore) *IndexingPipeline {
	return NewIndexingPipeline(docs, split, embed, store, logger.New("test"))
}

func TestRunText_BuildsAndStoresPoints(t *testing.T) {
	docs := &fakeDocumentStore{existing: map[string]bool{}}
	store := &fakeVectorStore{}
	p := newIndexing(docs, &fakeSplitter{chunks: []string{"chunk one", "chunk two"}}, &fakeEmbedder{dimension: 768}, store)

	result, err := p.RunText(context.Background(), "document text", "loans.pdf")
	if err != nil {
		t.Fatalf("RunText() error = %v", err)
	}
	if result.Chunks != 2 || result.Vectors != 2 || result.Dimensions != 768 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if len(store.upserted) != 2 {
		t.Fatalf("Expected 2 upserted points, got %d", len(store.upserted))
	}
	if len(docs.created) != 1 || docs.created[0] != "loans.pdf" {
		t.Errorf("Expected one metadata record for loans.pdf, got %v", docs.created)
	}

	first := store.upserted[0]
	if first.Payload.Chunk != "chunk one" || first.Payload.ChunkIndex != 0 {
		t.Errorf("Unexpected first payload: %+v", first.Payload)
	}
	if first.Payload.Filename != "loans.pdf" {
		t.Errorf("Expected filename in payload, got %q", first.Payload.Filename)
	}
	if first.Payload.DocumentID != result.DocumentID {
		t.Error("Payload documentId does not match the returned document id")
	}
	if first.Payload.CreatedAt == "" {
		t.Error("Expected a createdAt timestamp in the payload")
	}
}

func TestRunText_PointIDsAreDeterministic(t *testing.T) {
	if PointID("doc-1", 0) != PointID("doc-1", 0) {
		t.Error("Point id derivation is not deterministic")
	}
	if PointID("doc-1", 0) == PointID("doc-1", 1) {
		t.Error("Different chunk indexes must produce different point ids")
	}
	if PointID("doc-1", 0) == PointID("doc-2", 0) {
		t.Error("Different documents must produce different point ids")
	}
}

func TestRunText_HaltsBeforeWritesOnSchemaMismatch(t *testing.T) {
	docs := &fakeDocumentStore{existing: map[string]bool{}}
	store := &fakeVectorStore{verifyErr: &schema.SchemaMismatchError{Collection: "pdf_chunks", Size: 384, Want: 768}}
	p := newIndexing(docs, &fakeSplitter{chunks: []string{"chunk"}}, &fakeEmbedder{dimension: 768}, store)

	_, err := p.RunText(context.Background(), "text", "loans.pdf")
	var mismatch *schema.SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Expected SchemaMismatchError, got %v", err)
	}
	if len(docs.created) != 0 {
		t.Error("No metadata record may be written when verification fails")
	}
	if len(store.upserted) != 0 {
		t.Error("No points may be written when verification fails")
	}
}

func TestRunText_PropagatesUpsertError(t *testing.T) {
	docs := &fakeDocumentStore{existing: map[string]bool{}}
	store := &fakeVectorStore{upsertErr: &schema.UpsertError{Offset: 50, Err: errors.New("write failed")}}
	p := newIndexing(docs, &fakeSplitter{chunks: []string{"chunk"}}, &fakeEmbedder{dimension: 768}, store)

	_, err := p.RunText(context.Background(), "text", "loans.pdf")
	var upsertErr *schema.UpsertError
	if !errors.As(err, &upsertErr) {
		t.Fatalf("Expected UpsertError, got %v", err)
	}
	if upsertErr.Offset != 50 {
		t.Errorf("Expected offset 50, got %d", upsertErr.Offset)
	}
}

type fakeLoader struct {
	text string
	err  error
}

func (f *fakeLoader) Load(context.Context, string) (string, error) { return f.text, f.err }

func TestRun_SkipsAlreadyIngestedFilename(t *testing.T) {
	docs := &fakeDocumentStore{existing: map[string]bool{"loans.pdf": true}}
	store := &fakeVectorStore{}
	p := newIndexing(docs, &fakeSplitter{chunks: []string{"chunk"}}, &fakeEmbedder{dimension: 768}, store)

	result, err := p.Run(context.Background(), &fakeLoader{text: "text"}, "/data/loans.pdf")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result != nil {
		t.Error("Expected a nil result for an already-ingested file")
	}
	if len(store.upserted) != 0 {
		t.Error("An already-ingested file must not be written again")
	}
}

func TestRetrievalRun_JoinsChunksWithSeparator(t *testing.T) {
	store := &fakeVectorStore{searched: []schema.ScoredPoint{
		{ID: "p1", Score: 0.9, Payload: map[string]interface{}{"chunk": "first chunk"}},
		{ID: "p2", Score: 0.8, Payload: map[string]interface{}{"chunk": "second chunk"}},
		{ID: "p3", Score: 0.7, Payload: map[string]interface{}{"other": "no chunk key"}},
	}}
	p := NewRetrievalPipeline(&fakeEmbedder{dimension: 768}, embeddings.NewHashEmbedder(), store, nil, logger.New("test"))

	got := p.Run(context.Background(), "what are the loan rates?", "")
	want := "first chunk" + ContextSeparator + "second chunk"
	if got != want {
		t.Errorf("Run() = %q, want %q", got, want)
	}
}

func TestRetrievalRun_EmptyOnNoResults(t *testing.T) {
	p := NewRetrievalPipeline(&fakeEmbedder{dimension: 768}, embeddings.NewHashEmbedder(), &fakeVectorStore{}, nil, logger.New("test"))

	if got := p.Run(context.Background(), "question", ""); got != "" {
		t.Errorf("Expected empty context, got %q", got)
	}
}

func TestRetrievalRun_FallsBackWhenPrimaryFails(t *testing.T) {
	store := &fakeVectorStore{}
	primary := &fakeEmbedder{dimension: 768, err: errors.New("service unavailable")}
	p := NewRetrievalPipeline(primary, embeddings.NewHashEmbedder(), store, nil, logger.New("test"))

	// The fallback produces a 384-dimension vector; the fake store accepts
	// any vector, so an empty context here proves only that no panic or
	// error escaped the degraded path.
	if got := p.Run(context.Background(), "question", ""); got != "" {
		t.Errorf("Expected empty context from the degraded path, got %q", got)
	}
}

func TestRetrievalRun_WithoutPrimaryEmbedder(t *testing.T) {
	p := NewRetrievalPipeline(nil, embeddings.NewHashEmbedder(), &fakeVectorStore{}, nil, logger.New("test"))

	if got := p.Run(context.Background(), "question", ""); got != "" {
		t.Errorf("Expected empty context, got %q", got)
	}
}

func TestInitializeDocuments_NoopWhenAllPresent(t *testing.T) {
	docs := &fakeDocumentStore{existing: map[string]bool{"loans.pdf": true}}
	store := &fakeVectorStore{}
	p := newIndexing(docs, &fakeSplitter{chunks: []string{"chunk"}}, &fakeEmbedder{dimension: 768}, store)

	if err := p.InitializeDocuments(context.Background(), []string{"/data/loans.pdf"}); err != nil {
		t.Fatalf("InitializeDocuments() error = %v", err)
	}
	if len(store.upserted) != 0 {
		t.Error("Expected no ingestion when every document is present")
	}
}

func TestInitializeDocuments_IngestsMissingSources(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/rates.csv"
	content := "product,rate\nhome loan,8.5\ncar loan,9.2\n"
	if err := writeFile(path, content); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	docs := &fakeDocumentStore{existing: map[string]bool{}}
	store := &fakeVectorStore{}
	split := &fakeSplitter{chunks: []string{"a chunk of the rates table"}}
	p := newIndexing(docs, split, &fakeEmbedder{dimension: 768}, store)

	if err := p.InitializeDocuments(context.Background(), []string{path}); err != nil {
		t.Fatalf("InitializeDocuments() error = %v", err)
	}
	if len(docs.created) != 1 {
		t.Fatalf("Expected 1 ingested document, got %d", len(docs.created))
	}
	if docs.created[0] != "rates.csv" {
		t.Errorf("Expected rates.csv to be ingested, got %s", docs.created[0])
	}
}

func TestRunAll_ContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	good := dir + "/good.csv"
	if err := writeFile(good, "a,b\n1,2\n"); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	docs := &fakeDocumentStore{existing: map[string]bool{}}
	store := &fakeVectorStore{}
	p := newIndexing(docs, &fakeSplitter{chunks: []string{"a chunk"}}, &fakeEmbedder{dimension: 768}, store)

	processed, failed := p.RunAll(context.Background(), []string{
		dir + "/missing.pdf",
		good,
		dir + "/unsupported.txt",
	})
	if processed != 1 {
		t.Errorf("Expected 1 processed source, got %d", processed)
	}
	if failed != 2 {
		t.Errorf("Expected 2 failed sources, got %d", failed)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
