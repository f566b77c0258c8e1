package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"finassist/internal/config"
	"finassist/internal/rag/schema"
	"finassist/internal/rag/storages/vectorstore"
	"finassist/pkg/logger"
)

// create-collection provisions the vector collection. An existing collection
// with the wrong vector size is dropped and recreated; a correct one is left
// untouched. The run ends with a test-point round trip so a green exit means
// the index is actually writable and searchable.
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	recreate := flag.Bool("recreate", false, "drop and recreate the collection even if its schema matches")
	flag.Parse()

	logger.Init(logrus.InfoLevel)
	appLogger := logger.New("CreateCollection")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := vectorstore.NewQdrantStore(&cfg.Qdrant, appLogger)

	info, err := store.Info(ctx)
	switch {
	case err == nil && info.VectorSize == cfg.Qdrant.Dimension && !*recreate:
		appLogger.WithPayload(map[string]interface{}{
			"collection": cfg.Qdrant.Collection,
			"size":       info.VectorSize,
			"distance":   info.Distance,
			"points":     info.PointsCount,
		}).Info("Collection already exists with the expected schema")
	case err == nil:
		if info.VectorSize != cfg.Qdrant.Dimension {
			appLogger.WithPayload(map[string]interface{}{
				"collection": cfg.Qdrant.Collection,
				"have":       info.VectorSize,
				"want":       cfg.Qdrant.Dimension,
			}).Warn("Collection has the wrong vector size, recreating")
		}
		if err := store.Drop(ctx); err != nil {
			appLogger.WithErr(err).Error("Failed to drop collection")
			os.Exit(1)
		}
		createCollection(ctx, appLogger, store)
	case errors.Is(err, schema.ErrCollectionNotFound):
		appLogger.Info(fmt.Sprintf("Collection %s not found, creating", cfg.Qdrant.Collection))
		createCollection(ctx, appLogger, store)
	default:
		appLogger.WithErr(err).Error("Failed to reach the vector index")
		os.Exit(1)
	}

	if err := testRoundTrip(ctx, store, cfg.Qdrant.Dimension); err != nil {
		appLogger.WithErr(err).Error("Collection round-trip check failed")
		os.Exit(1)
	}
	appLogger.Info("Collection is ready")
}

func createCollection(ctx context.Context, log *logger.Logger, store *vectorstore.QdrantStore) {
	optimizers := map[string]interface{}{
		"default_segment_number": 2,
	}
	hnsw := map[string]interface{}{
		"m":            16,
		"ef_construct": 100,
	}
	if err := store.Create(ctx, optimizers, hnsw); err != nil {
		log.WithErr(err).Error("Failed to create collection")
		os.Exit(1)
	}
	log.Info("Collection created")
}

// testRoundTrip upserts one throwaway point, searches for it, and deletes it.
func testRoundTrip(ctx context.Context, store *vectorstore.QdrantStore, dimension int) error {
	vector := make([]float32, dimension)
	for i := range vector {
		vector[i] = 0.1
	}

	id := uuid.New().String()
	point := schema.Point{
		ID:     id,
		Vector: vector,
		Payload: schema.Payload{
			DocumentID: "test-document",
			Chunk:      "test chunk",
			ChunkIndex: 0,
			Filename:   "test.pdf",
			CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := store.Upsert(ctx, []schema.Point{point}); err != nil {
		return fmt.Errorf("test point upsert failed: %w", err)
	}
	if results := store.Search(ctx, vector, 1, "test-document"); len(results) == 0 {
		return fmt.Errorf("test point was not returned by search")
	}
	if err := store.DeletePoints(ctx, []string{id}); err != nil {
		return fmt.Errorf("test point cleanup failed: %w", err)
	}
	return nil
}
