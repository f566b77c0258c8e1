package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"finassist/internal/config"
	"finassist/internal/dal"
	"finassist/internal/database/mysql"
	"finassist/internal/rag/embeddings"
	"finassist/internal/rag/pipeline"
	"finassist/internal/rag/splitters"
	"finassist/internal/rag/storages/vectorstore"
	"finassist/pkg/logger"
)

// ingest loads documents into the vector index and metadata store. Sources
// come from positional arguments, or from the ingestion.sources config list
// when none are given. Per-file failures are logged and skipped; only an
// unusable environment fails the run.
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	logger.Init(logrus.InfoLevel)
	appLogger := logger.New("Ingest")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	sources := flag.Args()
	if len(sources) == 0 {
		sources = cfg.Ingestion.Sources
	}
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "No sources to ingest: pass file paths or set ingestion.sources")
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := mysql.Open(&cfg.MySQL)
	if err != nil {
		appLogger.WithErr(err).Error("Failed to connect to MySQL")
		os.Exit(1)
	}
	documentDAL := dal.NewDocumentDAL(db)

	store := vectorstore.NewQdrantStore(&cfg.Qdrant, appLogger)
	if err := store.Ensure(ctx); err != nil {
		appLogger.WithErr(err).Error("Vector collection is not usable")
		os.Exit(1)
	}

	splitter, err := splitters.NewCharacterSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		appLogger.WithErr(err).Error("Invalid chunking configuration")
		os.Exit(1)
	}

	embedder, err := embeddings.NewGoogleClient(&cfg.Embedding, appLogger)
	if err != nil {
		appLogger.WithErr(err).Error("Embedding client is required for ingestion")
		os.Exit(1)
	}

	indexing := pipeline.NewIndexingPipeline(documentDAL, splitter, embedder, store, appLogger)

	ingested, failed := indexing.RunAll(ctx, sources)
	appLogger.WithPayload(map[string]interface{}{
		"ingested": ingested,
		"failed":   failed,
	}).Info("Ingestion run finished")
}
