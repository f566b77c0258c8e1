package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"finassist/internal/chat"
	"finassist/internal/config"
	"finassist/internal/dal"
	mongodb "finassist/internal/database/mongo"
	"finassist/internal/database/mysql"
	redisdb "finassist/internal/database/redis"
	"finassist/internal/llm"
	"finassist/internal/rag/embeddings"
	"finassist/internal/rag/interfaces"
	"finassist/internal/rag/pipeline"
	"finassist/internal/rag/splitters"
	"finassist/internal/rag/storages/vectorstore"
	"finassist/internal/server/api"
	"finassist/pkg/logger"
	"finassist/pkg/ratelimiter"

	goredis "github.com/go-redis/redis/v8"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	logger.Init(logrus.InfoLevel)
	appLogger := logger.New("AssistantServer")
	appLogger.Info("Starting assistant server...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLogger.Info("Configuration loaded successfully.")

	ctx := context.Background()

	db, err := mysql.Open(&cfg.MySQL)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	documentDAL := dal.NewDocumentDAL(db)

	store := vectorstore.NewQdrantStore(&cfg.Qdrant, appLogger)
	if err := store.Verify(ctx); err != nil {
		appLogger.WithErr(err).Warn("Vector collection verification failed at startup")
	}

	splitter, err := splitters.NewCharacterSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		log.Fatalf("Invalid chunking configuration: %v", err)
	}

	var primary interfaces.EmbeddingModel
	if embedder, err := embeddings.NewGoogleClient(&cfg.Embedding, appLogger); err != nil {
		appLogger.WithErr(err).Warn("Embedding client unavailable, retrieval will use the fallback embedder")
	} else {
		primary = embedder
	}

	generator, err := llm.NewGroq(&cfg.LLM)
	if err != nil {
		appLogger.WithErr(err).Warn("LLM client unavailable, chat requests will fail")
		generator = nil
	}

	var history *chat.HistoryStore
	if cfg.Mongo.Address != "" {
		mongoClient, err := mongodb.Connect(ctx, &cfg.Mongo)
		if err != nil {
			appLogger.WithErr(err).Warn("MongoDB unavailable, chat history will not be persisted")
		} else {
			history = chat.NewHistoryStore(mongoClient.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
		}
	}

	var cache *goredis.Client
	if cfg.Redis.Address != "" {
		cache, err = redisdb.Connect(ctx, &cfg.Redis)
		if err != nil {
			appLogger.WithErr(err).Warn("Redis unavailable, query embeddings will not be cached")
			cache = nil
		}
	}

	fallback := embeddings.NewHashEmbedder()

	indexEmbedder := primary
	if indexEmbedder == nil {
		// Fallback vectors do not match the collection dimension and are
		// rejected at upsert.
		indexEmbedder = fallback
	}
	indexing := pipeline.NewIndexingPipeline(documentDAL, splitter, indexEmbedder, store, appLogger)
	retrieval := pipeline.NewRetrievalPipeline(primary, fallback, store, cache, appLogger)

	handlers := api.NewAPI(appLogger, cfg, retrieval, indexing, generator, history)

	var limiter ratelimiter.RateLimiter
	if cfg.RateLimiter.Enabled {
		limiter = ratelimiter.NewTokenBucket(cfg.RateLimiter.TokenBucket.Rate, cfg.RateLimiter.TokenBucket.Capacity)
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(handlers, limiter)

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Address))
		if err := router.Run(cfg.Server.Address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
}
