package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"` // Listen address, e.g. ":8080"
}

// QdrantConfig holds the vector index connection and collection settings.
type QdrantConfig struct {
	URL        string `yaml:"url"`        // Qdrant base URL, e.g. "http://localhost:6333"
	APIKey     string `yaml:"apiKey"`     // Optional API key for Qdrant Cloud
	Collection string `yaml:"collection"` // Collection name, e.g. "pdf_chunks"
	Dimension  int    `yaml:"dimension"`  // Vector dimension the collection is provisioned for
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"apiKey"`     // Google Generative Language API key
	Model      string `yaml:"model"`      // Embedding model, e.g. "text-embedding-004"
	BaseURL    string `yaml:"baseURL"`    // Override for tests; empty means the public endpoint
	BatchSize  int    `yaml:"batchSize"`  // Texts per batch request
	BatchDelay string `yaml:"batchDelay"` // Pause between batches, e.g. "200ms"
}

// LLMConfig holds the chat completion provider settings.
type LLMConfig struct {
	APIKey      string  `yaml:"apiKey"`
	Model       string  `yaml:"model"`   // e.g. "llama3-70b-8192"
	BaseURL     string  `yaml:"baseURL"` // OpenAI-compatible endpoint, e.g. Groq's
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// MySQLConfig holds the relational metadata store settings.
type MySQLConfig struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// MongoConfig holds the chat history store settings.
type MongoConfig struct {
	Address    string `yaml:"address"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// RedisConfig holds the query-embedding cache settings.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ChunkingConfig holds the document splitter settings.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunkSize"` // Maximum chunk length in characters
	Overlap   int `yaml:"overlap"`   // Characters shared between consecutive chunks
}

// IngestionConfig lists the source documents processed by the batch job and
// the startup initializer.
type IngestionConfig struct {
	Sources []string `yaml:"sources"`
}

// TokenBucketConfig configures the token bucket rate limiter.
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // Tokens per second
	Capacity int     `yaml:"capacity"`
}

// RateLimiterConfig configures the chat endpoint rate limiter.
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// VideosConfig holds the video search proxy settings.
type VideosConfig struct {
	APIKey string `yaml:"apiKey"` // YouTube Data API key
}

// AppConfig is the root configuration for the application.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Qdrant      QdrantConfig      `yaml:"qdrant"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	MySQL       MySQLConfig       `yaml:"mysql"`
	Mongo       MongoConfig       `yaml:"mongo"`
	Redis       RedisConfig       `yaml:"redis"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Ingestion   IngestionConfig   `yaml:"ingestion"`
	RateLimiter RateLimiterConfig `yaml:"rateLimiter"`
	Videos      VideosConfig      `yaml:"videos"`
}

// LoadConfig reads and parses the YAML configuration file at path.
// ${VAR} references in the file are expanded from the environment, with
// unset variables expanding to the empty string.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(yamlFile))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Qdrant.URL == "" {
		c.Qdrant.URL = "http://localhost:6333"
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "pdf_chunks"
	}
	if c.Qdrant.Dimension == 0 {
		c.Qdrant.Dimension = 768
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-004"
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 100
	}
	if c.Embedding.BatchDelay == "" {
		c.Embedding.BatchDelay = "200ms"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama3-70b-8192"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1000
	}
	if c.Chunking.ChunkSize == 0 {
		c.Chunking.ChunkSize = 1000
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 200
	}
}
