package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}
	return path
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: closed")
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an error for invalid YAML")
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server: {}\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Expected default address :8080, got %q", cfg.Server.Address)
	}
	if cfg.Qdrant.URL != "http://localhost:6333" {
		t.Errorf("Expected default Qdrant URL, got %q", cfg.Qdrant.URL)
	}
	if cfg.Qdrant.Collection != "pdf_chunks" {
		t.Errorf("Expected default collection, got %q", cfg.Qdrant.Collection)
	}
	if cfg.Qdrant.Dimension != 768 {
		t.Errorf("Expected default dimension 768, got %d", cfg.Qdrant.Dimension)
	}
	if cfg.Embedding.Model != "text-embedding-004" {
		t.Errorf("Expected default embedding model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.BatchSize != 100 {
		t.Errorf("Expected default batch size 100, got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Embedding.BatchDelay != "200ms" {
		t.Errorf("Expected default batch delay 200ms, got %q", cfg.Embedding.BatchDelay)
	}
	if cfg.Chunking.ChunkSize != 1000 || cfg.Chunking.Overlap != 200 {
		t.Errorf("Expected default chunking 1000/200, got %d/%d", cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	}
	if cfg.LLM.Model != "llama3-70b-8192" {
		t.Errorf("Expected default LLM model, got %q", cfg.LLM.Model)
	}
}

func TestLoadConfig_ExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9090"
qdrant:
  url: "http://qdrant.internal:6333"
  collection: "finance_docs"
  dimension: 1536
chunking:
  chunkSize: 500
  overlap: 50
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("Expected :9090, got %q", cfg.Server.Address)
	}
	if cfg.Qdrant.Collection != "finance_docs" || cfg.Qdrant.Dimension != 1536 {
		t.Errorf("Explicit Qdrant values were overridden: %+v", cfg.Qdrant)
	}
	if cfg.Chunking.ChunkSize != 500 || cfg.Chunking.Overlap != 50 {
		t.Errorf("Explicit chunking values were overridden: %+v", cfg.Chunking)
	}
}

func TestLoadConfig_ExpandsEnvironmentReferences(t *testing.T) {
	t.Setenv("TEST_EMBEDDING_KEY", "key-from-env")

	path := writeConfig(t, `
embedding:
  apiKey: "${TEST_EMBEDDING_KEY}"
llm:
  apiKey: "${TEST_UNSET_KEY_FOR_CONFIG}"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Embedding.APIKey != "key-from-env" {
		t.Errorf("Expected the env value, got %q", cfg.Embedding.APIKey)
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("Expected an unset variable to expand empty, got %q", cfg.LLM.APIKey)
	}
}
