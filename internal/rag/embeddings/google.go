package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"finassist/internal/config"
	"finassist/internal/rag/interfaces"
	"finassist/internal/rag/schema"
	"finassist/pkg/logger"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Dimension is the vector size produced by the primary embedding model.
// The vector collection must be provisioned with exactly this dimension.
const Dimension = 768

// GoogleClient is a client for the Google Generative Language batch
// embedding API. Batches are issued strictly sequentially with a fixed
// cooperative pause between them to bound the outbound request rate.
type GoogleClient struct {
	client     *http.Client
	log        *logger.Logger
	apiKey     string
	model      string
	baseURL    string
	batchSize  int
	batchDelay time.Duration
}

// NewGoogleClient creates a GoogleClient from configuration.
func NewGoogleClient(cfg *config.EmbeddingConfig, log *logger.Logger) (*GoogleClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is not set")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	delay, err := time.ParseDuration(cfg.BatchDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid batch delay %q: %w", cfg.BatchDelay, err)
	}
	return &GoogleClient{
		client:     &http.Client{},
		log:        log,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		batchSize:  cfg.BatchSize,
		batchDelay: delay,
	}, nil
}

type embedContentRequest struct {
	Model   string       `json:"model"`
	Content embedContent `json:"content"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedPart struct {
	Text string `json:"text"`
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

// Embed generates the embedding vector for a single text.
func (c *GoogleClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for texts, preserving input order.
// The input is partitioned with BatchTexts and one request is issued per
// batch; after each non-final batch the client pauses for the configured
// delay. Validation failures are reported with the error types in the
// schema package.
func (c *GoogleClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	batches, err := BatchTexts(texts, c.batchSize)
	if err != nil {
		return nil, err
	}

	c.log.WithPayload(map[string]interface{}{
		"texts":   len(texts),
		"batches": len(batches),
	}).Info("Generating embeddings")

	var all [][]float32
	for batchIndex, batch := range batches {
		vectors, err := c.embedOne(ctx, batchIndex, batch)
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)

		// Cooperative pause between batches to respect the service's
		// rate limits; skipped after the final batch.
		if batchIndex < len(batches)-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.batchDelay):
			}
		}
	}

	if len(all) == 0 {
		return nil, &schema.EmbeddingCountMismatchError{Want: len(texts), Got: 0}
	}
	if len(all) != len(texts) {
		// Batching drops texts under the minimum length, so a clean run
		// over such input still trips this check. Callers must filter
		// degenerate chunks before embedding.
		return nil, &schema.EmbeddingCountMismatchError{Want: len(texts), Got: len(all)}
	}

	return all, nil
}

// embedOne issues a single batch request and validates every returned vector.
func (c *GoogleClient) embedOne(ctx context.Context, batchIndex int, batch []string) ([][]float32, error) {
	reqBody := batchEmbedRequest{Requests: make([]embedContentRequest, len(batch))}
	for i, text := range batch {
		reqBody.Requests[i] = embedContentRequest{
			Model:   "models/" + c.model,
			Content: embedContent{Parts: []embedPart{{Text: strings.TrimSpace(text)}}},
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &schema.EmbeddingServiceError{Batch: batchIndex, Reason: fmt.Sprintf("marshal request: %v", err)}
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &schema.EmbeddingServiceError{Batch: batchIndex, Reason: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &schema.EmbeddingServiceError{Batch: batchIndex, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &schema.EmbeddingServiceError{
			Batch:  batchIndex,
			Status: resp.StatusCode,
			Reason: strings.TrimSpace(string(body)),
		}
	}

	var data batchEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &schema.EmbeddingServiceError{Batch: batchIndex, Reason: fmt.Sprintf("decode response: %v", err)}
	}
	if data.Embeddings == nil {
		return nil, &schema.EmbeddingServiceError{Batch: batchIndex, Reason: "missing embeddings array"}
	}
	if len(data.Embeddings) != len(batch) {
		return nil, &schema.EmbeddingServiceError{
			Batch:  batchIndex,
			Reason: fmt.Sprintf("embedding count mismatch: expected %d, got %d", len(batch), len(data.Embeddings)),
		}
	}

	vectors := make([][]float32, 0, len(data.Embeddings))
	for i, emb := range data.Embeddings {
		if emb.Values == nil {
			return nil, &schema.InvalidEmbeddingError{Batch: batchIndex, Index: i, Reason: "missing values"}
		}
		if len(emb.Values) != Dimension {
			return nil, &schema.InvalidEmbeddingError{
				Batch: batchIndex, Index: i,
				Reason: fmt.Sprintf("expected dimension %d, got %d", Dimension, len(emb.Values)),
			}
		}
		vector := make([]float32, len(emb.Values))
		for j, v := range emb.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &schema.InvalidEmbeddingError{
					Batch: batchIndex, Index: i,
					Reason: fmt.Sprintf("non-finite value at position %d", j),
				}
			}
			vector[j] = float32(v)
		}
		vectors = append(vectors, vector)
	}

	return vectors, nil
}

// compile-time check to ensure GoogleClient implements the EmbeddingModel interface
var _ interfaces.EmbeddingModel = (*GoogleClient)(nil)
