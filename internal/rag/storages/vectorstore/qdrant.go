package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finassist/internal/config"
	"finassist/internal/rag/interfaces"
	"finassist/internal/rag/schema"
	"finassist/pkg/logger"
)

// upsertBatchSize is the number of points written per durable upsert request.
const upsertBatchSize = 50

// QdrantStore is a REST client for a single Qdrant collection. It owns
// schema verification, batched point writes and filtered similarity search.
type QdrantStore struct {
	client     *http.Client
	log        *logger.Logger
	url        string
	apiKey     string
	collection string
	dimension  int
}

// NewQdrantStore creates a QdrantStore from configuration.
func NewQdrantStore(cfg *config.QdrantConfig, log *logger.Logger) *QdrantStore {
	return &QdrantStore{
		client:     &http.Client{Timeout: 30 * time.Second},
		log:        log,
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
	}
}

// Collection returns the collection name the store is bound to.
func (s *QdrantStore) Collection() string { return s.collection }

// CollectionInfo describes the live collection schema and point count.
type CollectionInfo struct {
	Status      string
	PointsCount int64
	VectorSize  int
	Distance    string
}

type collectionInfoResponse struct {
	Result struct {
		Status      string `json:"status"`
		PointsCount int64  `json:"points_count"`
		Config      struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// Info fetches the collection schema. It wraps schema.ErrCollectionNotFound
// when the collection does not exist.
func (s *QdrantStore) Info(ctx context.Context) (*CollectionInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.collectionURL(), nil)
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection %s: %w", s.collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("collection %s: %w", s.collection, schema.ErrCollectionNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch collection %s: %s", s.collection, resp.Status)
	}

	var data collectionInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode collection info: %w", err)
	}

	return &CollectionInfo{
		Status:      data.Result.Status,
		PointsCount: data.Result.PointsCount,
		VectorSize:  data.Result.Config.Params.Vectors.Size,
		Distance:    data.Result.Config.Params.Vectors.Distance,
	}, nil
}

// Verify checks that the collection exists with the configured dimension.
// A wrong dimension is fatal; a non-cosine distance metric is only logged.
func (s *QdrantStore) Verify(ctx context.Context) error {
	info, err := s.Info(ctx)
	if err != nil {
		return err
	}

	s.log.WithPayload(map[string]interface{}{
		"collection":   s.collection,
		"status":       info.Status,
		"points_count": info.PointsCount,
		"vector_size":  info.VectorSize,
		"distance":     info.Distance,
	}).Info("Collection info")

	if info.VectorSize != s.dimension {
		return &schema.SchemaMismatchError{
			Collection: s.collection,
			Size:       info.VectorSize,
			Want:       s.dimension,
		}
	}
	if info.Distance != "Cosine" {
		s.log.Warn(fmt.Sprintf("Collection %s uses %s distance instead of Cosine", s.collection, info.Distance))
	}
	return nil
}

// Ensure creates the collection when it does not exist. An existing
// collection with the wrong dimension is not repaired here; only the
// provisioning tool recreates collections.
func (s *QdrantStore) Ensure(ctx context.Context) error {
	err := s.Verify(ctx)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	s.log.Info(fmt.Sprintf("Creating collection %s", s.collection))
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	if err := s.putJSON(ctx, s.collectionURL(), body, nil); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	return nil
}

// Create provisions the collection with the configured dimension, cosine
// distance and the given optional tuning sections. Used by the provisioning
// tool only.
func (s *QdrantStore) Create(ctx context.Context, optimizers, hnsw map[string]interface{}) error {
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	if optimizers != nil {
		body["optimizers_config"] = optimizers
	}
	if hnsw != nil {
		body["hnsw_config"] = hnsw
	}
	return s.putJSON(ctx, s.collectionURL(), body, nil)
}

// Drop deletes the collection. Used by the provisioning tool only.
func (s *QdrantStore) Drop(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.collectionURL(), nil)
	if err != nil {
		return err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", s.collection, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to delete collection %s: %s", s.collection, resp.Status)
	}
	return nil
}

// Upsert writes points in sequential batches of upsertBatchSize, waiting for
// each batch's durability acknowledgment before issuing the next. Vectors
// whose dimension does not match the collection are rejected up front so a
// degraded-mode embedding can never reach the index. On a batch failure the
// returned UpsertError carries the batch's starting offset; earlier batches
// remain persisted.
func (s *QdrantStore) Upsert(ctx context.Context, points []schema.Point) error {
	for i, p := range points {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("point %d has vector dimension %d, collection %s expects %d",
				i, len(p.Vector), s.collection, s.dimension)
		}
	}

	total := (len(points) + upsertBatchSize - 1) / upsertBatchSize
	for i := 0; i < len(points); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[i:end]

		s.log.WithPayload(map[string]interface{}{
			"batch":  i/upsertBatchSize + 1,
			"total":  total,
			"points": len(batch),
		}).Info("Upserting batch")

		body := map[string]interface{}{"points": batch}
		if err := s.putJSON(ctx, s.collectionURL()+"/points?wait=true", body, nil); err != nil {
			return &schema.UpsertError{Offset: i, Err: err}
		}
	}
	return nil
}

// DeletePoints removes points by id, waiting for durability. Used by the
// provisioning tool's round-trip check.
func (s *QdrantStore) DeletePoints(ctx context.Context, ids []string) error {
	body := map[string]interface{}{"points": ids}
	return s.postJSON(ctx, s.collectionURL()+"/points/delete?wait=true", body, nil)
}

type searchResponse struct {
	Result []struct {
		ID      string                 `json:"id"`
		Score   float32                `json:"score"`
		Payload map[string]interface{} `json:"payload"`
	} `json:"result"`
}

// Search returns up to limit nearest points by cosine similarity, optionally
// restricted to points whose payload documentId equals documentID. It never
// fails: an unreachable or misconfigured index yields an empty result set so
// that chat generation can proceed without grounding.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int, documentID string) []schema.ScoredPoint {
	if len(vector) != s.dimension {
		s.log.Warn(fmt.Sprintf("Search vector has dimension %d, collection %s expects %d; returning no results",
			len(vector), s.collection, s.dimension))
		return nil
	}

	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if documentID != "" {
		body["filter"] = map[string]interface{}{
			"must": []map[string]interface{}{
				{"key": "documentId", "match": map[string]interface{}{"value": documentID}},
			},
		}
	}

	var data searchResponse
	if err := s.postJSON(ctx, s.collectionURL()+"/points/search", body, &data); err != nil {
		s.log.WithErr(err).Warn("Vector search failed; continuing without context")
		return nil
	}

	results := make([]schema.ScoredPoint, 0, len(data.Result))
	for _, r := range data.Result {
		results = append(results, schema.ScoredPoint{
			ID:      r.ID,
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return results
}

func (s *QdrantStore) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.url, s.collection)
}

func (s *QdrantStore) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

func (s *QdrantStore) putJSON(ctx context.Context, url string, body, out interface{}) error {
	return s.sendJSON(ctx, http.MethodPut, url, body, out)
}

func (s *QdrantStore) postJSON(ctx context.Context, url string, body, out interface{}) error {
	return s.sendJSON(ctx, http.MethodPost, url, body, out)
}

func (s *QdrantStore) sendJSON(ctx context.Context, method, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, schema.ErrCollectionNotFound)
}

// compile-time check to ensure QdrantStore implements the VectorStore interface
var _ interfaces.VectorStore = (*QdrantStore)(nil)
