package schema

// Payload is the metadata stored alongside each vector in the index.
// Field names form the wire contract with the collection and must not change.
type Payload struct {
	DocumentID string `json:"documentId"`
	Chunk      string `json:"chunk"`
	ChunkIndex int    `json:"chunkIndex"`
	Filename   string `json:"filename"`
	CreatedAt  string `json:"createdAt"`
}

// Point is the persisted unit in the vector index: an id, its embedding and
// the payload describing where the chunk came from.
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// ScoredPoint is a search result. The payload is kept as a raw map so callers
// can tolerate points written with older payload shapes.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]interface{}
}

// ChunkText extracts the chunk text from a search result payload.
// The second return value is false when the payload has no usable chunk field.
func (p ScoredPoint) ChunkText() (string, bool) {
	v, ok := p.Payload["chunk"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// IngestResult summarizes one successful document ingestion.
type IngestResult struct {
	DocumentID string
	Filename   string
	Chunks     int
	Vectors    int
	Dimensions int
}
