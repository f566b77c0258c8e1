package schema

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports malformed caller input, such as an empty text list
// or a non-positive batch size.
var ErrInvalidInput = errors.New("invalid input")

// ErrEmptyDocument reports that a document produced no usable chunks after
// splitting and filtering.
var ErrEmptyDocument = errors.New("document contains no valid chunks")

// ErrCollectionNotFound reports that the vector collection does not exist.
var ErrCollectionNotFound = errors.New("collection not found")

// EmbeddingServiceError reports a failed call to the embedding service:
// a non-success HTTP status, an unparseable response, or a response whose
// embedding count does not match the request batch.
type EmbeddingServiceError struct {
	Batch  int // zero-based batch index
	Status int // HTTP status, 0 when the failure was not HTTP-level
	Reason string
}

func (e *EmbeddingServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("embedding batch %d failed with status %d: %s", e.Batch, e.Status, e.Reason)
	}
	return fmt.Sprintf("embedding batch %d failed: %s", e.Batch, e.Reason)
}

// InvalidEmbeddingError reports a single embedding that is missing, has the
// wrong dimension, or contains a non-finite component.
type InvalidEmbeddingError struct {
	Batch  int
	Index  int // position within the batch
	Reason string
}

func (e *InvalidEmbeddingError) Error() string {
	return fmt.Sprintf("invalid embedding at batch %d index %d: %s", e.Batch, e.Index, e.Reason)
}

// EmbeddingCountMismatchError reports that the total number of embeddings
// produced does not equal the number of input texts.
type EmbeddingCountMismatchError struct {
	Want int
	Got  int
}

func (e *EmbeddingCountMismatchError) Error() string {
	return fmt.Sprintf("embedding count mismatch: expected %d, got %d", e.Want, e.Got)
}

// SchemaMismatchError reports that the vector collection exists but is
// provisioned with the wrong dimension. It is fatal for ingestion and must
// halt before any writes.
type SchemaMismatchError struct {
	Collection string
	Size       int // the dimension the collection actually has
	Want       int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("collection %s has wrong vector size: %d (expected %d)", e.Collection, e.Size, e.Want)
}

// UpsertError reports a failed point batch write. Offset is the index of the
// first point in the failed batch; batches before it remain persisted.
type UpsertError struct {
	Offset int
	Err    error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("failed to upsert batch starting at index %d: %v", e.Offset, e.Err)
}

func (e *UpsertError) Unwrap() error { return e.Err }
