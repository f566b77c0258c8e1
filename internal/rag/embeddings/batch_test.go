package embeddings

import (
	"errors"
	"fmt"
	"testing"

	"finassist/internal/rag/schema"
)

func TestBatchTexts_InvalidInput(t *testing.T) {
	if _, err := BatchTexts(nil, 10); !errors.Is(err, schema.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty texts, got %v", err)
	}
	if _, err := BatchTexts([]string{"a perfectly valid chunk"}, 0); !errors.Is(err, schema.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero batch size, got %v", err)
	}
	if _, err := BatchTexts([]string{"a perfectly valid chunk"}, -5); !errors.Is(err, schema.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for negative batch size, got %v", err)
	}
}

func TestBatchTexts_Partitioning(t *testing.T) {
	texts := make([]string, 7)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk number %d with enough length", i)
	}

	batches, err := BatchTexts(texts, 3)
	if err != nil {
		t.Fatalf("BatchTexts() error = %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 3 || len(batches[1]) != 3 || len(batches[2]) != 1 {
		t.Errorf("Unexpected batch sizes: %d, %d, %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
	if batches[0][0] != texts[0] || batches[2][0] != texts[6] {
		t.Error("Batches do not preserve input order")
	}
}

func TestBatchTexts_FiltersShortTexts(t *testing.T) {
	texts := []string{
		"this text is long enough to embed",
		"   short   ", // under the minimum after trimming
		"tiny",
		"another text that is long enough",
	}

	batches, err := BatchTexts(texts, 10)
	if err != nil {
		t.Fatalf("BatchTexts() error = %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("Expected 1 batch, got %d", len(batches))
	}
	if len(batches[0]) != 2 {
		t.Errorf("Expected 2 texts after filtering, got %d", len(batches[0]))
	}
}

func TestBatchTexts_OmitsEmptyBatches(t *testing.T) {
	texts := []string{
		"first batch text that is long enough",
		"short", // the second batch filters down to nothing
		"tiny",
	}

	batches, err := BatchTexts(texts, 1)
	if err != nil {
		t.Fatalf("BatchTexts() error = %v", err)
	}
	if len(batches) != 1 {
		t.Errorf("Expected the all-filtered batches to be omitted, got %d batches", len(batches))
	}
}
