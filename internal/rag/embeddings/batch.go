package embeddings

import (
	"fmt"
	"strings"

	"finassist/internal/rag/schema"
)

// minTextLength is the minimum trimmed length a text must exceed to be sent
// to the embedding service. Shorter entries carry no useful signal and are
// dropped during batching.
const minTextLength = 10

// BatchTexts partitions texts into ordered groups of at most batchSize,
// filtering out entries whose trimmed length does not exceed minTextLength.
// Groups that end up empty after filtering are omitted entirely.
// It returns schema.ErrInvalidInput when texts is empty or batchSize is not
// positive.
func BatchTexts(texts []string, batchSize int) ([][]string, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: empty texts", schema.ErrInvalidInput)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be greater than 0", schema.ErrInvalidInput)
	}

	var batches [][]string
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		var valid []string
		for _, text := range texts[i:end] {
			if len(strings.TrimSpace(text)) > minTextLength {
				valid = append(valid, text)
			}
		}
		if len(valid) > 0 {
			batches = append(batches, valid)
		}
	}

	return batches, nil
}
