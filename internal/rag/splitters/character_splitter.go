package splitters

import (
	"fmt"
	"strings"

	"finassist/internal/rag/interfaces"
	"finassist/internal/rag/schema"
)

// CharacterSplitter implements the Splitter interface by cutting text into
// fixed-size character windows. Consecutive chunks share exactly Overlap
// characters, except possibly the final chunk, and every chunk is at most
// ChunkSize characters long.
type CharacterSplitter struct {
	ChunkSize int
	Overlap   int
}

// NewCharacterSplitter creates a CharacterSplitter.
// Overlap must be smaller than ChunkSize, otherwise the window cannot advance.
func NewCharacterSplitter(chunkSize, overlap int) (*CharacterSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, chunkSize), got %d", overlap)
	}
	return &CharacterSplitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}, nil
}

// Split cuts the text into overlapping chunks covering the entire input.
// Whitespace-only chunks are dropped. It returns schema.ErrEmptyDocument
// when no valid chunks remain.
func (s *CharacterSplitter) Split(text string) ([]string, error) {
	runes := []rune(text)
	step := s.ChunkSize - s.Overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
	}

	if len(chunks) == 0 {
		return nil, schema.ErrEmptyDocument
	}
	return chunks, nil
}

// compile-time check to ensure CharacterSplitter implements the Splitter interface
var _ interfaces.Splitter = (*CharacterSplitter)(nil)
