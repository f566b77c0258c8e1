package splitters

import (
	"strings"
	"testing"

	"finassist/internal/rag/schema"
)

func TestNewCharacterSplitter_Validation(t *testing.T) {
	if _, err := NewCharacterSplitter(0, 0); err == nil {
		t.Error("Expected error for zero chunk size")
	}
	if _, err := NewCharacterSplitter(100, -1); err == nil {
		t.Error("Expected error for negative overlap")
	}
	if _, err := NewCharacterSplitter(100, 100); err == nil {
		t.Error("Expected error for overlap equal to chunk size")
	}
	if _, err := NewCharacterSplitter(1000, 200); err != nil {
		t.Errorf("NewCharacterSplitter(1000, 200) error = %v", err)
	}
}

func TestSplit_ChunkCountAndOverlap(t *testing.T) {
	s, err := NewCharacterSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewCharacterSplitter() error = %v", err)
	}

	text := strings.Repeat("a", 2500)
	chunks, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	// Windows step by 800: [0,1000), [800,1800), [1600,2500).
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks for 2500 characters, got %d", len(chunks))
	}
	if len(chunks[0]) != 1000 || len(chunks[1]) != 1000 {
		t.Errorf("Expected full chunks of 1000 characters, got %d and %d", len(chunks[0]), len(chunks[1]))
	}
	if len(chunks[2]) != 900 {
		t.Errorf("Expected final chunk of 900 characters, got %d", len(chunks[2]))
	}
}

func TestSplit_ConsecutiveChunksShareOverlap(t *testing.T) {
	s, _ := NewCharacterSplitter(10, 4)

	// Distinct runes so overlap regions can be compared directly.
	runes := make([]rune, 25)
	for i := range runes {
		runes[i] = rune('A' + i)
	}
	chunks, err := s.Split(string(runes))
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := string(prev[len(prev)-4:])
		head := string([]rune(chunks[i])[:4])
		if tail != head {
			t.Errorf("Chunk %d does not overlap its predecessor: %q vs %q", i, head, tail)
		}
	}
}

func TestSplit_RespectsMaxSize(t *testing.T) {
	s, _ := NewCharacterSplitter(50, 10)

	chunks, err := s.Split(strings.Repeat("xyz ", 500))
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	for i, c := range chunks {
		if n := len([]rune(c)); n > 50 {
			t.Errorf("Chunk %d exceeds the maximum size: %d runes", i, n)
		}
	}
}

func TestSplit_ShortInputIsSingleChunk(t *testing.T) {
	s, _ := NewCharacterSplitter(1000, 200)

	chunks, err := s.Split("short document")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "short document" {
		t.Errorf("Expected one chunk with the full text, got %v", chunks)
	}
}

func TestSplit_WhitespaceOnlyIsEmptyDocument(t *testing.T) {
	s, _ := NewCharacterSplitter(1000, 200)

	if _, err := s.Split("   \n\t  "); err != schema.ErrEmptyDocument {
		t.Errorf("Expected ErrEmptyDocument, got %v", err)
	}
	if _, err := s.Split(""); err != schema.ErrEmptyDocument {
		t.Errorf("Expected ErrEmptyDocument for empty input, got %v", err)
	}
}
