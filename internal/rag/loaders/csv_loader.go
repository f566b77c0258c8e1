package loaders

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"finassist/internal/rag/interfaces"
)

// CsvLoader implements the Loader interface for CSV files. Each data row is
// serialized to a JSON object keyed by the header row, one object per line,
// so that row structure survives chunking.
type CsvLoader struct{}

// NewCsvLoader creates a new CsvLoader.
func NewCsvLoader() *CsvLoader {
	return &CsvLoader{}
}

// Load reads the CSV at path and returns its rows as JSON lines.
func (l *CsvLoader) Load(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open CSV %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read CSV %s: %w", path, err)
	}
	if len(records) < 2 {
		return "", fmt.Errorf("no data found in CSV %s", path)
	}

	header := records[0]
	lines := make([]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, field := range record {
			if i < len(header) {
				row[header[i]] = field
			}
		}
		line, err := json.Marshal(row)
		if err != nil {
			return "", fmt.Errorf("failed to serialize CSV row: %w", err)
		}
		lines = append(lines, string(line))
	}

	return strings.Join(lines, "\n"), nil
}

// compile-time check to ensure CsvLoader implements the Loader interface
var _ interfaces.Loader = (*CsvLoader)(nil)
