package loaders

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"finassist/internal/rag/interfaces"
)

// XlsxLoader implements the Loader interface for Excel (.xlsx) files.
// Each sheet is rendered as a Markdown table so that column alignment
// survives into the chunked text.
type XlsxLoader struct{}

// NewXlsxLoader creates a new XlsxLoader.
func NewXlsxLoader() *XlsxLoader {
	return &XlsxLoader{}
}

// Load reads the workbook at path and returns all sheets as Markdown tables
// separated by blank lines.
func (l *XlsxLoader) Load(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	var sheets []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil || len(rows) == 0 {
			continue
		}

		var md strings.Builder
		md.WriteString("| " + strings.Join(rows[0], " | ") + " |\n")
		md.WriteString("|" + strings.Repeat(" --- |", len(rows[0])) + "\n")
		for _, row := range rows[1:] {
			md.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
		sheets = append(sheets, md.String())
	}

	content := strings.Join(sheets, "\n")
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("no data found in workbook %s", path)
	}
	return content, nil
}

// compile-time check to ensure XlsxLoader implements the Loader interface
var _ interfaces.Loader = (*XlsxLoader)(nil)
