package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"finassist/internal/rag/interfaces"
)

// ForPath selects a Loader by the file extension of path.
func ForPath(path string) (interfaces.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPdfLoader(), nil
	case ".csv":
		return NewCsvLoader(), nil
	case ".xlsx":
		return NewXlsxLoader(), nil
	default:
		return nil, fmt.Errorf("unsupported source file type: %s", path)
	}
}
