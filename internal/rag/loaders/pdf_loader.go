package loaders

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"finassist/internal/rag/interfaces"
)

// PdfLoader implements the Loader interface for reading PDF files. It
// extracts plain text page by page and joins the pages with newlines.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load reads the PDF at path and returns its full text content.
func (l *PdfLoader) Load(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	return extractText(r, path)
}

// LoadBytes extracts text from an in-memory PDF, as received by the upload
// endpoint.
func (l *PdfLoader) LoadBytes(data []byte, name string) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF %s: %w", name, err)
	}
	return extractText(r, name)
}

func extractText(r *pdf.Reader, name string) (string, error) {
	numPages := r.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("no content found in PDF %s", name)
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// skip unreadable pages, keep the rest of the document
			continue
		}
		pages = append(pages, text)
	}

	content := strings.Join(pages, "\n")
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("PDF appears to be empty: %s", name)
	}
	return content, nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
