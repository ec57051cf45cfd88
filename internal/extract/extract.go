// Package extract converts uploaded document bytes into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for file types the pipeline cannot
// convert to text.
var ErrUnsupportedFormat = errors.New("extract: unsupported file format")

// Extractor converts an opaque byte stream plus declared format (the file
// name's extension) into plain text.
type Extractor interface {
	Extract(filename string, data []byte) (string, error)
	Supports(filename string) bool
}

// FileExtractor handles .txt passthrough and .pdf page-text extraction.
type FileExtractor struct{}

// NewFileExtractor creates a new FileExtractor.
func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

// Supports reports whether the file's extension is handled.
func (e *FileExtractor) Supports(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".pdf":
		return true
	default:
		return false
	}
}

// Extract returns the document's plain text.
// Parameters:
//   - filename: original file name; the extension selects the decoder.
//   - data: raw file content.
// Returns:
//   - string: extracted text.
//   - error: ErrUnsupportedFormat for unknown extensions, or a decode error.
func (e *FileExtractor) Extract(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return string(data), nil
	case ".pdf":
		return extractPDF(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// extractPDF concatenates the text of every page.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}
