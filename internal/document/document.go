// Package document turns files on disk into the text that is sent for
// analysis. Word documents and HTML are reduced to light HTML markup
// (headings, paragraphs, bold and list items); plain text passes through.
package document

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"aipm/internal/logging"
)

// maxDocumentBytes caps how much of any single file or archive member is read.
const maxDocumentBytes = 32 * 1024 * 1024

// ErrUnsupportedFormat is returned for files whose type no extractor handles.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ExtractionError reports a failure to read a supported document.
type ExtractionError struct {
	Path   string
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s document %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor produces analysable content from a document file.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Format names used in errors and logs.
const (
	FormatDOCX = "docx"
	FormatHTML = "html"
	FormatText = "text"
)

var extractors = map[string]Extractor{
	".docx":     DOCXExtractor{},
	".html":     HTMLExtractor{},
	".htm":      HTMLExtractor{},
	".xhtml":    HTMLExtractor{},
	".txt":      TextExtractor{},
	".text":     TextExtractor{},
	".md":       TextExtractor{},
	".markdown": TextExtractor{},
}

// SupportedExtensions lists the file extensions ForPath accepts.
func SupportedExtensions() []string {
	return []string{".docx", ".htm", ".html", ".markdown", ".md", ".text", ".txt", ".xhtml"}
}

// ForPath picks the extractor for path by its extension.
func ForPath(path string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if e, ok := extractors[ext]; ok {
		return e, nil
	}
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no file extension", ErrUnsupportedFormat, path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// Extract reads path with the extractor ForPath selects.
func Extract(ctx context.Context, path string) (string, error) {
	e, err := ForPath(path)
	if err != nil {
		return "", err
	}

	timer := logging.StartTimer(logging.CategoryDocument, "extract "+filepath.Base(path))
	content, err := e.Extract(ctx, path)
	timer.Stop()
	if err != nil {
		return "", err
	}

	logging.Document("extracted %s (%d chars)", path, len(content))
	return content, nil
}
