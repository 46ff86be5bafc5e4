package document

import (
	"context"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// TextExtractor returns plain text and Markdown files unchanged, minus a
// leading byte order mark.
type TextExtractor struct{}

// Extract implements Extractor.
func (TextExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := readLimited(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Format: FormatText, Err: err}
	}
	if !utf8.Valid(data) {
		return "", &ExtractionError{Path: path, Format: FormatText, Err: errNotUTF8}
	}

	return strings.TrimPrefix(string(data), "\uFEFF"), nil
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxDocumentBytes))
}
