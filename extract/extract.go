// Package extract converts uploaded documents into plain text for analysis.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor turns raw document bytes into plain text. Implementations
// return an empty string (not an error) for documents that parse but
// contain no extractable text, e.g. image-only scans.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// PDFExtractor extracts text from PDF documents.
type PDFExtractor struct{}

// NewPDFExtractor constructs a PDFExtractor.
func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

// ExtractText parses the PDF and concatenates the text of all pages.
// The underlying parser panics on some malformed documents; those are
// recovered and reported as parse errors.
func (e *PDFExtractor) ExtractText(ctx context.Context, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return sb.String(), nil
}
