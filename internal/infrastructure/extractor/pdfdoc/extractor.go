package pdfdoc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mkarpov/docchat/internal/core/domain"
)

// Extractor reads a PDF from disk and returns its plain text, pages joined
// with blank lines so downstream chunking can split at page boundaries.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, path string) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.WrapError(domain.ErrParse, "read pdf", fmt.Errorf("panic: %v", r))
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrParse, "open pdf", err)
	}
	defer file.Close()

	totalPages := reader.NumPage()
	var pages []string
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", domain.WrapError(domain.ErrParse, fmt.Sprintf("extract page %d", pageIndex), err)
		}
		if trimmed := strings.TrimSpace(pageText); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	if len(pages) == 0 {
		return "", domain.WrapError(domain.ErrParse, "extract pdf", errors.New("no text content in document"))
	}
	return strings.Join(pages, "\n\n"), nil
}
