// Package extract converts uploaded documents (PDF, DOCX, HTML, plain text)
// into the raw text the generation pipeline consumes.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	docx "github.com/fumiama/go-docx"
	pdfx "github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for file types no extractor understands.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrNoText is returned when a document parsed fine but yielded no text,
// e.g. a scanned PDF containing only images.
var ErrNoText = errors.New("no extractable text")

// MaxFileBytes caps uploads before any parsing happens.
const MaxFileBytes = 20 * 1024 * 1024

// Text extracts plain text from an uploaded document, choosing the extractor
// from magic bytes first and the filename extension second.
func Text(data []byte, filename string) (string, error) {
	if len(data) > MaxFileBytes {
		return "", fmt.Errorf("%w: file too large: %d bytes > limit %d", ErrUnsupportedFormat, len(data), MaxFileBytes)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	var text string
	var err error
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")) || ext == "pdf":
		text, err = pdfText(data)
	case ext == "docx":
		text, err = docxText(data)
	case ext == "html" || ext == "htm" || looksHTML(data):
		text, err = htmlText(data)
	case ext == "txt" || ext == "md" || ext == "markdown" || (ext == "" && utf8.Valid(data)):
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdfx.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}
	var out strings.Builder
	for page := 1; page <= r.NumPage(); page++ {
		p := r.Page(page)
		if p.V.IsNull() {
			continue
		}
		// pages with no extractable text (image-only) are skipped, not fatal
		txt, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if t := strings.TrimSpace(txt); t != "" {
			out.WriteString(t)
			out.WriteString("\n")
		}
	}
	return out.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading DOCX: %w", err)
	}
	var lines []string
	for _, item := range doc.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		if s := strings.TrimSpace(p.String()); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func looksHTML(data []byte) bool {
	head := strings.ToLower(string(data[:min(len(data), 2048)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<body")
}
