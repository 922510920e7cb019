// Package parser reads documents back into program values: rendered
// Markdown into a Profile, DOCX into a paragraph outline, and saved profile
// pages or exports into raw text for offline structuring.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Source extracts raw profile text from a saved document.
type Source interface {
	Text(r io.Reader) (string, error)
}

// SupportedExtensions lists raw source extensions accepted offline.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
}

// ForFile returns the raw text source for a filename.
func ForFile(filename string, pdfFallback bool) (Source, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".md":
		return &TextSource{}, nil
	case ".html", ".htm":
		return &HTMLSource{}, nil
	case ".pdf":
		return &PDFSource{FallbackPdftotext: pdfFallback}, nil
	default:
		return nil, fmt.Errorf("unsupported raw source extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ReadRawText picks a source by extension and reads r through it.
func ReadRawText(r io.Reader, filename string, pdfFallback bool) (string, error) {
	src, err := ForFile(filename, pdfFallback)
	if err != nil {
		return "", err
	}
	text, err := src.Text(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(filename), err)
	}
	return text, nil
}
