// Package render turns a Profile into Markdown, HTML, DOCX and PDF.
//
// Markdown is the canonical form: DOCX and PDF are produced from the
// Markdown text, never from the Profile directly, so their content cannot
// drift from it.
package render

import (
	"fmt"

	"github.com/dgallion1/profilex/internal/profile"
)

// Format names an output representation.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
	FormatPDF      Format = "pdf"
)

// Renderer produces one format from an immutable profile.
type Renderer interface {
	Render(p *profile.Profile) ([]byte, error)
	Format() Format
	Extension() string
}

// ForFormat returns the renderer for f.
func ForFormat(f Format) (Renderer, error) {
	switch f {
	case FormatMarkdown:
		return MarkdownRenderer{}, nil
	case FormatHTML:
		return HTMLRenderer{}, nil
	case FormatDOCX:
		return DOCXRenderer{}, nil
	case FormatPDF:
		return PDFRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

// DefaultFormats are rendered on every run; PDF is opt-in.
func DefaultFormats(withPDF bool) []Format {
	formats := []Format{FormatMarkdown, FormatHTML, FormatDOCX}
	if withPDF {
		formats = append(formats, FormatPDF)
	}
	return formats
}
