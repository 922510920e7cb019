package render

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/profilex/internal/profile"
	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer lays out the Markdown blocks with gofpdf core fonts.
type PDFRenderer struct{}

func (PDFRenderer) Format() Format    { return FormatPDF }
func (PDFRenderer) Extension() string { return ".pdf" }

func (PDFRenderer) Render(p *profile.Profile) ([]byte, error) {
	return PDFFromMarkdown(Markdown(p))
}

var headingSizes = map[int]float64{1: 20, 2: 15, 3: 13, 4: 11}

// PDFFromMarkdown renders the same line blocks the DOCX renderer uses.
func PDFFromMarkdown(md string) ([]byte, error) {
	blocks, err := ParseMarkdownLines(md)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, b := range blocks {
		switch b.Kind {
		case BlockHeading:
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", headingSizes[b.Level])
			pdf.MultiCell(0, headingSizes[b.Level]*0.5, tr(b.Text), "", "L", false)
			pdf.Ln(1)
		case BlockBullet:
			pdf.SetFont("Helvetica", "", 10)
			pdf.Write(5, tr("• "))
			writeRuns(pdf, tr, b.Runs)
			pdf.Ln(5)
		default:
			writeRuns(pdf, tr, b.Runs)
			pdf.Ln(6)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRuns(pdf *gofpdf.Fpdf, tr func(string) string, runs []Run) {
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		style := ""
		if r.Bold {
			style += "B"
		}
		if r.Italic {
			style += "I"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.Write(5, tr(r.Text))
	}
}
