package render

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/dgallion1/profilex/internal/parser"
	"github.com/dgallion1/profilex/internal/profile"
	"github.com/fumiama/go-docx"
)

// Paragraph style IDs written into the document. Heading levels map one to
// one so a reader recovers the Markdown level from the style. Every ID used
// here is defined in xml/profile/word/styles.xml.
const (
	styleListBullet = "ListBullet"
)

const docxTemplateName = "profile"

//go:embed all:xml
var docxTemplate embed.FS

func headingStyle(level int) string {
	return fmt.Sprintf("Heading%d", level)
}

// DOCXRenderer converts the Markdown rendering into a Word document.
type DOCXRenderer struct{}

func (DOCXRenderer) Format() Format    { return FormatDOCX }
func (DOCXRenderer) Extension() string { return ".docx" }

func (DOCXRenderer) Render(p *profile.Profile) ([]byte, error) {
	return DOCXFromMarkdown(Markdown(p))
}

// DOCXFromMarkdown builds a document from Markdown line conventions.
func DOCXFromMarkdown(md string) ([]byte, error) {
	blocks, err := ParseMarkdownLines(md)
	if err != nil {
		return nil, err
	}

	doc := docx.New().UseTemplate(docxTemplateName, docx.DefaultTemplateFilesList, docxTemplate)
	for _, b := range blocks {
		para := doc.AddParagraph()
		switch b.Kind {
		case BlockHeading:
			setParagraphStyle(para, headingStyle(b.Level))
			para.AddText(b.Text)
		case BlockBullet:
			setParagraphStyle(para, styleListBullet)
			// The template has no numbering part, so the bullet is carried as text.
			para.AddText(parser.BulletGlyph).AddTab()
			addRuns(para, b.Runs)
		default:
			addRuns(para, b.Runs)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

func setParagraphStyle(para *docx.Paragraph, style string) {
	if para.Properties == nil {
		para.Properties = &docx.ParagraphProperties{}
	}
	para.Properties.Style = &docx.Style{Val: style}
}

func addRuns(para *docx.Paragraph, runs []Run) {
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		run := para.AddText(r.Text)
		if r.Bold {
			run.Bold()
		}
		if r.Italic {
			run.Italic()
		}
	}
}
