package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// OutlineRun is one text run of a paragraph.
type OutlineRun struct {
	Text   string
	Bold   bool
	Italic bool
}

// OutlineItem is one paragraph of a DOCX body. Level is 1-6 for heading
// styles and 0 otherwise.
type OutlineItem struct {
	Level int
	Style string
	Text  string
	Runs  []OutlineRun
}

// BulletGlyph is the leading run of a list paragraph in documents that carry
// no numbering definitions.
const BulletGlyph = "\u2022"

// IsBullet reports whether the paragraph carries a list style.
func (i OutlineItem) IsBullet() bool {
	return isListStyle(i.Style)
}

func isListStyle(style string) bool {
	return strings.Contains(strings.ToLower(style), "list")
}

// ReadDOCXOutline returns the body paragraphs of a DOCX document in order.
// Paragraphs with no text are skipped.
func ReadDOCXOutline(data []byte) ([]OutlineItem, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var items []OutlineItem
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		style := docxStyle(para)
		runs := docxRuns(para)
		if isListStyle(style) && len(runs) > 0 && strings.TrimSpace(runs[0].Text) == BulletGlyph {
			runs = runs[1:]
		}
		var buf strings.Builder
		for _, r := range runs {
			buf.WriteString(r.Text)
		}
		text := strings.TrimSpace(buf.String())
		if text == "" {
			continue
		}
		items = append(items, OutlineItem{
			Level: docxHeadingLevel(para),
			Style: style,
			Text:  text,
			Runs:  runs,
		})
	}
	return items, nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func docxHeadingLevel(para *docx.Paragraph) int {
	style := docxStyle(para)
	for level := 1; level <= 6; level++ {
		if strings.EqualFold(style, fmt.Sprintf("Heading%d", level)) || strings.EqualFold(style, fmt.Sprintf("heading %d", level)) {
			return level
		}
	}
	return 0
}

func docxRuns(para *docx.Paragraph) []OutlineRun {
	var runs []OutlineRun
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var buf strings.Builder
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
		or := OutlineRun{Text: buf.String()}
		if run.RunProperties != nil {
			or.Bold = run.RunProperties.Bold != nil
			or.Italic = run.RunProperties.Italic != nil
		}
		runs = append(runs, or)
	}
	return runs
}
