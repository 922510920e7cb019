package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/profilex/internal/parser"
	"golang.org/x/net/html"
)

// OutlineHTML converts a DOCX outline into the same fragment vocabulary the
// HTML renderer uses. Level 1 becomes the profile name, level 2 the
// headline, level 3 opens a section and list paragraphs become tags.
func OutlineHTML(items []parser.OutlineItem) ([]byte, error) {
	root := el("div", "profile-container")
	var header, section, tags *html.Node

	container := func() *html.Node {
		if section != nil {
			return section
		}
		if header == nil {
			header = el("header", "profile-header")
			appendBlock(root, header)
		}
		return header
	}

	for _, item := range items {
		if !item.IsBullet() {
			tags = nil
		}
		switch {
		case item.Level == 1:
			section = nil
			header = el("header", "profile-header", el("h1", "profile-name", text(item.Text)))
			appendBlock(root, header)

		case item.Level == 2:
			container().AppendChild(el("h2", "profile-headline", text(item.Text)))

		case item.Level == 3:
			slug := strings.ToLower(strings.Join(strings.Fields(item.Text), "-"))
			section = el("section", "profile-section "+slug+"-section", el("h3", "section-title", text(item.Text)))
			section.Attr = append(section.Attr, html.Attribute{Key: "data-section", Val: slug})
			appendBlock(root, section)

		case item.Level >= 4:
			container().AppendChild(el("h4", "entry-title", text(item.Text)))

		case item.IsBullet():
			if tags == nil {
				tags = el("div", "skills-list")
				container().AppendChild(tags)
			}
			tags.AppendChild(el("span", "skill-tag", text(item.Text)))

		default:
			container().AppendChild(runsParagraph(item.Runs))
		}
	}
	root.AppendChild(text("\n"))

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func runsParagraph(runs []parser.OutlineRun) *html.Node {
	p := el("p", "")
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		n := text(r.Text)
		if r.Italic {
			n = el("em", "", n)
		}
		if r.Bold {
			n = el("strong", "", n)
		}
		p.AppendChild(n)
	}
	return p
}
