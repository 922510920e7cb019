package parser

import (
	"fmt"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are removed from a saved profile page before conversion.
var noiseSelectors = []string{
	"script", "style", "noscript", "template",
	"nav", "footer", "header",
	"img", "picture", "svg", "canvas", "iframe", "video",
	"form", "button", "input", "select", "textarea",
	".visually-hidden", ".global-nav", ".msg-overlay-container",
	"aside",
}

// HTMLSource reads a saved profile page. The main content container is
// isolated with goquery and converted to Markdown, which keeps headings and
// lists visible to the structuring model.
type HTMLSource struct{}

func (s *HTMLSource) Text(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	var content *goquery.Selection
	for _, tag := range []string{"main", "article", "body"} {
		if sel := doc.Find(tag); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		return "", fmt.Errorf("no content container found")
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("serialize content: %w", err)
	}
	md, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
