package render

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/profilex/internal/parser"
)

func TestOutlineHTML(t *testing.T) {
	items := []parser.OutlineItem{
		{Level: 1, Text: "Jane Doe"},
		{Level: 2, Text: "Engineer"},
		{Text: "Location: NYC", Runs: []parser.OutlineRun{{Text: "Location:", Bold: true}, {Text: " NYC"}}},
		{Level: 3, Text: "Skills"},
		{Style: "ListBullet", Text: "Go"},
		{Style: "ListBullet", Text: "SQL"},
		{Level: 3, Text: "Experience"},
		{Level: 4, Text: "Eng at Acme"},
		{Text: "2020", Runs: []parser.OutlineRun{{Text: "2020", Italic: true}}},
	}

	frag, err := OutlineHTML(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(frag))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}

	if got := doc.Find("header h1.profile-name").Text(); got != "Jane Doe" {
		t.Errorf("expected name Jane Doe, got %q", got)
	}
	if got := doc.Find("header h2.profile-headline").Text(); got != "Engineer" {
		t.Errorf("expected headline Engineer, got %q", got)
	}
	if got := doc.Find("header p strong").Text(); got != "Location:" {
		t.Errorf("expected bold label, got %q", got)
	}
	if n := doc.Find(`section[data-section="skills"] span.skill-tag`).Length(); n != 2 {
		t.Errorf("expected 2 skill tags, got %d", n)
	}
	if n := doc.Find("div.skills-list").Length(); n != 1 {
		t.Errorf("expected consecutive bullets grouped into one list, got %d", n)
	}
	exp := doc.Find(`section[data-section="experience"]`)
	if got := exp.Find("h4.entry-title").Text(); got != "Eng at Acme" {
		t.Errorf("unexpected entry title %q", got)
	}
	if got := exp.Find("p em").Text(); got != "2020" {
		t.Errorf("expected italic years, got %q", got)
	}
}

func TestOutlineHTML_FromRenderedDOCX(t *testing.T) {
	data, err := DOCXRenderer{}.Render(fullProfile())
	if err != nil {
		t.Fatalf("render docx: %v", err)
	}
	items, err := parser.ReadDOCXOutline(data)
	if err != nil {
		t.Fatalf("read docx: %v", err)
	}
	frag, err := OutlineHTML(items)
	if err != nil {
		t.Fatalf("outline html: %v", err)
	}
	want := []string{"About", "Experience", "Education", "Skills", "Certifications", "Languages", "Volunteer", "Recommendations"}
	got := htmlSections(t, frag)
	if len(got) != len(want) {
		t.Fatalf("expected sections %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("section %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
