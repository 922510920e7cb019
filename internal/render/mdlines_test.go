package render

import (
	"errors"
	"testing"
)

func TestSplitInlineBold(t *testing.T) {
	runs := SplitInlineBold("**A**b**C**")
	want := []Run{
		{Text: ""},
		{Text: "A", Bold: true},
		{Text: "b"},
		{Text: "C", Bold: true},
		{Text: ""},
	}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d: %+v", len(want), len(runs), runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d: expected %+v, got %+v", i, want[i], runs[i])
		}
	}
}

func TestParseMarkdownLines(t *testing.T) {
	md := "# Name\n\n## Headline\n**Location:** NYC\n\n#### Eng at Acme\n*2020*\n- Go\n#hashtag\nplain\n"
	blocks, err := ParseMarkdownLines(md)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		kind  BlockKind
		level int
		text  string
	}{
		{BlockHeading, 1, "Name"},
		{BlockHeading, 2, "Headline"},
		{BlockParagraph, 0, "**Location:** NYC"},
		{BlockHeading, 4, "Eng at Acme"},
		{BlockParagraph, 0, "*2020*"},
		{BlockBullet, 0, "Go"},
		{BlockParagraph, 0, "#hashtag"},
		{BlockParagraph, 0, "plain"},
	}
	if len(blocks) != len(tests) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(tests), len(blocks), blocks)
	}
	for i, tt := range tests {
		b := blocks[i]
		if b.Kind != tt.kind || b.Level != tt.level || b.Text != tt.text {
			t.Errorf("block %d: expected %v/%d/%q, got %v/%d/%q", i, tt.kind, tt.level, tt.text, b.Kind, b.Level, b.Text)
		}
	}

	if r := blocks[4].Runs; len(r) != 1 || !r[0].Italic || r[0].Text != "2020" {
		t.Errorf("expected single italic run, got %+v", r)
	}
	if r := blocks[2].Runs; len(r) != 3 || !r[1].Bold || r[1].Text != "Location:" || r[2].Bold {
		t.Errorf("unexpected location runs %+v", r)
	}
}

func TestParseMarkdownLines_Errors(t *testing.T) {
	tests := []struct {
		name string
		md   string
		line int
	}{
		{"level five heading", "# Name\n##### Too deep\n", 2},
		{"empty heading", "# Name\n\n###\n", 3},
		{"blank heading text", "#    \n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMarkdownLines(tt.md)
			var le *LineError
			if !errors.As(err, &le) {
				t.Fatalf("expected LineError, got %v", err)
			}
			if le.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, le.Line)
			}
		})
	}
}

func TestDOCXFromMarkdown_RejectsUnexpressibleLines(t *testing.T) {
	if _, err := DOCXFromMarkdown("# Name\n###### nested\n"); err == nil {
		t.Fatal("expected error for level 6 heading")
	}
	if _, err := PDFFromMarkdown("# Name\n###### nested\n"); err == nil {
		t.Fatal("expected error for level 6 heading")
	}
}
