package render

import (
	"fmt"
	"strings"
)

// BlockKind classifies one Markdown line.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockBullet
)

// Run is a span of inline text with uniform emphasis.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
}

// Block is one non-empty Markdown line after prefix parsing.
type Block struct {
	Kind  BlockKind
	Level int // 1-4 for headings
	Text  string
	Runs  []Run
}

// MaxHeadingLevel is the deepest heading the line format carries.
const MaxHeadingLevel = 4

// LineError reports a Markdown line the line-prefix conventions cannot express.
type LineError struct {
	Line   int // 1-based
	Text   string
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("markdown line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// ParseMarkdownLines maps each non-blank line to a block using the prefixes
// "# " through "#### ", "- ", whole-line "*italic*" and inline "**bold**".
func ParseMarkdownLines(md string) ([]Block, error) {
	var blocks []Block
	for i, line := range strings.Split(md, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if level := hashRun(line); level > 0 {
			rest := line[level:]
			if rest == "" || rest[0] == ' ' {
				title := strings.TrimSpace(rest)
				switch {
				case level > MaxHeadingLevel:
					return nil, &LineError{Line: i + 1, Text: line, Reason: fmt.Sprintf("heading level %d exceeds %d", level, MaxHeadingLevel)}
				case title == "":
					return nil, &LineError{Line: i + 1, Text: line, Reason: "empty heading"}
				}
				blocks = append(blocks, Block{Kind: BlockHeading, Level: level, Text: title, Runs: []Run{{Text: title}}})
				continue
			}
		}

		if rest, ok := strings.CutPrefix(line, "- "); ok {
			blocks = append(blocks, Block{Kind: BlockBullet, Text: rest, Runs: inlineRuns(rest)})
			continue
		}

		blocks = append(blocks, Block{Kind: BlockParagraph, Text: line, Runs: inlineRuns(line)})
	}
	return blocks, nil
}

func hashRun(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	return n
}

func inlineRuns(line string) []Run {
	if strings.Contains(line, "**") {
		return SplitInlineBold(line)
	}
	if len(line) >= 2 && strings.HasPrefix(line, "*") && strings.HasSuffix(line, "*") {
		return []Run{{Text: line[1 : len(line)-1], Italic: true}}
	}
	return []Run{{Text: line}}
}

// SplitInlineBold splits on "**" and marks odd-indexed segments bold.
// Empty segments are kept so the parity is visible to callers.
func SplitInlineBold(line string) []Run {
	parts := strings.Split(line, "**")
	runs := make([]Run, len(parts))
	for i, part := range parts {
		runs[i] = Run{Text: part, Bold: i%2 == 1}
	}
	return runs
}
