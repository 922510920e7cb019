package parser

import (
	"bufio"
	"io"
	"strings"
)

// TextSource reads plain UTF-8 text, normalizing line endings and collapsing
// runs of blank lines to one.
type TextSource struct{}

func (s *TextSource) Text(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out strings.Builder
	blank := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r \t")
		if line == "" {
			blank = out.Len() > 0
			continue
		}
		if blank {
			out.WriteString("\n")
			blank = false
		}
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return out.String(), nil
}
