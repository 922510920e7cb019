package parser

import (
	"errors"
	"strings"

	"github.com/dgallion1/profilex/internal/profile"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrNoProfileName is returned when Markdown has no level-1 heading.
var ErrNoProfileName = errors.New("markdown has no level-1 heading")

// ParseProfileMarkdown rebuilds a Profile from Markdown laid out like the
// profile renderer's output: "#" name, "##" headline, a "**Location:**"
// line, "###" sections and "####" entries.
func ParseProfileMarkdown(src []byte) (*profile.Profile, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	b := &profileBuilder{p: &profile.Profile{}}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.heading(node.Level, strings.TrimSpace(strings.Join(blockLines(node, src), " ")))
		case *ast.Paragraph:
			b.paragraph(blockLines(node, src))
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				var parts []string
				for c := item.FirstChild(); c != nil; c = c.NextSibling() {
					parts = append(parts, blockLines(c, src)...)
				}
				b.listItem(strings.TrimSpace(strings.Join(parts, " ")))
			}
		}
	}

	if b.p.Name == "" {
		return nil, ErrNoProfileName
	}
	b.p.Normalize()
	return b.p, nil
}

// blockLines returns the raw source lines of a block node.
func blockLines(n ast.Node, src []byte) []string {
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimSpace(string(seg.Value(src))))
	}
	return out
}

type profileBuilder struct {
	p       *profile.Profile
	section string
	// entry is true once a "####" heading opened an entry in section.
	entry bool
}

func (b *profileBuilder) heading(level int, title string) {
	switch level {
	case 1:
		b.p.Name = title
		b.section, b.entry = "", false
	case 2:
		b.p.Headline = title
	case 3:
		b.section, b.entry = title, false
	case 4:
		b.entry = true
		switch b.section {
		case "Experience":
			t, c := splitLast(title, " at ")
			b.p.Experience = append(b.p.Experience, profile.Experience{Title: t, Company: c})
		case "Education":
			b.p.Education = append(b.p.Education, profile.Education{School: title})
		case "Certifications":
			b.p.Certifications = append(b.p.Certifications, profile.Certification{Name: title})
		case "Volunteer":
			role, org := splitLast(title, " at ")
			b.p.Volunteer = append(b.p.Volunteer, profile.Volunteer{Role: role, Organization: org})
		case "Recommendations":
			rest := strings.TrimPrefix(title, "From ")
			author, rel := splitParen(rest)
			b.p.Recommendations = append(b.p.Recommendations, profile.Recommendation{Author: author, Relationship: rel})
		default:
			b.entry = false
		}
	}
}

func (b *profileBuilder) paragraph(lines []string) {
	if b.section == "" {
		for _, l := range lines {
			if loc, ok := strings.CutPrefix(l, "**Location:**"); ok {
				b.p.Location = strings.TrimSpace(loc)
			}
		}
		return
	}

	if b.section == "About" {
		b.p.About = appendPara(b.p.About, strings.Join(lines, "\n"))
		return
	}
	if !b.entry {
		return
	}

	switch b.section {
	case "Experience":
		e := &b.p.Experience[len(b.p.Experience)-1]
		var desc []string
		for _, l := range lines {
			if d, ok := italicLine(l); ok && e.Duration == "" && e.Description == "" && len(desc) == 0 {
				e.Duration = d
				continue
			}
			desc = append(desc, l)
		}
		if len(desc) > 0 {
			e.Description = appendPara(e.Description, strings.Join(desc, "\n"))
		}

	case "Education":
		e := &b.p.Education[len(b.p.Education)-1]
		for _, l := range lines {
			if y, ok := italicLine(l); ok {
				e.Years = y
				continue
			}
			if field, ok := strings.CutPrefix(l, "in "); ok && e.Degree == "" {
				e.Field = field
				continue
			}
			e.Degree, e.Field = splitFirst(l, " in ")
		}

	case "Certifications":
		c := &b.p.Certifications[len(b.p.Certifications)-1]
		for _, l := range lines {
			switch {
			case strings.HasPrefix(l, "Issued by "):
				c.Issuer, c.Date = splitParen(strings.TrimPrefix(l, "Issued by "))
			case strings.HasPrefix(l, "Issued ("):
				_, c.Date = splitParen(strings.TrimPrefix(l, "Issued"))
			}
		}

	case "Volunteer":
		v := &b.p.Volunteer[len(b.p.Volunteer)-1]
		for _, l := range lines {
			if d, ok := italicLine(l); ok {
				v.Duration = d
			}
		}

	case "Recommendations":
		r := &b.p.Recommendations[len(b.p.Recommendations)-1]
		r.Text = appendPara(r.Text, strings.Join(lines, "\n"))
	}
}

func (b *profileBuilder) listItem(item string) {
	if item == "" {
		return
	}
	switch b.section {
	case "Skills":
		b.p.Skills = append(b.p.Skills, item)
	case "Languages":
		b.p.Languages = append(b.p.Languages, item)
	}
}

func italicLine(l string) (string, bool) {
	if len(l) >= 2 && strings.HasPrefix(l, "*") && strings.HasSuffix(l, "*") && !strings.HasPrefix(l, "**") {
		return l[1 : len(l)-1], true
	}
	return "", false
}

func appendPara(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + "\n\n" + next
}

func splitLast(s, sep string) (string, string) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):])
	}
	return strings.TrimSpace(s), ""
}

func splitFirst(s, sep string) (string, string) {
	left, right, _ := strings.Cut(s, sep)
	return strings.TrimSpace(left), strings.TrimSpace(right)
}

// splitParen splits "value (note)" into its two parts.
func splitParen(s string) (string, string) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ")") {
		if i := strings.LastIndex(s, "("); i >= 0 {
			return strings.TrimSpace(s[:i]), s[i+1 : len(s)-1]
		}
	}
	return s, ""
}
