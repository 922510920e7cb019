package render

import (
	"strings"

	"github.com/dgallion1/profilex/internal/profile"
)

// MarkdownRenderer writes the canonical Markdown form.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Format() Format    { return FormatMarkdown }
func (MarkdownRenderer) Extension() string { return ".md" }

func (MarkdownRenderer) Render(p *profile.Profile) ([]byte, error) {
	return []byte(Markdown(p)), nil
}

// Markdown renders p. Blocks are separated by exactly one blank line and the
// output ends with a single newline; identical input yields identical bytes.
func Markdown(p *profile.Profile) string {
	var blocks []string
	add := func(lines ...string) {
		var kept []string
		for _, l := range lines {
			if l != "" {
				kept = append(kept, l)
			}
		}
		if len(kept) > 0 {
			blocks = append(blocks, strings.Join(kept, "\n"))
		}
	}

	add("# " + p.Name)
	header := []string{}
	if p.Headline != "" {
		header = append(header, "## "+p.Headline)
	}
	if p.Location != "" {
		header = append(header, "**Location:** "+p.Location)
	}
	add(header...)

	for _, s := range Sections(p) {
		heading := "### " + string(s)
		switch s {
		case SectionAbout:
			if p.About != "" {
				add(heading, p.About)
			} else {
				add(heading)
			}

		case SectionExperience:
			add(heading)
			for _, e := range p.Experience {
				add("#### "+entryHeading(experienceTitle(e)), italic(e.Duration))
				add(e.Description)
			}

		case SectionEducation:
			add(heading)
			for _, e := range p.Education {
				add("#### "+entryHeading(e.School), degreeLine(e), italic(e.Years))
			}

		case SectionSkills:
			add(append([]string{heading}, bullets(p.Skills)...)...)

		case SectionCertifications:
			add(heading)
			for _, c := range p.Certifications {
				add("#### "+entryHeading(c.Name), issuedLine(c))
			}

		case SectionLanguages:
			add(append([]string{heading}, bullets(p.Languages)...)...)

		case SectionVolunteer:
			add(heading)
			for _, v := range p.Volunteer {
				add("#### "+entryHeading(volunteerTitle(v)), italic(v.Duration))
			}

		case SectionRecommendations:
			add(heading)
			for _, r := range p.Recommendations {
				add("#### " + recommendationTitle(r))
				add(r.Text)
			}
		}
	}

	return strings.Join(blocks, "\n\n") + "\n"
}

func italic(s string) string {
	if s == "" {
		return ""
	}
	return "*" + s + "*"
}

func bullets(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, "- "+it)
	}
	return out
}
