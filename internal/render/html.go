package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/profilex/internal/profile"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLRenderer emits an embeddable fragment: one profile-container div with
// a header block and one section element per rendered section. There is no
// document wrapper.
type HTMLRenderer struct{}

func (HTMLRenderer) Format() Format    { return FormatHTML }
func (HTMLRenderer) Extension() string { return ".html" }

func (HTMLRenderer) Render(p *profile.Profile) ([]byte, error) {
	root := el("div", "profile-container")

	header := el("header", "profile-header", el("h1", "profile-name", text(p.Name)))
	if p.Headline != "" {
		header.AppendChild(el("h2", "profile-headline", text(p.Headline)))
	}
	if p.Location != "" {
		header.AppendChild(el("p", "profile-location", text(p.Location)))
	}
	appendBlock(root, header)

	for _, s := range Sections(p) {
		sec := el("section", "profile-section "+s.slug()+"-section", el("h3", "section-title", text(string(s))))
		sec.Attr = append(sec.Attr, html.Attribute{Key: "data-section", Val: s.slug()})

		switch s {
		case SectionAbout:
			if p.About != "" {
				for _, para := range paragraphs(p.About) {
					sec.AppendChild(el("p", "profile-about", text(para)))
				}
			}

		case SectionExperience:
			list := el("div", "experience-list")
			for _, e := range p.Experience {
				title, company := leading(e.Title, e.Company)
				head := el("div", "experience-header", el("h4", "experience-title", text(title)))
				if company != "" {
					head.AppendChild(el("span", "company-name", text(company)))
				}
				if e.Duration != "" {
					head.AppendChild(el("span", "duration", text(e.Duration)))
				}
				item := el("div", "experience-item", head)
				for _, para := range paragraphs(e.Description) {
					item.AppendChild(el("p", "experience-description", text(para)))
				}
				list.AppendChild(item)
			}
			sec.AppendChild(list)

		case SectionEducation:
			list := el("div", "education-list")
			for _, e := range p.Education {
				item := el("div", "education-item", el("h4", "school", text(e.School)))
				if line := degreeLine(e); line != "" {
					item.AppendChild(el("p", "degree", text(line)))
				}
				if e.Years != "" {
					item.AppendChild(el("span", "years", text(e.Years)))
				}
				list.AppendChild(item)
			}
			sec.AppendChild(list)

		case SectionSkills:
			list := el("div", "skills-list")
			for _, skill := range p.Skills {
				list.AppendChild(el("span", "skill-tag", text(skill)))
			}
			sec.AppendChild(list)

		case SectionCertifications:
			list := el("div", "certifications-list")
			for _, c := range p.Certifications {
				meta := el("p", "certification-meta")
				if c.Issuer != "" {
					meta.AppendChild(el("span", "issuer", text(c.Issuer)))
				}
				if c.Date != "" {
					meta.AppendChild(el("span", "date", text(c.Date)))
				}
				list.AppendChild(el("div", "certification-item", el("h4", "certification-name", text(c.Name)), meta))
			}
			sec.AppendChild(list)

		case SectionLanguages:
			list := el("div", "languages-list")
			for _, lang := range p.Languages {
				list.AppendChild(el("span", "language-tag", text(lang)))
			}
			sec.AppendChild(list)

		case SectionVolunteer:
			list := el("div", "volunteer-list")
			for _, v := range p.Volunteer {
				role, org := leading(v.Role, v.Organization)
				item := el("div", "volunteer-item", el("h4", "volunteer-role", text(role)))
				if org != "" {
					item.AppendChild(el("span", "organization", text(org)))
				}
				if v.Duration != "" {
					item.AppendChild(el("span", "duration", text(v.Duration)))
				}
				list.AppendChild(item)
			}
			sec.AppendChild(list)

		case SectionRecommendations:
			for _, r := range p.Recommendations {
				who := el("p", "recommender-name", text(r.Author))
				if r.Relationship != "" {
					who.AppendChild(text(" "))
					who.AppendChild(el("span", "relationship", text("("+r.Relationship+")")))
				}
				item := el("div", "recommendation-item", who)
				for _, para := range paragraphs(r.Text) {
					item.AppendChild(el("p", "recommendation-content", text(para)))
				}
				sec.AppendChild(item)
			}
		}
		appendBlock(root, sec)
	}
	root.AppendChild(text("\n"))

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func el(tag, class string, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// leading promotes second into the heading slot when first is empty.
func leading(first, second string) (string, string) {
	if first == "" {
		return second, ""
	}
	return first, second
}

// appendBlock puts each top-level block on its own line.
func appendBlock(parent, child *html.Node) {
	parent.AppendChild(text("\n"))
	parent.AppendChild(child)
}

func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
