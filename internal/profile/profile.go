// Package profile defines the structured LinkedIn profile record produced by
// the structuring step and consumed by every renderer.
package profile

import (
	"errors"
	"strings"
)

// Experience is one position held.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description,omitempty"`
}

// Education is one school entry.
type Education struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Field  string `json:"field,omitempty"`
	Years  string `json:"years,omitempty"`
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date,omitempty"`
}

type Volunteer struct {
	Organization string `json:"organization"`
	Role         string `json:"role"`
	Duration     string `json:"duration,omitempty"`
}

type Recommendation struct {
	Author       string `json:"author"`
	Relationship string `json:"relationship"`
	Text         string `json:"text"`
}

// Profile is the root record. Name through Skills are always present once a
// Profile exists; the remaining collections are enrichments and may be nil.
type Profile struct {
	Name       string       `json:"name"`
	Headline   string       `json:"headline"`
	Location   string       `json:"location"`
	About      string       `json:"about"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     []string     `json:"skills"`

	Certifications  []Certification  `json:"certifications,omitempty"`
	Languages       []string         `json:"languages,omitempty"`
	Volunteer       []Volunteer      `json:"volunteer,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// Normalize trims every string field and replaces nil mandatory collections
// with empty ones so the record serializes with all mandatory keys present.
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Headline = strings.TrimSpace(p.Headline)
	p.Location = strings.TrimSpace(p.Location)
	p.About = strings.TrimSpace(p.About)

	if p.Experience == nil {
		p.Experience = []Experience{}
	}
	if p.Education == nil {
		p.Education = []Education{}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}

	for i := range p.Experience {
		e := &p.Experience[i]
		e.Title = strings.TrimSpace(e.Title)
		e.Company = strings.TrimSpace(e.Company)
		e.Duration = strings.TrimSpace(e.Duration)
		e.Description = strings.TrimSpace(e.Description)
	}
	for i := range p.Education {
		e := &p.Education[i]
		e.School = strings.TrimSpace(e.School)
		e.Degree = strings.TrimSpace(e.Degree)
		e.Field = strings.TrimSpace(e.Field)
		e.Years = strings.TrimSpace(e.Years)
	}
	for i := range p.Certifications {
		c := &p.Certifications[i]
		c.Name = strings.TrimSpace(c.Name)
		c.Issuer = strings.TrimSpace(c.Issuer)
		c.Date = strings.TrimSpace(c.Date)
	}
	for i := range p.Volunteer {
		v := &p.Volunteer[i]
		v.Organization = strings.TrimSpace(v.Organization)
		v.Role = strings.TrimSpace(v.Role)
		v.Duration = strings.TrimSpace(v.Duration)
	}
	for i := range p.Recommendations {
		r := &p.Recommendations[i]
		r.Author = strings.TrimSpace(r.Author)
		r.Relationship = strings.TrimSpace(r.Relationship)
		r.Text = strings.TrimSpace(r.Text)
	}
	p.Skills = trimList(p.Skills)
	if p.Languages != nil {
		p.Languages = trimList(p.Languages)
	}
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the fields the JSON schema cannot: a name that is blank
// once trimmed. Entries with empty titles are valid; renderers supply
// placeholders. It expects a normalized profile.
func Validate(p *Profile) error {
	if p == nil {
		return errors.New("profile is nil")
	}
	if p.Name == "" {
		return errors.New("name is empty")
	}
	return nil
}
