package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/profilex/internal/profile"
)

func minimalProfile() *profile.Profile {
	p := &profile.Profile{
		Name:       "Jane Doe",
		Headline:   "Engineer",
		Location:   "NYC",
		About:      "Hi",
		Experience: []profile.Experience{{Title: "Eng", Company: "Acme", Duration: "2020-2022"}},
	}
	p.Normalize()
	return p
}

func fullProfile() *profile.Profile {
	p := &profile.Profile{
		Name:     "Ada Lovelace",
		Headline: "Analyst & Writer",
		Location: "London",
		About:    "First paragraph.\n\nSecond paragraph.",
		Experience: []profile.Experience{
			{Title: "Head of Research", Company: "Engine Co", Duration: "1842-1843", Description: "Wrote the notes."},
			{Title: "Consultant", Company: "Babbage Ltd"},
		},
		Education:       []profile.Education{{School: "Home Tutoring", Degree: "Mathematics", Field: "Logic", Years: "1830s"}},
		Skills:          []string{"Algorithms", "Translation"},
		Certifications:  []profile.Certification{{Name: "Royal Society Fellow", Issuer: "Royal Society", Date: "1843"}},
		Languages:       []string{"English", "French"},
		Volunteer:       []profile.Volunteer{{Organization: "Mechanics Institute", Role: "Mentor", Duration: "1840"}},
		Recommendations: []profile.Recommendation{{Author: "Charles Babbage", Relationship: "Colleague", Text: "The Enchantress of Numbers."}},
	}
	p.Normalize()
	return p
}

func markdownSections(md string) []string {
	var out []string
	for _, line := range strings.Split(md, "\n") {
		if title, ok := strings.CutPrefix(line, "### "); ok {
			out = append(out, title)
		}
	}
	return out
}

func htmlSections(t *testing.T, fragment []byte) []string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(fragment))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	var out []string
	doc.Find("section.profile-section > h3").Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

func sectionNames(secs []Section) []string {
	out := make([]string, len(secs))
	for i, s := range secs {
		out[i] = string(s)
	}
	return out
}

func TestConditionalSectionInclusion(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *profile.Profile)
		want   []string
	}{
		{
			name:   "mandatory only",
			mutate: func(p *profile.Profile) {},
			want:   []string{"About", "Experience", "Education"},
		},
		{
			name: "empty mandatory collections still rendered",
			mutate: func(p *profile.Profile) {
				p.About = ""
				p.Experience = []profile.Experience{}
			},
			want: []string{"About", "Experience", "Education"},
		},
		{
			name: "present but empty optional collections omitted",
			mutate: func(p *profile.Profile) {
				p.Certifications = []profile.Certification{}
				p.Languages = []string{}
				p.Volunteer = []profile.Volunteer{}
				p.Recommendations = []profile.Recommendation{}
			},
			want: []string{"About", "Experience", "Education"},
		},
		{
			name: "skills and languages",
			mutate: func(p *profile.Profile) {
				p.Skills = []string{"Go"}
				p.Languages = []string{"English"}
			},
			want: []string{"About", "Experience", "Education", "Skills", "Languages"},
		},
		{
			name: "volunteer and recommendations",
			mutate: func(p *profile.Profile) {
				p.Volunteer = []profile.Volunteer{{Organization: "Food Bank", Role: "Driver"}}
				p.Recommendations = []profile.Recommendation{{Author: "Sam", Text: "Great"}}
			},
			want: []string{"About", "Experience", "Education", "Volunteer", "Recommendations"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := minimalProfile()
			tt.mutate(p)

			if got := sectionNames(Sections(p)); strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Sections = %v, want %v", got, tt.want)
			}
			if got := markdownSections(Markdown(p)); strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("markdown sections = %v, want %v", got, tt.want)
			}
			frag, err := HTMLRenderer{}.Render(p)
			if err != nil {
				t.Fatalf("html render: %v", err)
			}
			if got := htmlSections(t, frag); strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("html sections = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFullProfileSectionsAgreeAcrossFormats(t *testing.T) {
	p := fullProfile()
	want := []string{"About", "Experience", "Education", "Skills", "Certifications", "Languages", "Volunteer", "Recommendations"}

	if got := markdownSections(Markdown(p)); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("markdown sections = %v, want %v", got, want)
	}
	frag, err := HTMLRenderer{}.Render(p)
	if err != nil {
		t.Fatalf("html render: %v", err)
	}
	if got := htmlSections(t, frag); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("html sections = %v, want %v", got, want)
	}
}

func TestSkillsSection(t *testing.T) {
	p := minimalProfile()
	md := Markdown(p)
	if strings.Contains(md, "### Skills") {
		t.Error("expected Skills section to be omitted for empty skills")
	}

	p.Skills = []string{"Go"}
	md = Markdown(p)
	if strings.Count(md, "\n- ") != 1 || !strings.Contains(md, "### Skills\n- Go\n") {
		t.Errorf("expected exactly one Go bullet under Skills, got:\n%s", md)
	}

	frag, err := HTMLRenderer{}.Render(p)
	if err != nil {
		t.Fatalf("html render: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(frag))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	tags := doc.Find("span.skill-tag")
	if tags.Length() != 1 || tags.First().Text() != "Go" {
		t.Errorf("expected one skill tag Go, got %d", tags.Length())
	}
}

func TestMarkdown_ExactOutput(t *testing.T) {
	want := "# Jane Doe\n\n" +
		"## Engineer\n**Location:** NYC\n\n" +
		"### About\nHi\n\n" +
		"### Experience\n\n" +
		"#### Eng at Acme\n*2020-2022*\n\n" +
		"### Education\n"
	if got := Markdown(minimalProfile()); got != want {
		t.Errorf("unexpected markdown:\n%q\nwant:\n%q", got, want)
	}
}

func TestMarkdown_UntitledEntriesStillRender(t *testing.T) {
	p := &profile.Profile{
		Name:            "Jane Doe",
		Experience:      []profile.Experience{{Duration: "2019"}},
		Education:       []profile.Education{{Degree: "BSc"}},
		Certifications:  []profile.Certification{{Issuer: "AWS"}},
		Volunteer:       []profile.Volunteer{{Duration: "2018"}},
		Recommendations: []profile.Recommendation{{Text: "Great"}},
	}
	p.Normalize()

	md := Markdown(p)
	for _, want := range []string{
		"#### Untitled\n*2019*",
		"#### Untitled\nBSc",
		"#### Untitled\nIssued by AWS",
		"#### Untitled\n*2018*",
		"#### From Anonymous",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in markdown:\n%s", want, md)
		}
	}

	for _, f := range []Format{FormatDOCX, FormatPDF} {
		r, err := ForFormat(f)
		if err != nil {
			t.Fatalf("ForFormat(%s): %v", f, err)
		}
		if _, err := r.Render(p); err != nil {
			t.Errorf("render %s: %v", f, err)
		}
	}
}

func TestMarkdown_Deterministic(t *testing.T) {
	a := Markdown(fullProfile())
	b := Markdown(fullProfile())
	if a != b {
		t.Error("expected identical output for identical input")
	}
}

func TestHTML_Fragment(t *testing.T) {
	p := fullProfile()
	p.Name = "<script>alert(1)</script>"
	frag, err := HTMLRenderer{}.Render(p)
	if err != nil {
		t.Fatalf("html render: %v", err)
	}
	s := string(frag)
	if strings.Contains(s, "<script>") {
		t.Error("expected name to be escaped")
	}
	if strings.Contains(s, "<html") || strings.Contains(s, "<body") || strings.Contains(s, "<head") {
		t.Error("expected fragment without document wrapper")
	}
	if !strings.HasPrefix(s, `<div class="profile-container">`) {
		t.Errorf("expected profile container root, got %q", s[:40])
	}
	if !strings.Contains(s, "Analyst &amp; Writer") {
		t.Error("expected headline ampersand to be escaped")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(frag))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	if n := doc.Find("div.experience-item").Length(); n != 2 {
		t.Errorf("expected 2 experience items, got %d", n)
	}
	if got := doc.Find("div.experience-item").First().Find("span.company-name").Text(); got != "Engine Co" {
		t.Errorf("expected company Engine Co, got %q", got)
	}
	if n := doc.Find("p.profile-about").Length(); n != 2 {
		t.Errorf("expected about split into 2 paragraphs, got %d", n)
	}
	if got := doc.Find("span.relationship").Text(); got != "(Colleague)" {
		t.Errorf("unexpected relationship %q", got)
	}
}

func TestForFormat(t *testing.T) {
	for _, f := range DefaultFormats(true) {
		r, err := ForFormat(f)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", f, err)
		}
		if r.Format() != f {
			t.Errorf("expected format %q, got %q", f, r.Format())
		}
	}
	if _, err := ForFormat("rtf"); err == nil {
		t.Error("expected error for unknown format")
	}
	if n := len(DefaultFormats(false)); n != 3 {
		t.Errorf("expected 3 default formats, got %d", n)
	}
}
