package render

import "github.com/dgallion1/profilex/internal/profile"

// Section is a top-level section title, shared by every format.
type Section string

const (
	SectionAbout           Section = "About"
	SectionExperience      Section = "Experience"
	SectionEducation       Section = "Education"
	SectionSkills          Section = "Skills"
	SectionCertifications  Section = "Certifications"
	SectionLanguages       Section = "Languages"
	SectionVolunteer       Section = "Volunteer"
	SectionRecommendations Section = "Recommendations"
)

// Sections lists, in render order, the sections emitted for p. About,
// Experience and Education are always present; the rest appear only when
// their collection is non-empty.
func Sections(p *profile.Profile) []Section {
	out := []Section{SectionAbout, SectionExperience, SectionEducation}
	if len(p.Skills) > 0 {
		out = append(out, SectionSkills)
	}
	if len(p.Certifications) > 0 {
		out = append(out, SectionCertifications)
	}
	if len(p.Languages) > 0 {
		out = append(out, SectionLanguages)
	}
	if len(p.Volunteer) > 0 {
		out = append(out, SectionVolunteer)
	}
	if len(p.Recommendations) > 0 {
		out = append(out, SectionRecommendations)
	}
	return out
}

func (s Section) slug() string {
	switch s {
	case SectionAbout:
		return "about"
	case SectionExperience:
		return "experience"
	case SectionEducation:
		return "education"
	case SectionSkills:
		return "skills"
	case SectionCertifications:
		return "certifications"
	case SectionLanguages:
		return "languages"
	case SectionVolunteer:
		return "volunteer"
	case SectionRecommendations:
		return "recommendations"
	}
	return "section"
}

// Entry headings. The Markdown parser in internal/parser splits these back
// apart, so the joiners must stay in sync with it. A heading line always
// carries text: entries with every title field empty get a placeholder.

const (
	untitledEntry        = "Untitled"
	anonymousRecommender = "Anonymous"
)

func entryHeading(s string) string {
	if s == "" {
		return untitledEntry
	}
	return s
}

func experienceTitle(e profile.Experience) string {
	return joinAt(e.Title, e.Company)
}

func volunteerTitle(v profile.Volunteer) string {
	return joinAt(v.Role, v.Organization)
}

func joinAt(left, right string) string {
	switch {
	case left != "" && right != "":
		return left + " at " + right
	case left != "":
		return left
	default:
		return right
	}
}

func degreeLine(e profile.Education) string {
	switch {
	case e.Degree != "" && e.Field != "":
		return e.Degree + " in " + e.Field
	case e.Degree != "":
		return e.Degree
	case e.Field != "":
		return "in " + e.Field
	}
	return ""
}

func issuedLine(c profile.Certification) string {
	line := ""
	if c.Issuer != "" {
		line = "Issued by " + c.Issuer
	}
	if c.Date != "" {
		if line == "" {
			return "Issued (" + c.Date + ")"
		}
		line += " (" + c.Date + ")"
	}
	return line
}

func recommendationTitle(r profile.Recommendation) string {
	author := r.Author
	if author == "" {
		author = anonymousRecommender
	}
	if r.Relationship == "" {
		return "From " + author
	}
	return "From " + author + " (" + r.Relationship + ")"
}
