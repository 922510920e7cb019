package pipeline

import (
	"encoding/json"
	"sort"

	"github.com/dgallion1/profilex/internal/browser"
	"github.com/dgallion1/profilex/internal/profile"
	"github.com/dgallion1/profilex/internal/render"
)

// Outcome is the variant of a Result.
type Outcome string

const (
	// FullSuccess: every requested capability completed.
	FullSuccess Outcome = "full_success"
	// PartialSuccess: raw text is durable but structuring or at least one
	// renderer failed.
	PartialSuccess Outcome = "partial_success"
	// Failure: nothing durable was produced.
	Failure Outcome = "failure"
)

// Stage names where a run is or where it stopped. Browser states are used
// verbatim during extraction.
type Stage string

const (
	StageValidating  Stage = "validating"
	StagePersisting  Stage = "persisting"
	StageStructuring Stage = "structuring"
	StageRendering   Stage = "rendering"
	StageDone        Stage = "done"
)

func browserStage(s browser.State) Stage { return Stage(s) }

// Artifacts are absolute or output-relative paths of written files.
type Artifacts struct {
	Markdown    string `json:"markdown,omitempty"`
	HTML        string `json:"html,omitempty"`
	DOCX        string `json:"docx,omitempty"`
	PDF         string `json:"pdf,omitempty"`
	ProfileJSON string `json:"profile_json,omitempty"`
}

func (a *Artifacts) set(f render.Format, path string) {
	switch f {
	case render.FormatMarkdown:
		a.Markdown = path
	case render.FormatHTML:
		a.HTML = path
	case render.FormatDOCX:
		a.DOCX = path
	case render.FormatPDF:
		a.PDF = path
	}
}

// Files lists every non-empty artifact path.
func (a Artifacts) Files() []string {
	var out []string
	for _, p := range []string{a.ProfileJSON, a.Markdown, a.HTML, a.DOCX, a.PDF} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Result is the outcome of one run.
type Result struct {
	RunID   string
	Outcome Outcome
	// Stage is where a Failure or PartialSuccess stopped; StageDone otherwise.
	Stage Stage
	Err   error

	Profile        *profile.Profile
	RawPath        string
	ProvenancePath string
	Artifacts      Artifacts
	RenderErrors   map[render.Format]error
}

func (r *Result) Succeeded() bool { return r.Outcome == FullSuccess }

// Durable reports whether raw text survived the run.
func (r *Result) Durable() bool { return r.RawPath != "" }

func (r *Result) MarshalJSON() ([]byte, error) {
	type view struct {
		RunID          string            `json:"run_id"`
		Outcome        Outcome           `json:"outcome"`
		Stage          Stage             `json:"stage"`
		Error          string            `json:"error,omitempty"`
		Profile        *profile.Profile  `json:"profile,omitempty"`
		RawPath        string            `json:"raw_path,omitempty"`
		ProvenancePath string            `json:"provenance_path,omitempty"`
		Artifacts      Artifacts         `json:"artifacts"`
		RenderErrors   map[string]string `json:"render_errors,omitempty"`
	}
	v := view{
		RunID:          r.RunID,
		Outcome:        r.Outcome,
		Stage:          r.Stage,
		Profile:        r.Profile,
		RawPath:        r.RawPath,
		ProvenancePath: r.ProvenancePath,
		Artifacts:      r.Artifacts,
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	if len(r.RenderErrors) > 0 {
		v.RenderErrors = make(map[string]string, len(r.RenderErrors))
		for f, err := range r.RenderErrors {
			v.RenderErrors[string(f)] = err.Error()
		}
	}
	return json.Marshal(v)
}

// FailedFormats lists formats whose renderer failed, sorted.
func (r *Result) FailedFormats() []render.Format {
	out := make([]render.Format, 0, len(r.RenderErrors))
	for f := range r.RenderErrors {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
