// Package structure turns harvested page text into a validated Profile
// through a language model.
package structure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/profilex/internal/llm"
	"github.com/dgallion1/profilex/internal/profile"
	"github.com/google/uuid"
)

// SystemPrompt is the fixed instruction sent with every structuring call.
const SystemPrompt = "Extract the LinkedIn profile information into a structured format."

const schemaName = "linkedin_profile"

// ErrEmptyInput is returned before any model call when the raw text is blank.
var ErrEmptyInput = errors.New("raw text is empty")

// SchemaViolationError means the model answered but the answer is not a
// conforming Profile.
type SchemaViolationError struct {
	Detail string
	Raw    string
}

func (e *SchemaViolationError) Error() string {
	return "model output violates profile schema: " + e.Detail
}

type Options struct {
	// LenientOptional repairs null optionals and unknown keys before a
	// second validation attempt.
	LenientOptional bool
}

// Structurer wraps a JSON-capable model client.
type Structurer struct {
	gen  llm.JSONGenerator
	opts Options
	log  *slog.Logger
}

func New(gen llm.JSONGenerator, opts Options, log *slog.Logger) *Structurer {
	return &Structurer{gen: gen, opts: opts, log: log}
}

// Structure makes exactly one model call. Model transport failures are
// returned as *llm.ModelError unchanged, content failures as
// *SchemaViolationError.
func (s *Structurer) Structure(ctx context.Context, rawText string) (*profile.Profile, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, ErrEmptyInput
	}

	rid := uuid.New().String()
	start := time.Now()
	log := s.log.With("req_id", rid, "provider", s.gen.Provider(), "model", s.gen.Model())
	log.Info("llm.structure.start", "text_len", len(rawText))

	content, err := s.gen.GenerateJSON(ctx, llm.JSONRequest{
		System:     SystemPrompt,
		User:       rawText,
		SchemaName: schemaName,
		Schema:     profile.JSONSchema(),
	})
	if err != nil {
		log.Error("llm.structure.http_error", "error", err, "kind", llm.KindOf(err),
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	data := []byte(stripCodeBlock(content))
	if len(data) == 0 {
		return nil, &SchemaViolationError{Detail: "empty model response", Raw: content}
	}

	if err := profile.ValidateJSON(data); err != nil {
		if !s.opts.LenientOptional {
			log.Error("llm.structure.schema_validation_failed", "error", err,
				"elapsed_ms", time.Since(start).Milliseconds())
			return nil, &SchemaViolationError{Detail: err.Error(), Raw: content}
		}
		cleaned, dropped, sErr := profile.SanitizeJSON(data)
		if sErr != nil {
			log.Error("llm.structure.sanitize_failed", "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds())
			return nil, &SchemaViolationError{Detail: sErr.Error(), Raw: content}
		}
		if vErr := profile.ValidateJSON(cleaned); vErr != nil {
			log.Error("llm.structure.schema_validation_failed", "error", vErr,
				"elapsed_ms", time.Since(start).Milliseconds())
			return nil, &SchemaViolationError{Detail: vErr.Error(), Raw: content}
		}
		log.Warn("llm.structure.lenient_sanitize_applied", "dropped", dropped)
		data = cleaned
	}

	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &SchemaViolationError{Detail: fmt.Sprintf("decode: %v", err), Raw: content}
	}
	p.Normalize()
	if err := profile.Validate(&p); err != nil {
		log.Error("llm.structure.schema_validation_failed", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, &SchemaViolationError{Detail: err.Error(), Raw: content}
	}

	log.Info("llm.structure.ok",
		"name", p.Name,
		"experience", len(p.Experience),
		"education", len(p.Education),
		"skills", len(p.Skills),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &p, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
