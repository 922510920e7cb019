package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func str() map[string]any { return map[string]any{"type": "string"} }

func nullableStr() map[string]any { return map[string]any{"type": []any{"string", "null"}} }

func object(props map[string]any, required ...string) map[string]any {
	req := make([]any, 0, len(required))
	for _, r := range required {
		req = append(req, r)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             req,
	}
}

func array(items map[string]any, nullable bool) map[string]any {
	if nullable {
		return map[string]any{"type": []any{"array", "null"}, "items": items}
	}
	return map[string]any{"type": "array", "items": items}
}

// JSONSchema returns the schema the model output must satisfy. Optional
// fields accept null so a model may emit them explicitly; sanitizing drops
// them before decoding.
func JSONSchema() map[string]any {
	experience := object(map[string]any{
		"title":       str(),
		"company":     str(),
		"duration":    str(),
		"description": nullableStr(),
	}, "title", "company", "duration")

	education := object(map[string]any{
		"school": str(),
		"degree": str(),
		"field":  nullableStr(),
		"years":  nullableStr(),
	}, "school", "degree")

	certification := object(map[string]any{
		"name":   str(),
		"issuer": str(),
		"date":   nullableStr(),
	}, "name", "issuer")

	volunteer := object(map[string]any{
		"organization": str(),
		"role":         str(),
		"duration":     nullableStr(),
	}, "organization", "role")

	recommendation := object(map[string]any{
		"author":       str(),
		"relationship": str(),
		"text":         str(),
	}, "author", "relationship", "text")

	return object(map[string]any{
		"name":            str(),
		"headline":        str(),
		"location":        str(),
		"about":           str(),
		"experience":      array(experience, false),
		"education":       array(education, false),
		"skills":          array(str(), false),
		"certifications":  array(certification, true),
		"languages":       array(str(), true),
		"volunteer":       array(volunteer, true),
		"recommendations": array(recommendation, true),
	}, "name", "headline", "location", "about", "experience", "education", "skills")
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// CompileSchema compiles an in-memory schema map.
func CompileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateJSON checks data against JSONSchema.
func ValidateJSON(data []byte) error {
	compileOnce.Do(func() {
		compiled, compileErr = CompileSchema("profile.json", JSONSchema())
	})
	if compileErr != nil {
		return compileErr
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
