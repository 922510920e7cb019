package profile

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SanitizeJSON walks raw model output alongside JSONSchema and repairs the
// common deviations: unknown keys are removed, null optionals are dropped,
// and null mandatory values become "" or []. The returned slice names every
// path that was touched.
func SanitizeJSON(raw []byte) ([]byte, []string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, nil, fmt.Errorf("sanitize: top-level value is %T, want object", v)
	}

	var dropped []string
	out := sanitizeValue(JSONSchema(), v, "", &dropped)
	b, err := json.Marshal(out)
	if err != nil {
		return nil, nil, fmt.Errorf("sanitize: encode: %w", err)
	}
	return b, dropped, nil
}

func sanitizeValue(schema map[string]any, v any, path string, dropped *[]string) any {
	switch primaryType(schema) {
	case "object":
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		props, _ := schema["properties"].(map[string]any)
		required := map[string]bool{}
		if req, ok := schema["required"].([]any); ok {
			for _, r := range req {
				required[r.(string)] = true
			}
		}

		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			child := joinPath(path, k)
			propSchema, known := props[k].(map[string]any)
			if !known {
				delete(m, k)
				*dropped = append(*dropped, child+"(unknown)")
				continue
			}
			if m[k] == nil {
				if required[k] {
					m[k] = zeroFor(propSchema)
					*dropped = append(*dropped, child+"(null->zero)")
				} else {
					delete(m, k)
					*dropped = append(*dropped, child+"(null)")
				}
				continue
			}
			m[k] = sanitizeValue(propSchema, m[k], child, dropped)
		}
		return m

	case "array":
		items, ok := v.([]any)
		if !ok {
			return v
		}
		itemSchema, _ := schema["items"].(map[string]any)
		out := make([]any, 0, len(items))
		for i, it := range items {
			if it == nil {
				*dropped = append(*dropped, fmt.Sprintf("%s[%d](null)", path, i))
				continue
			}
			out = append(out, sanitizeValue(itemSchema, it, fmt.Sprintf("%s[%d]", path, i), dropped))
		}
		return out

	case "string":
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return v
}

// primaryType returns the first non-null type named by a schema node.
func primaryType(schema map[string]any) string {
	switch t := schema["type"].(type) {
	case string:
		return t
	case []any:
		for _, x := range t {
			if s, ok := x.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

func zeroFor(schema map[string]any) any {
	switch primaryType(schema) {
	case "array":
		return []any{}
	case "object":
		return map[string]any{}
	default:
		return ""
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
