package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errEmptyResponse = errors.New("model returned an empty response")

// stripFences removes the markdown code fence models sometimes wrap JSON
// in, even when asked for a JSON mime type.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// decodeJSON parses a model reply into T after checking that every field
// the schema marks as required is present.
func decodeJSON[T any](text string, schema *schemaNode) (*T, error) {
	text = stripFences(text)
	if text == "" {
		return nil, errEmptyResponse
	}

	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	if err := checkRequired(schema, raw, "response"); err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return &out, nil
}

func checkRequired(schema *schemaNode, value any, path string) error {
	switch schema.kind {
	case kindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected an object", path)
		}
		for _, field := range schema.required {
			v, exists := obj[field]
			if !exists || v == nil {
				return fmt.Errorf("missing required field '%s.%s' in response", path, field)
			}
		}
		for name, prop := range schema.properties {
			if v, exists := obj[name]; exists && v != nil {
				if err := checkRequired(prop, v, path+"."+name); err != nil {
					return err
				}
			}
		}
	case kindArray:
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s: expected an array", path)
		}
		for i, item := range items {
			if err := checkRequired(schema.items, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case kindNumber:
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("%s: expected a number", path)
		}
	case kindString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s: expected a string", path)
		}
	}
	return nil
}
