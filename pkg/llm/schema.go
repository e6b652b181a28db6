package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema types, named as in JSON Schema.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Schema is the subset of JSON Schema that generative backends accept as a
// response constraint.
type Schema struct {
	Type        string
	Description string
	Items       *Schema
	Properties  map[string]*Schema
	// PropertyOrder fixes the order properties are presented to the model.
	PropertyOrder []string
	Required      []string
}

// String returns a string schema.
func String() *Schema { return &Schema{Type: TypeString} }

// ArrayOf returns an array schema with the given item schema.
func ArrayOf(items *Schema) *Schema { return &Schema{Type: TypeArray, Items: items} }

// StringArray is the "array of strings" constraint.
func StringArray() *Schema { return ArrayOf(String()) }

// JSONSchema renders s as a JSON Schema document. Objects admit only their
// declared properties.
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	out := map[string]any{"type": s.Type}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.JSONSchema()
		}
		out["properties"] = props
	}
	if s.Type == TypeObject {
		out["additionalProperties"] = false
	}
	if len(s.Required) > 0 {
		req := make([]any, len(s.Required))
		for i, r := range s.Required {
			req[i] = r
		}
		out["required"] = req
	}
	return out
}

// Response validation failures.
var (
	ErrEmptyResponse   = errors.New("empty response")
	ErrInvalidJSON     = errors.New("response is not valid JSON")
	ErrSchemaViolation = errors.New("response does not match schema")
)

// Violation is one schema mismatch reported by the validator.
type Violation struct {
	Field       string
	Description string
}

// SchemaError lists every violation found in a response.
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Description
	}
	return fmt.Sprintf("%s: %s", ErrSchemaViolation, strings.Join(parts, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaViolation }

// Validate checks that text is JSON conforming to s.
func Validate(text string, s *Schema) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyResponse
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(s.JSONSchema()),
		gojsonschema.NewStringLoader(text),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if result.Valid() {
		return nil
	}
	se := &SchemaError{}
	for _, desc := range result.Errors() {
		se.Violations = append(se.Violations, Violation{
			Field:       desc.Field(),
			Description: desc.Description(),
		})
	}
	return se
}
