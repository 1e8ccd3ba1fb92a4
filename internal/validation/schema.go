// Package validation checks custom front matter metadata against a
// user-supplied schema. Schemas are compiled once per index so the per-post
// hot path only runs the compiled validator.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("metadata schema invalid")
	ErrSchemaValidation = errors.New("metadata validation failed")
)

// ValidationIssue is one failed constraint, located by JSON pointer.
type ValidationIssue struct {
	Location string
	Message  string
}

// PayloadValidationError aggregates every issue found in a single payload.
type PayloadValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.render())
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadValidationError) Unwrap() error {
	return ErrSchemaValidation
}

func (issue ValidationIssue) render() string {
	location := strings.TrimSpace(issue.Location)
	switch {
	case location == "":
		location = "#"
	case !strings.HasPrefix(location, "#"):
		location = "#" + location
	}
	if issue.Message == "" {
		return location
	}
	return fmt.Sprintf("%s: %s", location, issue.Message)
}

// Issues extracts the individual failures from a validation error. Errors
// from other sources collapse into a single location-less issue.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadValidationError
	if errors.As(err, &payloadErr) && payloadErr != nil {
		return payloadErr.Issues
	}
	var schemaErr *jsonschema.ValidationError
	if errors.As(err, &schemaErr) && schemaErr != nil {
		return flattenCauses(schemaErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

// MetadataSchema is a compiled validator for post metadata.
type MetadataSchema struct {
	compiled *jsonschema.Schema
}

// Compile normalizes and compiles a schema definition. Definitions may be a
// JSON schema or a field-list declaration from configuration; empty or
// non-schema definitions yield a nil schema, which validates nothing.
func Compile(definition map[string]any) (*MetadataSchema, error) {
	normalized := normalizeDefinition(definition)
	if normalized == nil {
		return nil, nil
	}
	compiled, err := compile(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &MetadataSchema{compiled: compiled}, nil
}

// Validate checks a metadata payload. A nil receiver accepts everything, so
// callers with no configured schema can hold a nil *MetadataSchema.
func (s *MetadataSchema) Validate(payload map[string]any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if err := s.compiled.Validate(payload); err != nil {
		return &PayloadValidationError{Issues: Issues(err), Cause: err}
	}
	return nil
}

// schemaKeywords marks a definition that is already a JSON schema rather
// than a field-list declaration.
var schemaKeywords = []string{"$schema", "type", "properties", "oneOf", "anyOf", "allOf"}

func normalizeDefinition(definition map[string]any) map[string]any {
	if len(definition) == 0 {
		return nil
	}
	for _, keyword := range schemaKeywords {
		if _, ok := definition[keyword]; ok {
			return deepCopyMap(definition)
		}
	}
	fields, ok := definition["fields"]
	if !ok {
		return nil
	}
	return schemaFromFieldList(fields, definition)
}

// schemaFromFieldList expands a declaration like
//
//	fields:
//	  - name: category
//	    type: string
//	    required: true
//
// into an object schema. Unknown metadata keys stay allowed unless the
// declaration sets additionalProperties to false.
func schemaFromFieldList(fields any, definition map[string]any) map[string]any {
	properties := map[string]any{}
	required := []string{}

	appendField := func(field map[string]any) {
		name, property, isRequired := normalizeField(field)
		if name == "" {
			return
		}
		properties[name] = property
		if isRequired {
			required = append(required, name)
		}
	}

	switch typed := fields.(type) {
	case []any:
		for _, entry := range typed {
			switch field := entry.(type) {
			case map[string]any:
				appendField(field)
			case string:
				appendField(map[string]any{"name": field})
			}
		}
	case []map[string]any:
		for _, field := range typed {
			appendField(field)
		}
	}

	if len(properties) == 0 {
		return nil
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
	if allowed, ok := definition["additionalProperties"].(bool); ok {
		schema["additionalProperties"] = allowed
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func normalizeField(field map[string]any) (name string, property map[string]any, required bool) {
	if field == nil {
		return "", nil, false
	}
	name, _ = field["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, false
	}

	switch {
	case field["schema"] != nil:
		if nested, ok := field["schema"].(map[string]any); ok {
			property = deepCopyMap(nested)
		}
	case field["type"] != nil:
		if fieldType, ok := field["type"].(string); ok {
			if jsonType := normalizeJSONType(fieldType); jsonType != "" {
				property = map[string]any{"type": jsonType}
			}
		}
	}
	if property == nil {
		property = map[string]any{}
	}

	flag, _ := field["required"].(bool)
	return name, property, flag
}

func normalizeJSONType(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "string", "number", "integer", "boolean", "object", "array", "null":
		return normalized
	}
	return ""
}

func deepCopyMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = deepCopyValue(value)
	}
	return out
}

func deepCopyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return deepCopyMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, entry := range typed {
			out[i] = deepCopyValue(entry)
		}
		return out
	default:
		return value
	}
}

func compile(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("metadata.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("metadata.json")
}

func flattenCauses(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	if len(err.Causes) == 0 {
		return []ValidationIssue{{
			Location: strings.TrimSpace(err.InstanceLocation),
			Message:  strings.TrimSpace(err.Message),
		}}
	}
	issues := []ValidationIssue{}
	for _, cause := range err.Causes {
		issues = append(issues, flattenCauses(cause)...)
	}
	return issues
}
