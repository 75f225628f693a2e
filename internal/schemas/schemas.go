// Package schemas validates outbound ATS application payloads against the
// documented JSON schema for each ATS before anything is sent over the wire.
package schemas

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// FieldError is a single schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every violation found in one payload.
type ValidationError struct {
	Source string       `json:"source"`
	Errors []FieldError `json:"errors"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return fmt.Sprintf("payload for %s failed schema validation: %s", e.Source, strings.Join(parts, "; "))
}

// greenhouseApplicationSchema covers the Harvest candidate application shape.
const greenhouseApplicationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["first_name", "last_name", "email", "job_id"],
  "properties": {
    "first_name": {"type": "string", "minLength": 1},
    "last_name": {"type": "string", "minLength": 1},
    "email": {"type": "string", "format": "email"},
    "phone": {"type": "string"},
    "job_id": {"type": "string", "minLength": 1},
    "resume_text": {"type": "string", "minLength": 1},
    "cover_letter": {"type": "string"},
    "custom_answers": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

// leverApplicationSchema covers the Lever postings apply shape.
const leverApplicationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "email", "posting_id"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "email": {"type": "string", "format": "email"},
    "phone": {"type": "string"},
    "posting_id": {"type": "string", "minLength": 1},
    "resume_text": {"type": "string", "minLength": 1},
    "comments": {"type": "string"},
    "custom_answers": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

// workdayApplicationSchema covers the Workday candidate apply shape.
const workdayApplicationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["candidate", "job_requisition_id"],
  "properties": {
    "candidate": {
      "type": "object",
      "required": ["first_name", "last_name", "email"],
      "properties": {
        "first_name": {"type": "string", "minLength": 1},
        "last_name": {"type": "string", "minLength": 1},
        "email": {"type": "string", "format": "email"},
        "phone": {"type": "string"}
      }
    },
    "job_requisition_id": {"type": "string", "minLength": 1},
    "resume_text": {"type": "string"},
    "custom_answers": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

var applicationSchemas = map[string]string{
	"greenhouse": greenhouseApplicationSchema,
	"lever":      leverApplicationSchema,
	"workday":    workdayApplicationSchema,
}

// HasSchema reports whether a payload schema exists for the source.
func HasSchema(source string) bool {
	_, ok := applicationSchemas[source]
	return ok
}

// ValidateApplicationPayload checks an outbound payload against the source's
// schema. A *ValidationError return lists every violation.
func ValidateApplicationPayload(source string, payload []byte) error {
	schema, ok := applicationSchemas[source]
	if !ok {
		return fmt.Errorf("no application schema for source %q", source)
	}

	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate payload for %s: %w", source, err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Source: source,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
