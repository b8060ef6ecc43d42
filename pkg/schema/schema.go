// Package schema validates imported workflow documents against the canonical
// JSON schema before they reach the store.
package schema

import (
	"fmt"
	"strings"

	"github.com/dnoice/autoflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

const workflowSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Workflow",
  "type": "object",
  "required": ["name", "steps"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "policy": {
      "type": "object",
      "properties": {
        "parallel": {"type": "boolean"},
        "timeout": {"type": "integer", "minimum": 0},
        "retry_count": {"type": "integer", "minimum": 0},
        "on_failure": {"type": "string", "enum": ["stop", "continue"]}
      }
    },
    "triggers": {
      "type": "object",
      "properties": {
        "schedule": {"type": "string"},
        "condition": {"type": "string"},
        "manual": {"type": "boolean"}
      }
    },
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "command"],
        "properties": {
          "id": {"type": "string", "pattern": "^step_[0-9]+$"},
          "name": {"type": "string"},
          "command": {"type": "string", "minLength": 1},
          "enabled": {"type": "boolean"},
          "timeout": {"type": "integer", "minimum": 0},
          "retry": {"type": "integer", "minimum": -1},
          "on_failure": {"type": "string", "enum": ["stop", "continue"]}
        }
      }
    },
    "variables": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

// ValidateWorkflowDocument checks a JSON workflow document against the
// schema. Failures are reported as a ParseError listing every violation.
func ValidateWorkflowDocument(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(workflowSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &models.ParseError{Reason: "unreadable workflow document", Err: err}
	}

	if !result.Valid() {
		var violations []string
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}

		return &models.ParseError{
			Reason: fmt.Sprintf("schema violations: %s", strings.Join(violations, "; ")),
		}
	}

	return nil
}
