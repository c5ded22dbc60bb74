package constraint

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// recordSchema is the JSON Schema for the persisted constraint-record shape.
// Imported records (bulk import, foreign writers) are validated against it
// before they reach the memory service.
const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Constraint record",
  "type": "object",
  "required": ["id", "type", "text", "params"],
  "additionalProperties": true,
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "type": {
      "type": "string",
      "enum": ["NO_MEETINGS_AFTER_HOUR", "BUDGET_CAP", "NO_SHARING_WITH_EXTERNALS"]
    },
    "severity": {"type": "string", "enum": ["HARD", "SOFT"]},
    "text": {"type": "string"},
    "params": {
      "type": "object",
      "properties": {
        "hour": {"type": "integer", "minimum": 0, "maximum": 23},
        "max_amount": {"type": "number", "minimum": 0},
        "banned_party": {"type": "string", "minLength": 1}
      }
    }
  },
  "allOf": [
    {
      "if": {"properties": {"type": {"const": "NO_MEETINGS_AFTER_HOUR"}}},
      "then": {"properties": {"params": {"required": ["hour"]}}}
    },
    {
      "if": {"properties": {"type": {"const": "BUDGET_CAP"}}},
      "then": {"properties": {"params": {"required": ["max_amount"]}}}
    },
    {
      "if": {"properties": {"type": {"const": "NO_SHARING_WITH_EXTERNALS"}}},
      "then": {"properties": {"params": {"required": ["banned_party"]}}}
    }
  ]
}`

// ValidateRecordJSON checks raw JSON bytes against the record schema and
// returns all violation messages joined, or nil when valid.
func ValidateRecordJSON(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(recordSchema)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validating constraint record: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid constraint record: %s", strings.Join(msgs, "; "))
}
