package web

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// startRequestSchema is the contract of POST /sentiment: a single required
// string field, nothing else.
const startRequestSchema = `{
	"type": "object",
	"properties": {
		"txt": {"type": "string"}
	},
	"required": ["txt"],
	"additionalProperties": false
}`

func compileStartRequestSchema() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(startRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile request schema: %w", err)
	}

	return schema, nil
}

func validateStartRequest(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("request body is not valid JSON: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(details, "; "))
	}

	return nil
}
