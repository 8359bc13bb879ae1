// Package schema exposes the JSON schema that build options are validated
// against before the packaging tool is invoked.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed options.schema.json
var optionsSchema []byte

// OptionsSchema returns a fresh copy of the build options schema.
func OptionsSchema() (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(optionsSchema, &out); err != nil {
		return nil, fmt.Errorf("schema: decode options schema: %w", err)
	}
	return out, nil
}
