package runtime

import (
	"fmt"
	"strings"
	"sync"

	"github.com/asynkron/pakebuild/internal/core/schema"
	"github.com/xeipuuv/gojsonschema"
)

var (
	optionsSchemaLoader     gojsonschema.JSONLoader
	optionsSchemaLoaderErr  error
	optionsSchemaLoaderOnce sync.Once
)

type schemaValidationError struct {
	issues []string
}

func (e schemaValidationError) Error() string {
	if len(e.issues) == 0 {
		return "options failed schema validation"
	}
	return strings.Join(e.issues, "; ")
}

func validateOptionsAgainstSchema(doc map[string]any) error {
	loader, err := loadOptionsSchema()
	if err != nil {
		return fmt.Errorf("runtime: load options schema: %w", err)
	}

	result, err := gojsonschema.Validate(loader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("runtime: schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return schemaValidationError{issues: issues}
}

func loadOptionsSchema() (gojsonschema.JSONLoader, error) {
	optionsSchemaLoaderOnce.Do(func() {
		schemaMap, err := schema.OptionsSchema()
		if err != nil {
			optionsSchemaLoaderErr = err
			return
		}
		optionsSchemaLoader = gojsonschema.NewGoLoader(schemaMap)
	})
	if optionsSchemaLoaderErr != nil {
		return nil, optionsSchemaLoaderErr
	}
	return optionsSchemaLoader, nil
}
