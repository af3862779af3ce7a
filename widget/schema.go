package widget

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

// Schema the JSON Schema of one widget config
const Schema = `{
	"type": "object",
	"required": ["name", "type", "dataSource"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"guid": {"type": "string"},
		"type": {"type": "string", "minLength": 1},
		"width": {"type": "number", "minimum": 0},
		"height": {"type": "number", "minimum": 0},
		"dataSource": {"type": "string", "minLength": 1},
		"options": {"type": "object"}
	}
}`

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		schemaCompiled, schemaErr = compiler.Compile([]byte(Schema))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("invalid widget schema: %w", schemaErr)
		}
	})
	return schemaCompiled, schemaErr
}

// ValidateSchema validate a decoded widget config against Schema
func ValidateSchema(data interface{}) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	result := schema.Validate(data)
	if result.IsValid() {
		return nil
	}

	messages := []string{}
	for field, err := range result.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", field, err.Message))
	}
	sort.Strings(messages)
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, "; "))
}
