package snapshot

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed save.schema.json
var saveSchemaJSON string

var (
	schemaOnce sync.Once
	saveSchema *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		saveSchema, schemaErr = jsonschema.CompileString("save.schema.json", saveSchemaJSON)
	})
	return saveSchema, schemaErr
}

// ValidateBody checks a JSON save body against the embedded schema.
func ValidateBody(body []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile save schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("save schema: %w", err)
	}
	return nil
}
