package casesapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema names known to the validator.
const (
	SchemaLatest     = "latest-cases-per-test"
	SchemaHistorical = "historical-cases-per-test"
)

var builtinSchemas = map[string]string{
	SchemaLatest: `{
		"type": "object",
		"additionalProperties": {"type": "number"}
	}`,
	SchemaHistorical: `{
		"type": "object",
		"propertyNames": {"pattern": "^(\\d{4}-\\d{2}-\\d{2}|\\d{2}-\\d{2}-\\d{4})"},
		"additionalProperties": {"type": "number"}
	}`,
}

// PayloadValidator validates decoded upstream payloads against JSON schemas.
type PayloadValidator interface {
	Validate(schema string, payload any) error
}

// JSONSchemaValidator compiles schemas lazily and caches them.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	sources  map[string]string
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator for the upstream payload schemas.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	sources := make(map[string]string, len(builtinSchemas))
	for name, src := range builtinSchemas {
		sources[name] = src
	}
	return &JSONSchemaValidator{
		sources:  sources,
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks payload against the named schema.
func (v *JSONSchemaValidator) Validate(name string, payload any) error {
	schema, err := v.schemaFor(name)
	if err != nil {
		return err
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("casesapi: %s payload failed validation: %w", name, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(name string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[name]
	src, known := v.sources[name]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	if !known {
		return nil, fmt.Errorf("casesapi: unknown schema %s", name)
	}
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("casesapi: load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("casesapi: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// decodePayload validates raw JSON and decodes it into a value map.
func decodePayload(validator PayloadValidator, schema string, raw []byte) (map[string]float64, error) {
	if validator != nil {
		var doc any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("casesapi: decode response: %w", err)
		}
		if err := validator.Validate(schema, doc); err != nil {
			return nil, err
		}
	}
	var out map[string]float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("casesapi: decode response: %w", err)
	}
	if out == nil {
		out = map[string]float64{}
	}
	return out, nil
}
