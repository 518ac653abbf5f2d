package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ContractValidator checks decoded response bodies against JSON Schema documents.
// Compiled schemas are cached by name.
type ContractValidator struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

func NewContractValidator() *ContractValidator {
	return &ContractValidator{schemas: make(map[string]*gojsonschema.Schema)}
}

// Register compiles schemaJSON under name.
func (c *ContractValidator) Register(name, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}
	c.mu.Lock()
	c.schemas[name] = schema
	c.mu.Unlock()
	return nil
}

// MustRegister panics on an invalid schema; for package-level contracts.
func (c *ContractValidator) MustRegister(name, schemaJSON string) *ContractValidator {
	if err := c.Register(name, schemaJSON); err != nil {
		panic(err)
	}
	return c
}

// Validate checks doc (any JSON-compatible Go value) against the named schema.
// Unknown names pass.
func (c *ContractValidator) Validate(name string, doc interface{}) error {
	c.mu.RLock()
	schema, ok := c.schemas[name]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("contract %s violated: %s", name, strings.Join(errs, "; "))
	}

	return nil
}
