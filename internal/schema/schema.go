// Package schema validates a record against a form schema before it is
// compared with a document. Schemas are OpenAPI 3 schema objects (JSON Schema
// dialect) given either on their own or inside an OpenAPI document.
package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/cvcheck/internal/pointer"
	"github.com/steveyegge/cvcheck/internal/types"
)

// Validator checks records against one schema
type Validator struct {
	schema *openapi3.Schema
}

// Violation is one way a record breaks its schema
type Violation struct {
	Field  types.Address `json:"field"`
	Reason string        `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

// ValidationError lists every violation found in a record
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("record does not match schema (%d violations): %s",
		len(e.Violations), strings.Join(parts, "; "))
}

// Load builds a Validator from JSON or YAML. If data is an OpenAPI document,
// component names the schema under components.schemas to use; it may be empty
// when the document defines exactly one schema.
func Load(ctx context.Context, data []byte, component string) (*Validator, error) {
	var top map[string]any
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("schema: parse document: %w", err)
	}
	if top == nil {
		return nil, errors.New("schema: document is empty")
	}

	if _, ok := top["openapi"]; ok {
		return loadFromDocument(ctx, data, component)
	}

	// A bare schema object: normalize YAML to JSON for the schema decoder
	raw, err := json.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("schema: convert to JSON: %w", err)
	}
	var s openapi3.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("schema: decode schema: %w", err)
	}
	if err := s.Validate(ctx); err != nil {
		return nil, fmt.Errorf("schema: invalid schema: %w", err)
	}
	return &Validator{schema: &s}, nil
}

func loadFromDocument(ctx context.Context, data []byte, component string) (*Validator, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("schema: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("schema: validate document: %w", err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, errors.New("schema: document has no component schemas")
	}

	schemas := doc.Components.Schemas
	if component == "" {
		if len(schemas) != 1 {
			return nil, fmt.Errorf("schema: document defines %d schemas, choose one of: %s",
				len(schemas), strings.Join(schemaNames(schemas), ", "))
		}
		for name := range schemas {
			component = name
		}
	}

	ref, ok := schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("schema: component %q not found (have: %s)",
			component, strings.Join(schemaNames(schemas), ", "))
	}
	return &Validator{schema: ref.Value}, nil
}

func schemaNames(schemas openapi3.Schemas) []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks record against the schema. It returns a *ValidationError
// listing all violations, or nil when the record conforms.
func (v *Validator) Validate(record any) error {
	value, err := toJSONValue(record)
	if err != nil {
		return err
	}

	err = v.schema.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	var violations []Violation
	collect(err, &violations)
	return &ValidationError{Violations: violations}
}

// toJSONValue turns record into the plain map/slice/float64 form the schema visitor expects
func toJSONValue(record any) (any, error) {
	var raw []byte
	switch r := record.(type) {
	case json.RawMessage:
		raw = r
	case []byte:
		raw = r
	default:
		b, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("schema: encode record: %w", err)
		}
		raw = b
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("schema: decode record: %w", err)
	}
	return value, nil
}

func collect(err error, out *[]Violation) {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi {
			collect(e, out)
		}
		return
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		*out = append(*out, Violation{
			Field:  address(schemaErr.JSONPointer()),
			Reason: schemaErr.Reason,
		})
		return
	}

	*out = append(*out, Violation{Field: types.RootAddress, Reason: err.Error()})
}

func address(segments []string) types.Address {
	if len(segments) == 0 {
		return types.RootAddress
	}
	var b strings.Builder
	for _, s := range segments {
		b.WriteString("/")
		b.WriteString(pointer.EscapeKey(s))
	}
	return types.Address(b.String())
}
