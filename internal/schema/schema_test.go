package schema

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/cvcheck/internal/types"
)

const candidateSchemaYAML = `
type: object
required: [name, email]
properties:
  name:
    type: string
    minLength: 1
  email:
    type: string
  age:
    type: integer
    minimum: 16
  skills:
    type: array
    items:
      type: string
`

const formDocument = `{
  "openapi": "3.0.3",
  "info": {"title": "forms", "version": "1.0.0"},
  "paths": {},
  "components": {
    "schemas": {
      "Candidate": {
        "type": "object",
        "required": ["name"],
        "properties": {"name": {"type": "string"}}
      },
      "Job": {
        "type": "object",
        "properties": {"title": {"type": "string"}}
      }
    }
  }
}`

func TestLoadBareSchema(t *testing.T) {
	v, err := Load(context.Background(), []byte(candidateSchemaYAML), "")
	require.NoError(t, err)

	record := map[string]any{"name": "Jo", "email": "jo@x.com", "age": 30, "skills": []string{"Go"}}
	assert.NoError(t, v.Validate(record))
}

func TestValidateReportsEveryViolation(t *testing.T) {
	v, err := Load(context.Background(), []byte(candidateSchemaYAML), "")
	require.NoError(t, err)

	record := json.RawMessage(`{"name": "Jo", "age": "thirty", "skills": ["Go", 7]}`)
	err = v.Validate(record)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.GreaterOrEqual(t, len(verr.Violations), 3)

	fields := make(map[types.Address]bool)
	var reasons []string
	for _, viol := range verr.Violations {
		fields[viol.Field] = true
		reasons = append(reasons, viol.Reason)
	}
	assert.True(t, fields["/age"], "type error on age: %v", verr.Violations)
	assert.True(t, fields["/skills/1"], "type error on second skill: %v", verr.Violations)
	assert.Contains(t, err.Error(), "email")
}

func TestLoadFromDocument(t *testing.T) {
	ctx := context.Background()

	v, err := Load(ctx, []byte(formDocument), "Candidate")
	require.NoError(t, err)
	assert.NoError(t, v.Validate(map[string]any{"name": "Jo"}))
	assert.Error(t, v.Validate(map[string]any{"role": "Eng"}))

	_, err = Load(ctx, []byte(formDocument), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Candidate, Job")

	_, err = Load(ctx, []byte(formDocument), "Invoice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Invoice" not found`)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "not a mapping", data: "- a\n- b\n"},
		{name: "broken yaml", data: "type: [object"},
		{name: "bad type", data: `{"type": "thing"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), []byte(tt.data), "")
			assert.Error(t, err)
		})
	}
}

func TestValidateUnencodableRecord(t *testing.T) {
	v, err := Load(context.Background(), []byte(`{"type": "object"}`), "")
	require.NoError(t, err)

	err = v.Validate(map[string]any{"f": func() {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode record")
}

func TestAddress(t *testing.T) {
	assert.Equal(t, types.RootAddress, address(nil))
	assert.Equal(t, types.Address("/a~1b/0"), address([]string{"a/b", "0"}))
}
