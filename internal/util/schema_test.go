package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scrapeArgs struct {
	URL       string  `json:"url" description:"Page to fetch"`
	MaxLength *int    `json:"max_length,omitempty"`
	Depth     float64 `json:"depth,omitempty"`
	hidden    string
	Skipped   string  `json:"-"`
}

func TestCreateSchemaFromStruct(t *testing.T) {
	schema := CreateSchema(scrapeArgs{})

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, 3)

	urlProp, ok := props["url"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", urlProp["type"])
	assert.Equal(t, "Page to fetch", urlProp["description"])

	// Pointer and omitempty fields stay optional.
	assert.Equal(t, []string{"url"}, schema["required"])

	_, skipped := props["Skipped"]
	assert.False(t, skipped)
}

func TestCreateSchemaNonStruct(t *testing.T) {
	schema := CreateSchema("not a struct")

	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])
	assert.NotContains(t, schema, "required")
}

func TestValidateParametersRequired(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string"},
		},
		"required": []string{"url"},
	}

	err := ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "url", verr.Field)

	assert.NoError(t, ValidateParameters(map[string]any{"url": "https://example.com"}, schema))
}

func TestValidateParametersRequiredFromDecodedJSON(t *testing.T) {
	// Schemas decoded from JSON carry required as []any.
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required":   []any{"query"},
	}

	err := ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)
	assert.NoError(t, ValidateParameters(map[string]any{"query": "cruise deals"}, schema))
}

func TestValidateParametersTypes(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count":   map[string]any{"type": "integer"},
			"ratio":   map[string]any{"type": "number"},
			"verbose": map[string]any{"type": "boolean"},
			"tags":    map[string]any{"type": "array"},
			"extra":   map[string]any{"type": "object"},
		},
	}

	// encoding/json decodes numbers to float64; whole values count as integers.
	assert.NoError(t, ValidateParameters(map[string]any{"count": 3.0}, schema))

	err := ValidateParameters(map[string]any{"count": 3.5}, schema)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "count", verr.Field)
	assert.Equal(t, 3.5, verr.Value)

	assert.NoError(t, ValidateParameters(map[string]any{"ratio": 0.5}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"verbose": "yes"}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"tags": []any{"a"}}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"extra": map[string]any{}}, schema))

	// nil values and undeclared fields pass.
	assert.NoError(t, ValidateParameters(map[string]any{"count": nil, "unknown": 1}, schema))
}
