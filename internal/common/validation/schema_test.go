// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"subjectId"},
		Properties: map[string]Property{
			"subjectId": {Type: "string", MinLength: IntPtr(1), MaxLength: IntPtr(8)},
			"answers": {
				Type:                 "object",
				AdditionalProperties: BoolPtr(false),
				Properties: map[string]Property{
					"timeline": {Type: "string", Enum: []string{"", "immediate", "exploring"}},
					"tools":    {Type: "array", UniqueItems: true, Items: &Property{Type: "string", Enum: []string{"zapier", "n8n"}}},
				},
			},
		},
		AdditionalProperties: true,
	}
}

func TestValidateInput_Valid(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"subjectId": "acme",
		"answers": map[string]interface{}{
			"timeline": "immediate",
			"tools":    []interface{}{"zapier"},
		},
		"extra": true,
	}, testSchema())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateInput_NullsAreAbsent(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"subjectId": "acme",
		"answers":   map[string]interface{}{"timeline": nil, "tools": nil},
	}, testSchema())

	assert.True(t, result.Valid, result.GetErrorMessages())
}

func TestValidateInput_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]interface{}
		field string
		code  string
	}{
		{"missing required", map[string]interface{}{}, "subjectId", "REQUIRED_FIELD_MISSING"},
		{"too long", map[string]interface{}{"subjectId": "much-too-long"}, "subjectId", "MAX_LENGTH_VIOLATION"},
		{"wrong type", map[string]interface{}{"subjectId": "a", "answers": map[string]interface{}{"tools": "zapier"}}, "answers.tools", "INVALID_TYPE"},
		{"bad enum", map[string]interface{}{"subjectId": "a", "answers": map[string]interface{}{"timeline": "soon"}}, "answers.timeline", "INVALID_ENUM_VALUE"},
		{"bad item", map[string]interface{}{"subjectId": "a", "answers": map[string]interface{}{"tools": []interface{}{"zapier", "excel"}}}, "answers.tools.1", "INVALID_ENUM_VALUE"},
		{"duplicate items", map[string]interface{}{"subjectId": "a", "answers": map[string]interface{}{"tools": []interface{}{"n8n", "n8n"}}}, "answers.tools", "DUPLICATE_ITEMS"},
		{"unknown answer", map[string]interface{}{"subjectId": "a", "answers": map[string]interface{}{"mood": "good"}}, "answers.mood", "EXTRA_FIELD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, testSchema())
			require.False(t, result.Valid)
			require.Len(t, result.Errors, 1, result.GetErrorMessages())
			assert.Equal(t, tt.field, result.Errors[0].Field)
			assert.Equal(t, tt.code, result.Errors[0].Code)
			assert.True(t, result.HasErrors(tt.field))
		})
	}
}

func TestGetErrorsForField_IncludesNested(t *testing.T) {
	result := &ValidationResult{Errors: []ValidationError{
		{Field: "answers.tools.1"},
		{Field: "answers.timeline"},
		{Field: "subjectId"},
	}}

	assert.Len(t, result.GetErrorsForField("answers"), 2)
	assert.Len(t, result.GetErrorsForField("answers.tools"), 1)
	assert.False(t, result.HasErrors("answersX"))
}

func TestGetSchemaFromJSON(t *testing.T) {
	schema, err := GetSchemaFromJSON(`{"type":"object","properties":{"a":{"type":"string"}},"required":["a"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, schema.Required)
	assert.Equal(t, "string", schema.Properties["a"].Type)
}
