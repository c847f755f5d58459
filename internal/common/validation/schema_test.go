package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"name", "count"},
		Properties: map[string]Property{
			"name":  {Type: "string", MinLength: IntPtr(1)},
			"count": {Type: "integer", Minimum: FloatPtr(1)},
			"tags":  {Type: "array", Items: &Property{Type: "string"}},
		},
		AdditionalProperties: BoolPtr(false),
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantValid bool
		wantField string
	}{
		{
			name:      "valid map",
			input:     map[string]interface{}{"name": "x", "count": 2, "tags": []string{"a"}},
			wantValid: true,
		},
		{
			name: "valid struct",
			input: struct {
				Name  string `json:"name"`
				Count int    `json:"count"`
			}{"x", 1},
			wantValid: true,
		},
		{
			name:      "missing required",
			input:     map[string]interface{}{"name": "x"},
			wantValid: false,
			wantField: "(root)",
		},
		{
			name:      "below minimum",
			input:     map[string]interface{}{"name": "x", "count": 0},
			wantValid: false,
			wantField: "count",
		},
		{
			name:      "non-integer count",
			input:     map[string]interface{}{"name": "x", "count": 1.5},
			wantValid: false,
			wantField: "count",
		},
		{
			name:      "wrong item type",
			input:     map[string]interface{}{"name": "x", "count": 1, "tags": []interface{}{3}},
			wantValid: false,
			wantField: "tags.0",
		},
		{
			name:      "extra field",
			input:     map[string]interface{}{"name": "x", "count": 1, "extra": true},
			wantValid: false,
			wantField: "(root)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, testSchema())
			assert.Equal(t, tt.wantValid, result.Valid, result.String())
			if !tt.wantValid {
				fields := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					fields = append(fields, e.Field)
				}
				assert.Contains(t, fields, tt.wantField)
				assert.NotEmpty(t, result.GetErrorMessages())
			}
		})
	}
}
