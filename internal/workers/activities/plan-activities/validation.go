package planactivities

import (
	"encoding/json"

	"pedagoplay/internal/common/errors"
	"pedagoplay/internal/common/validation"
)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"num_children", "ages", "weather", "location"},
		Properties: map[string]validation.Property{
			"num_children": {
				Type:        "integer",
				Description: "Number of children taking part",
				Minimum:     validation.FloatPtr(1),
			},
			"ages": {
				Type:        "array",
				Description: "Ages of the children in years",
				Items: &validation.Property{
					Type:    "integer",
					Minimum: validation.FloatPtr(0),
				},
			},
			"weather": {
				Type:        "string",
				Description: "Current weather, e.g. sunny, rainy, snowy",
			},
			"location": {
				Type:        "string",
				Description: "Where the activities take place",
			},
			"special_cases": {
				Type:        "string",
				Description: "Allergies, disabilities, space limits",
			},
		},
	}
}

// DecodeInput validates raw variables against the input schema and decodes
// them. Unknown keys are ignored; process instances carry other variables.
func DecodeInput(variables map[string]interface{}) (*Input, error) {
	if variables == nil {
		return nil, errors.NewValidationFailedError("request body is empty")
	}
	if v, ok := variables["special_cases"]; ok && v == nil {
		delete(variables, "special_cases")
	}

	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewValidationFailedError(result.String())
	}

	raw, err := json.Marshal(variables)
	if err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
}
