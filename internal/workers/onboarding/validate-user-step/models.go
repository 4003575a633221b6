package validateuserstep

import (
	"onboarding-workers/internal/common/validation"
	"onboarding-workers/internal/onboarding/form"
)

// Input is the user step as entered. Fields may be missing or empty; the rules decide.
type Input struct {
	form.UserRecord
}

type Output struct {
	UserStepValid bool            `json:"userStepValid"`
	User          form.UserRecord `json:"user"`
}

func GetInputSchema() validation.JSONSchema {
	return form.UserStepSchema()
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"userStepValid": {Type: "boolean", Description: "Always true on completion"},
			"user":          {Type: "object", Description: "The validated user step"},
		},
		Required: []string{"userStepValid", "user"},
	}
}
