package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateString_RuleOrder(t *testing.T) {
	prop := Property{
		Type:      "string",
		Pattern:   String(`^[0-9]*$`),
		MinLength: Int(9),
		MaxLength: Int(9),
		Messages: map[string]string{
			"required":  "Required",
			"pattern":   "Numbers only",
			"minLength": "short",
			"maxLength": "long",
		},
	}

	tests := []struct {
		value    string
		required bool
		wantCode string
		wantMsg  string
	}{
		{value: "", required: true, wantCode: CodeRequired, wantMsg: "Required"},
		{value: "", required: false},
		{value: "12a", required: true, wantCode: CodePattern, wantMsg: "Numbers only"},
		{value: "1234567890a", required: true, wantCode: CodePattern, wantMsg: "Numbers only"},
		{value: "1234", required: true, wantCode: CodeMinLength, wantMsg: "short"},
		{value: "1234567890", required: true, wantCode: CodeMaxLength, wantMsg: "long"},
		{value: "123456789", required: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateString("corporationNumber", tt.value, prop, tt.required)
			if tt.wantCode == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.wantMsg, err.Message)
		})
	}
}

func TestValidateString_CountsRunes(t *testing.T) {
	prop := Property{Type: "string", MinLength: Int(2), MaxLength: Int(3)}

	assert.Nil(t, ValidateString("name", "Zoë", prop, true))
	assert.Nil(t, ValidateString("name", "éé", prop, true))
	assert.NotNil(t, ValidateString("name", "é", prop, true))
}

func TestValidateInput(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"name":  {Type: "string", MinLength: Int(2)},
			"count": {Type: "integer"},
		},
		Required: []string{"name", "count"},
	}

	result := ValidateInput(map[string]interface{}{"name": "A", "extra": true}, schema)
	assert.False(t, result.Valid)
	fields := map[string]bool{}
	for _, verr := range result.Errors {
		fields[verr.Field] = true
	}
	assert.Equal(t, map[string]bool{"count": true, "name": true, "extra": true}, fields)
	assert.Len(t, result.GetErrorMessages(), 3)

	result = ValidateInput(map[string]interface{}{"name": "Ann", "count": float64(2)}, schema)
	assert.True(t, result.Valid)
}

func TestValidateActivityNaming(t *testing.T) {
	assert.NoError(t, ValidateActivityNaming("onboarding.user-step.validate"))
	assert.NoError(t, ValidateActivityNaming("onboarding.profile-details.save"))
	assert.Error(t, ValidateActivityNaming("Onboarding.UserStep"))
}
