package form

import (
	"onboarding-workers/internal/common/validation"
)

// User-visible messages.
const (
	MsgRequired            = "Required"
	MsgTooShort            = "Too Short!"
	MsgTooLong             = "Too Long!"
	MsgPhoneInvalid        = "Phone number is not valid"
	MsgNumbersOnly         = "Numbers only"
	MsgCorporationTooShort = "Please enter 9 digit number"
	MsgCorporationTooLong  = "Too long, please enter 9 digit number"
	MsgCorporationInvalid  = "Invalid corporation number"
)

const (
	CorporationNumberLength = 9

	phonePattern             = `^[+][1]\(?([0-9]{3})\)?[-. ]?([0-9]{3})[-. ]?([0-9]{4})$`
	corporationNumberPattern = `^[0-9]*$`
	nameMinLength            = 2
	nameMaxLength            = 50
)

func nameProperty(description string) validation.Property {
	return validation.Property{
		Type:        "string",
		Description: description,
		MinLength:   validation.Int(nameMinLength),
		MaxLength:   validation.Int(nameMaxLength),
		Messages: map[string]string{
			"required":  MsgRequired,
			"minLength": MsgTooShort,
			"maxLength": MsgTooLong,
		},
	}
}

// UserStepSchema is the rule set for the user step. It is also served as the input schema
// of the onboarding activities and used by gojsonschema before a profile save.
func UserStepSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			string(FieldFirstName): nameProperty("Given name"),
			string(FieldLastName):  nameProperty("Family name"),
			string(FieldPhone): {
				Type:        "string",
				Description: "North American number in +1 format",
				Pattern:     validation.String(phonePattern),
				Messages: map[string]string{
					"required": MsgRequired,
					"pattern":  MsgPhoneInvalid,
				},
			},
			string(FieldCorporationNumber): {
				Type:        "string",
				Description: "9 digit corporation number",
				Pattern:     validation.String(corporationNumberPattern),
				MinLength:   validation.Int(CorporationNumberLength),
				MaxLength:   validation.Int(CorporationNumberLength),
				Messages: map[string]string{
					"required":  MsgRequired,
					"pattern":   MsgNumbersOnly,
					"minLength": MsgCorporationTooShort,
					"maxLength": MsgCorporationTooLong,
				},
			},
		},
		Required: []string{
			string(FieldFirstName),
			string(FieldLastName),
			string(FieldPhone),
			string(FieldCorporationNumber),
		},
	}
}

var userStepSchema = UserStepSchema()

// Validate applies the local rules for one field and reports the first failure.
// It never performs I/O; the corporation number lookup is done by Validator.
func Validate(field Field, value string) Outcome {
	prop, ok := userStepSchema.Properties[string(field)]
	if !ok {
		return invalidOutcome("Unknown field")
	}
	if verr := validation.ValidateString(string(field), value, prop, true); verr != nil {
		return invalidOutcome(verr.Message)
	}
	return validOutcome()
}
