package saveprofiledetails

import (
	"context"

	"onboarding-workers/internal/common/validation"
	"onboarding-workers/internal/onboarding/form"
	"onboarding-workers/internal/onboarding/profile"
)

type Input struct {
	form.UserRecord
}

type Output struct {
	ProfileSaved  bool   `json:"profileSaved"`
	ProfileStatus int    `json:"profileStatus"`
	SMSMessageID  string `json:"smsMessageId,omitempty"`
}

// ProfileSaver is satisfied by *profile.Client.
type ProfileSaver interface {
	Save(ctx context.Context, record form.UserRecord) (*profile.Response, error)
}

// SMSSender is satisfied by *aws.SMSSender.
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) (string, error)
}

func GetInputSchema() validation.JSONSchema {
	return form.UserStepSchema()
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"profileSaved":  {Type: "boolean"},
			"profileStatus": {Type: "integer", Description: "HTTP status returned by the backend"},
			"smsMessageId":  {Type: "string", Description: "Set when a confirmation SMS was sent"},
		},
		Required: []string{"profileSaved", "profileStatus"},
	}
}
