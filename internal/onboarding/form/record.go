// Package form holds the onboarding user step: field rules, the corporation number check
// and the coordinator that owns per-field state between edits and submit.
package form

// Field identifies one input of the user step. The values double as JSON keys.
type Field string

const (
	FieldFirstName         Field = "firstName"
	FieldLastName          Field = "lastName"
	FieldPhone             Field = "phone"
	FieldCorporationNumber Field = "corporationNumber"
)

// Fields lists the user step inputs in display order.
var Fields = []Field{FieldFirstName, FieldLastName, FieldPhone, FieldCorporationNumber}

// UserRecord is the payload collected by the user step and sent to the backend.
type UserRecord struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Phone             string `json:"phone"`
	CorporationNumber string `json:"corporationNumber"`
}

func (r UserRecord) Get(f Field) string {
	switch f {
	case FieldFirstName:
		return r.FirstName
	case FieldLastName:
		return r.LastName
	case FieldPhone:
		return r.Phone
	case FieldCorporationNumber:
		return r.CorporationNumber
	}
	return ""
}

func (r *UserRecord) Set(f Field, value string) {
	switch f {
	case FieldFirstName:
		r.FirstName = value
	case FieldLastName:
		r.LastName = value
	case FieldPhone:
		r.Phone = value
	case FieldCorporationNumber:
		r.CorporationNumber = value
	}
}

// Outcome is the result of validating one value. Message is empty when Valid.
type Outcome struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`

	// Transient marks a failure caused by the lookup service rather than the value.
	Transient bool `json:"transient,omitempty"`
}

func validOutcome() Outcome { return Outcome{Valid: true} }

func invalidOutcome(msg string) Outcome { return Outcome{Valid: false, Message: msg} }
