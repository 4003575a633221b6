package form

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		value   string
		wantMsg string
	}{
		{"first name empty", FieldFirstName, "", MsgRequired},
		{"first name one char", FieldFirstName, "J", MsgTooShort},
		{"first name two chars", FieldFirstName, "Jo", ""},
		{"first name fifty chars", FieldFirstName, strings.Repeat("a", 50), ""},
		{"first name fifty one chars", FieldFirstName, strings.Repeat("a", 51), MsgTooLong},
		{"last name multibyte counts runes", FieldLastName, "Ñú", ""},
		{"last name fifty multibyte runes", FieldLastName, strings.Repeat("é", 50), ""},
		{"last name one multibyte rune", FieldLastName, "é", MsgTooShort},

		{"phone empty", FieldPhone, "", MsgRequired},
		{"phone plain", FieldPhone, "+13062776103", ""},
		{"phone other", FieldPhone, "+12345678900", ""},
		{"phone formatted", FieldPhone, "+1(306) 277-6103", ""},
		{"phone dotted", FieldPhone, "+1306.277.6103", ""},
		{"phone short", FieldPhone, "12345", MsgPhoneInvalid},
		{"phone no plus", FieldPhone, "13062776103", MsgPhoneInvalid},
		{"phone other country", FieldPhone, "+443062776103", MsgPhoneInvalid},

		{"corporation empty", FieldCorporationNumber, "", MsgRequired},
		{"corporation letters", FieldCorporationNumber, "12a", MsgNumbersOnly},
		{"corporation long with letters", FieldCorporationNumber, "1234567890x", MsgNumbersOnly},
		{"corporation short", FieldCorporationNumber, "1234", MsgCorporationTooShort},
		{"corporation long", FieldCorporationNumber, "1234567890", MsgCorporationTooLong},
		{"corporation nine digits", FieldCorporationNumber, "123456789", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Validate(tt.field, tt.value)
			if tt.wantMsg == "" {
				assert.True(t, out.Valid)
				assert.Empty(t, out.Message)
				return
			}
			assert.False(t, out.Valid)
			assert.Equal(t, tt.wantMsg, out.Message)
			assert.False(t, out.Transient)
		})
	}
}

func TestValidate_UnknownField(t *testing.T) {
	assert.False(t, Validate(Field("email"), "a@b.c").Valid)
}
