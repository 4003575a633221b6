package validation

import (
	"fmt"
	"regexp"
	"sync"
	"unicode/utf8"
)

// JSONSchema defines the structure for input/output schemas
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Default     interface{}         `json:"default,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	Items       *Property           `json:"items,omitempty"`      // For array validation
	Properties  map[string]Property `json:"properties,omitempty"` // For nested objects
	Required    []string            `json:"required,omitempty"`   // For nested objects

	// Messages overrides the default message per error code. Not part of the wire schema.
	Messages map[string]string `json:"-"`
}

// Error codes reported in ValidationError.Code.
const (
	CodeRequired      = "REQUIRED_FIELD_MISSING"
	CodeExtraField    = "EXTRA_FIELD"
	CodeInvalidType   = "INVALID_TYPE"
	CodePattern       = "PATTERN_MISMATCH"
	CodeMinLength     = "MIN_LENGTH_VIOLATION"
	CodeMaxLength     = "MAX_LENGTH_VIOLATION"
	CodeEnum          = "INVALID_ENUM_VALUE"
	CodeMinimum       = "MINIMUM_VIOLATION"
	CodeMaximum       = "MAXIMUM_VIOLATION"
	defaultPatternMsg = "value must match pattern %s"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// String returns a pointer to s, for Property literals.
func String(s string) *string { return &s }

// Int returns a pointer to n, for Property literals.
func Int(n int) *int { return &n }

var (
	patternMu    sync.RWMutex
	patternCache = map[string]*regexp.Regexp{}
)

func compilePattern(pattern string) (*regexp.Regexp, error) {
	patternMu.RLock()
	re, ok := patternCache[pattern]
	patternMu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternMu.Lock()
	patternCache[pattern] = re
	patternMu.Unlock()
	return re, nil
}

// ValidateInput validates input against JSON schema with detailed errors
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	errors := []ValidationError{}

	// Check required fields
	for _, requiredField := range schema.Required {
		if _, exists := input[requiredField]; !exists {
			errors = append(errors, ValidationError{
				Field:   requiredField,
				Message: messageFor(schema.Properties[requiredField], "required", "required field missing"),
				Code:    CodeRequired,
			})
		}
	}

	// Validate field types and constraints
	for fieldName, value := range input {
		prop, exists := schema.Properties[fieldName]
		if !exists {
			if !schema.AdditionalProperties {
				errors = append(errors, ValidationError{
					Field:   fieldName,
					Message: "field not allowed in schema",
					Code:    CodeExtraField,
				})
			}
			continue
		}

		if fieldErrors := validateField(fieldName, value, prop, contains(schema.Required, fieldName)); len(fieldErrors) > 0 {
			errors = append(errors, fieldErrors...)
		}
	}

	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// ValidateString applies a string property's rules in order: required, pattern, minLength,
// maxLength, enum. Only the first failure is reported. Lengths count runes.
func ValidateString(fieldName, value string, prop Property, required bool) *ValidationError {
	if value == "" {
		if required {
			return &ValidationError{Field: fieldName, Message: messageFor(prop, "required", "required field missing"), Code: CodeRequired}
		}
		return nil
	}

	if prop.Pattern != nil {
		re, err := compilePattern(*prop.Pattern)
		if err != nil || !re.MatchString(value) {
			return &ValidationError{
				Field:   fieldName,
				Message: messageFor(prop, "pattern", fmt.Sprintf(defaultPatternMsg, *prop.Pattern)),
				Code:    CodePattern,
			}
		}
	}

	length := utf8.RuneCountInString(value)
	if prop.MinLength != nil && length < *prop.MinLength {
		return &ValidationError{
			Field:   fieldName,
			Message: messageFor(prop, "minLength", fmt.Sprintf("value must be at least %d characters", *prop.MinLength)),
			Code:    CodeMinLength,
		}
	}
	if prop.MaxLength != nil && length > *prop.MaxLength {
		return &ValidationError{
			Field:   fieldName,
			Message: messageFor(prop, "maxLength", fmt.Sprintf("value must be at most %d characters", *prop.MaxLength)),
			Code:    CodeMaxLength,
		}
	}

	if len(prop.Enum) > 0 && !contains(prop.Enum, value) {
		return &ValidationError{
			Field:   fieldName,
			Message: messageFor(prop, "enum", fmt.Sprintf("value must be one of %v", prop.Enum)),
			Code:    CodeEnum,
		}
	}
	return nil
}

func messageFor(prop Property, rule, fallback string) string {
	if msg, ok := prop.Messages[rule]; ok {
		return msg
	}
	return fallback
}

func validateField(fieldName string, value interface{}, prop Property, required bool) []ValidationError {
	errors := []ValidationError{}

	// Type validation
	if typeErr := validateType(value, prop.Type); typeErr != nil {
		errors = append(errors, ValidationError{
			Field:   fieldName,
			Message: typeErr.Error(),
			Code:    CodeInvalidType,
		})
		return errors // Return early if type is wrong
	}

	if strVal, ok := value.(string); ok {
		if err := ValidateString(fieldName, strVal, prop, required); err != nil {
			errors = append(errors, *err)
		}
	}

	// Number range validation
	if numVal, ok := value.(float64); ok {
		if prop.Minimum != nil && numVal < *prop.Minimum {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("value must be >= %f", *prop.Minimum),
				Code:    CodeMinimum,
			})
		}
		if prop.Maximum != nil && numVal > *prop.Maximum {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("value must be <= %f", *prop.Maximum),
				Code:    CodeMaximum,
			})
		}
	}

	// Nested object validation
	if objVal, ok := value.(map[string]interface{}); ok && prop.Properties != nil {
		nestedSchema := JSONSchema{
			Type:                 "object",
			Properties:           prop.Properties,
			Required:             prop.Required,
			AdditionalProperties: true,
		}
		nestedResult := ValidateInput(objVal, nestedSchema)
		for _, nestedErr := range nestedResult.Errors {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.%s", fieldName, nestedErr.Field),
				Message: nestedErr.Message,
				Code:    nestedErr.Code,
			})
		}
	}

	return errors
}

func validateType(value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number":
		switch value.(type) {
		case float64, int, int32, int64:
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("expected integer, got %v", v)
			}
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	}
	return nil
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// ValidateActivityNaming validates activity ID follows naming convention
func ValidateActivityNaming(activityId string) error {
	re, _ := compilePattern(`^[a-z]+\.[a-z]+(-[a-z]+)*\.[a-z]+$`)
	if !re.MatchString(activityId) {
		return fmt.Errorf("activity ID must follow format: domain.subject.action (e.g., onboarding.user-step.validate)")
	}
	return nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = err.Error()
	}
	return messages
}
