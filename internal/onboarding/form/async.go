package form

import (
	"context"
	stderrors "errors"

	"onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/onboarding/corporation"
)

// CorporationChecker is the remote half of corporation number validation.
// *corporation.Client satisfies it.
type CorporationChecker interface {
	CheckCorporationNumber(ctx context.Context, number string) (bool, error)
}

// Validator combines the local rules with the remote corporation number check.
type Validator struct {
	checker CorporationChecker
	logger  logger.Logger
}

func NewValidator(checker CorporationChecker, log logger.Logger) *Validator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Validator{checker: checker, logger: log}
}

// NeedsLookup reports whether value passes the local rules and must be confirmed remotely.
func NeedsLookup(value string) bool {
	return Validate(FieldCorporationNumber, value).Valid
}

// ValidateCorporationNumber runs the local rules and, for exactly 9 digits, the lookup.
// Any lookup failure reads as an invalid number; Transient tells the two apart.
func (v *Validator) ValidateCorporationNumber(ctx context.Context, value string) Outcome {
	if local := Validate(FieldCorporationNumber, value); !local.Valid {
		return local
	}
	return v.lookup(ctx, value)
}

// lookup assumes the local rules already passed.
func (v *Validator) lookup(ctx context.Context, value string) Outcome {
	valid, err := v.checker.CheckCorporationNumber(ctx, value)
	if err != nil {
		if stderrors.Is(err, corporation.ErrNotApplicable) {
			return invalidOutcome(MsgCorporationTooShort)
		}
		v.logger.Warn("Corporation number could not be verified", map[string]interface{}{
			"corporationNumber": value,
			"retryable":         errors.IsRetryable(err),
			"error":             err.Error(),
		})
		return Outcome{Valid: false, Message: MsgCorporationInvalid, Transient: true}
	}
	if !valid {
		return invalidOutcome(MsgCorporationInvalid)
	}
	return validOutcome()
}
