package validateuserstep

import (
	"context"
	stderrors "errors"

	"onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/onboarding/form"
)

type ServiceDependencies struct {
	Checker form.CorporationChecker
	Logger  logger.Logger
}

// Service runs the user step through a fresh coordinator per job, the same path the
// interactive form takes.
type Service struct {
	config    *Config
	logger    logger.Logger
	validator *form.Validator
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		logger:    deps.Logger,
		validator: form.NewValidator(deps.Checker, deps.Logger),
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	c := form.NewCoordinator(s.validator, form.Options{
		LookupTimeout: s.config.LookupTimeout,
		Logger:        s.logger,
	})
	defer c.Close()

	for _, f := range form.Fields {
		if err := c.Change(f, input.Get(f)); err != nil {
			return nil, errors.NewInputParsingFailedError(err)
		}
	}

	var validated form.UserRecord
	err := c.Submit(ctx, func(_ context.Context, record form.UserRecord) error {
		validated = record
		return nil
	})
	if err == nil {
		s.logger.Info("User step valid", map[string]interface{}{
			"corporationNumber": validated.CorporationNumber,
		})
		return &Output{UserStepValid: true, User: validated}, nil
	}

	var invalid *form.InvalidError
	if stderrors.As(err, &invalid) {
		if invalid.Retryable() {
			return nil, errors.NewCorporationLookupFailedError(input.CorporationNumber, invalid)
		}
		fieldErrors := make(map[string]string, len(invalid.Fields))
		for f, msg := range invalid.Fields {
			fieldErrors[string(f)] = msg
		}
		s.logger.Info("User step invalid", map[string]interface{}{
			"fieldErrors": fieldErrors,
		})
		return nil, errors.NewUserStepInvalidError(fieldErrors)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errors.NewTimeoutError("user step validation", ctxErr)
	}
	return nil, err
}
