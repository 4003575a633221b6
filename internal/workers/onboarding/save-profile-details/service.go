package saveprofiledetails

import (
	"context"
	stderrors "errors"
	"strings"

	"onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/onboarding/form"
	"onboarding-workers/internal/onboarding/profile"
)

type ServiceDependencies struct {
	Saver  ProfileSaver
	SMS    SMSSender
	Logger logger.Logger
}

type Service struct {
	config *Config
	logger logger.Logger
	saver  ProfileSaver
	sms    SMSSender
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		saver:  deps.Saver,
		sms:    deps.SMS,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	resp, err := s.saver.Save(ctx, input.UserRecord)
	if err != nil {
		return nil, classifySaveError(err)
	}

	output := &Output{ProfileSaved: true, ProfileStatus: resp.StatusCode}
	if s.config.SMSEnabled && s.sms != nil {
		output.SMSMessageID = s.sendConfirmation(ctx, input.UserRecord)
	}
	return output, nil
}

// sendConfirmation never fails the save; it returns the message ID or "".
func (s *Service) sendConfirmation(ctx context.Context, record form.UserRecord) string {
	messageID, err := s.sms.SendSMS(ctx, record.Phone, renderMessage(s.config.SMSMessage, record))
	if err != nil {
		stdErr := errors.NewNotificationSendFailedError("sms", err)
		s.logger.Warn("Confirmation SMS not sent", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
		})
		return ""
	}
	s.logger.Info("Confirmation SMS sent", map[string]interface{}{
		"messageId": messageID,
	})
	return messageID
}

func classifySaveError(err error) error {
	var saveErr *profile.SaveError
	if stderrors.As(err, &saveErr) {
		return errors.NewProfileSaveFailedError(saveErr.Message, saveErr.Status, saveErr)
	}
	if _, ok := errors.AsStandardError(err); ok {
		return err
	}
	return errors.NewProfileSaveFailedError("Profile details could not be sent", 0, err)
}

// renderMessage fills {{field}} placeholders from the record.
func renderMessage(template string, record form.UserRecord) string {
	pairs := make([]string, 0, 2*len(form.Fields))
	for _, f := range form.Fields {
		pairs = append(pairs, "{{"+string(f)+"}}", record.Get(f))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
