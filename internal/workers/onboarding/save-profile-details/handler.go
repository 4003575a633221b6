package saveprofiledetails

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"onboarding-workers/internal/common/config"
	"onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"
	"onboarding-workers/internal/common/observability"
	"onboarding-workers/internal/common/validation"
	"onboarding-workers/internal/onboarding/form"
	"onboarding-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const TaskType = "onboarding.profile-details.save"

type Handler struct {
	config       *Config
	logger       logger.Logger
	service      *Service
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Saver        ProfileSaver

	// SMS may be nil; confirmations are then skipped even when enabled.
	SMS           SMSSender
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", ConfigKey, err)
	}
	if opts.Saver == nil {
		return nil, fmt.Errorf("%s: profile saver is required", ConfigKey)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	if workerConfig.SMSEnabled && opts.SMS == nil {
		log.Warn("SMS confirmations enabled without a sender, skipping them", nil)
	}

	return &Handler{
		config: workerConfig,
		logger: log,
		service: NewService(ServiceDependencies{
			Saver:  opts.Saver,
			SMS:    opts.SMS,
			Logger: log,
		}, workerConfig),
		errorHandler: errors.NewErrorHandler(log),
		obs:          opts.Observability,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int64("job.key", job.GetKey()))
	defer span.End()

	h.logger.Info("Processing profile details save", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			err = h.completeJob(ctx, client, job, output)
		}
	}

	status := "completed"
	if err != nil {
		status = "failed"
		span.RecordError(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, extractErrorCode(err)).Inc()
		h.errorHandler.HandleJobError(context.WithoutCancel(ctx), client, job, err)
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	}
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), status)
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}

// parseInput reads the record from the "user" variable written by the validation step,
// or from the top-level variables when it is absent.
func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	if user, ok := variables["user"].(map[string]interface{}); ok {
		variables = user
	}

	fields := make(map[string]interface{}, len(form.Fields))
	for _, f := range form.Fields {
		if v, ok := variables[string(f)]; ok {
			fields[string(f)] = v
		}
	}

	result := validation.ValidateInput(fields, GetInputSchema())
	if !result.Valid {
		stdErr := errors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
		stdErr.Metadata = map[string]interface{}{"fieldErrors": fieldErrors(result)}
		return nil, stdErr
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
}

func fieldErrors(result *validation.ValidationResult) map[string]string {
	out := make(map[string]string, len(result.Errors))
	for _, e := range result.Errors {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		return errors.NewInputParsingFailedError(err)
	}
	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return nil
	}

	h.logger.Info("Profile details save completed", map[string]interface{}{
		"jobKey":        job.GetKey(),
		"profileStatus": output.ProfileStatus,
	})
	return nil
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

// Activity describes this worker for the activity registry.
func (h *Handler) Activity() registry.Activity {
	return registry.Activity{
		ID:                   "save-profile-details",
		DisplayName:          "Save Profile Details",
		Description:          "Sends the validated user step to the onboarding backend and optionally confirms by SMS",
		Category:             "onboarding",
		Version:              "1.0.0",
		TaskType:             TaskType,
		ImplementationStatus: registry.StatusCompleted,
		InputSchema:          registry.SchemaMap(GetInputSchema()),
		OutputSchema:         registry.SchemaMap(GetOutputSchema()),
		ErrorCodes:           []string{"PROFILE_SAVE_FAILED", "INPUT_INVALID"},
		Timeout:              h.config.Timeout.String(),
		Retries:              errors.GetRetryCount(errors.ErrCodeProfileSaveFailed),
		Workflows:            []string{"user-onboarding"},
		Tags:                 []string{"onboarding", "backend", "sms"},
	}
}

func extractErrorCode(err error) string {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}
