package validateuserstep

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"onboarding-workers/internal/common/config"
	"onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"
	"onboarding-workers/internal/common/observability"
	"onboarding-workers/internal/onboarding/form"
	"onboarding-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const TaskType = "onboarding.user-step.validate"

type Handler struct {
	config       *Config
	logger       logger.Logger
	service      *Service
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Checker       form.CorporationChecker
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", ConfigKey, err)
	}
	if opts.Checker == nil {
		return nil, fmt.Errorf("%s: corporation checker is required", ConfigKey)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:       workerConfig,
		logger:       log,
		service:      NewService(ServiceDependencies{Checker: opts.Checker, Logger: log}, workerConfig),
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

	h.logger.Info("Processing user step validation", map[string]interface{}{
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

// Execute validates the user step. Invalid fields yield USER_STEP_INVALID; a failed
// corporation lookup on an otherwise valid step yields a retryable lookup error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
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

	h.logger.Info("User step validation completed", map[string]interface{}{
		"jobKey": job.GetKey(),
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
		ID:                   "validate-user-step",
		DisplayName:          "Validate User Step",
		Description:          "Applies the user step rules and checks the corporation number against the registry",
		Category:             "onboarding",
		Version:              "1.0.0",
		TaskType:             TaskType,
		ImplementationStatus: registry.StatusCompleted,
		InputSchema:          registry.SchemaMap(GetInputSchema()),
		OutputSchema:         registry.SchemaMap(GetOutputSchema()),
		ErrorCodes:           []string{"USER_STEP_INVALID", "CORPORATION_LOOKUP_FAILED", "INPUT_INVALID"},
		Timeout:              h.config.Timeout.String(),
		Retries:              errors.GetRetryCount(errors.ErrCodeCorporationLookupFailed),
		Workflows:            []string{"user-onboarding"},
		Tags:                 []string{"onboarding", "validation"},
	}
}

func extractErrorCode(err error) string {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}
