// Package profile saves completed user steps to the onboarding backend.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"onboarding-workers/internal/common/errors"
	commonhttp "onboarding-workers/internal/common/http"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"
	"onboarding-workers/internal/onboarding/form"

	"github.com/xeipuuv/gojsonschema"
)

const maxResponseBytes = 1 << 20

// SaveError is a non-2xx answer from the backend. Message is the body's "message" or,
// failing that, the HTTP status text.
type SaveError struct {
	Status  int
	Message string
}

func (e *SaveError) Error() string {
	return e.Message
}

// Response is the raw 2xx answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Dependencies struct {
	Logger     logger.Logger
	HTTPClient *commonhttp.Client
}

type Client struct {
	baseURL string
	http    *commonhttp.Client
	schema  *gojsonschema.Schema
	logger  logger.Logger
}

func NewClient(cfg Config, deps Dependencies) (*Client, error) {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = commonhttp.NewClient(cfg.Timeout)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(form.UserStepSchema()))
	if err != nil {
		return nil, fmt.Errorf("compile user step schema: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    deps.HTTPClient,
		schema:  schema,
		logger:  deps.Logger,
	}, nil
}

// CheckRecord validates the record shape against the user step schema.
func (c *Client) CheckRecord(record form.UserRecord) error {
	result, err := c.schema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return errors.NewValidationFailedError(err.Error())
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	stdErr := errors.NewValidationFailedError(strings.Join(details, "; "))
	stdErr.Metadata = map[string]interface{}{"schemaErrors": details}
	return stdErr
}

// Save POSTs the record to {base}/profile-details. A non-2xx answer returns *SaveError.
func (c *Client) Save(ctx context.Context, record form.UserRecord) (*Response, error) {
	if err := c.CheckRecord(record); err != nil {
		metrics.ProfileSaves.WithLabelValues("rejected").Inc()
		return nil, err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}

	endpoint := c.baseURL + "/profile-details"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewProfileSaveFailedError(err.Error(), 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		metrics.ProfileSaves.WithLabelValues("failed").Inc()
		return nil, errors.NewProfileSaveFailedError("Profile details could not be sent", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.ProfileSaves.WithLabelValues("failed").Inc()
		return nil, errors.NewProfileSaveFailedError("Profile details response could not be read", 0, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		saveErr := &SaveError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
		metrics.ProfileSaves.WithLabelValues("rejected").Inc()
		c.logger.Warn("Profile details save rejected", map[string]interface{}{
			"status":    resp.StatusCode,
			"message":   saveErr.Message,
			"requestId": req.Header.Get(commonhttp.RequestIDHeader),
		})
		return nil, saveErr
	}

	metrics.ProfileSaves.WithLabelValues("saved").Inc()
	c.logger.Info("Profile details saved", map[string]interface{}{
		"status":            resp.StatusCode,
		"corporationNumber": record.CorporationNumber,
		"requestId":         req.Header.Get(commonhttp.RequestIDHeader),
	})
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func errorMessage(status int, body []byte) string {
	var decoded struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Message != "" {
		return decoded.Message
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
