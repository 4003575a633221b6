package validateuserstep

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"onboarding-workers/internal/common/camunda/camundatest"
	"onboarding-workers/internal/common/config"
	"onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/onboarding/form"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Checker
// ==========================

type MockChecker struct {
	mock.Mock
}

func (m *MockChecker) CheckCorporationNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func validRecord() form.UserRecord {
	return form.UserRecord{
		FirstName:         "John",
		LastName:          "Doe",
		Phone:             "+12345678900",
		CorporationNumber: "123456789",
	}
}

func newTestHandler(t *testing.T, checker form.CorporationChecker) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: 5 * time.Second, LookupTimeout: time.Second},
		Checker:      checker,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Handler Creation Tests
// ==========================

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr bool
	}{
		{name: "defaults", opts: HandlerOptions{Checker: &MockChecker{}}},
		{name: "missing checker", opts: HandlerOptions{}, wantErr: true},
		{
			name:    "lookup timeout above job timeout",
			opts:    HandlerOptions{Checker: &MockChecker{}, CustomConfig: &Config{MaxJobsActive: 1, Timeout: time.Second, LookupTimeout: time.Minute}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = logger.NewTestLogger(t)
			h, err := NewHandler(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TaskType, h.GetTaskType())
			assert.True(t, h.IsEnabled())
		})
	}
}

func TestConfigFromAppConfig(t *testing.T) {
	app := &config.Config{
		API: config.APIConfig{Timeout: 2000},
		Workers: map[string]config.WorkerConfig{
			ConfigKey: {Enabled: false, MaxJobsActive: 7, Timeout: 1000},
		},
	}

	cfg := createConfigFromAppConfig(app, nil)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 7, cfg.MaxJobsActive)
	assert.Equal(t, time.Second, cfg.Timeout)
	// Clamped to the job timeout.
	assert.Equal(t, time.Second, cfg.LookupTimeout)
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_Valid(t *testing.T) {
	checker := &MockChecker{}
	checker.On("CheckCorporationNumber", mock.Anything, "123456789").Return(true, nil).Once()
	h := newTestHandler(t, checker)

	input := &Input{UserRecord: validRecord()}
	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, output.UserStepValid)
	assert.Equal(t, validRecord(), output.User)
	checker.AssertExpectations(t)
}

func TestExecute_InvalidFields(t *testing.T) {
	tests := []struct {
		name       string
		record     form.UserRecord
		lookup     *bool
		wantFields map[string]string
	}{
		{
			name:   "empty step",
			record: form.UserRecord{},
			wantFields: map[string]string{
				"firstName":         form.MsgRequired,
				"lastName":          form.MsgRequired,
				"phone":             form.MsgRequired,
				"corporationNumber": form.MsgRequired,
			},
		},
		{
			name:       "short corporation number skips the lookup",
			record:     form.UserRecord{FirstName: "John", LastName: "Doe", Phone: "+12345678900", CorporationNumber: "1234"},
			wantFields: map[string]string{"corporationNumber": form.MsgCorporationTooShort},
		},
		{
			name:       "bad phone and name",
			record:     form.UserRecord{FirstName: "J", LastName: "Doe", Phone: "12345", CorporationNumber: "1234"},
			wantFields: map[string]string{"firstName": form.MsgTooShort, "phone": form.MsgPhoneInvalid, "corporationNumber": form.MsgCorporationTooShort},
		},
		{
			name:       "registry says invalid",
			record:     validRecord(),
			lookup:     boolPtr(false),
			wantFields: map[string]string{"corporationNumber": form.MsgCorporationInvalid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &MockChecker{}
			if tt.lookup != nil {
				checker.On("CheckCorporationNumber", mock.Anything, tt.record.CorporationNumber).Return(*tt.lookup, nil).Once()
			}
			h := newTestHandler(t, checker)

			_, err := h.Execute(context.Background(), &Input{UserRecord: tt.record})
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeUserStepInvalid))
			assert.False(t, errors.IsRetryable(err))

			stdErr, _ := errors.AsStandardError(err)
			assert.Equal(t, tt.wantFields, stdErr.Metadata["fieldErrors"])
			checker.AssertExpectations(t)
		})
	}
}

func TestExecute_LookupFailureIsRetryable(t *testing.T) {
	checker := &MockChecker{}
	checker.On("CheckCorporationNumber", mock.Anything, "123456789").
		Return(false, errors.NewCorporationLookupFailedError("123456789", stderrors.New("connection refused")))
	h := newTestHandler(t, checker)

	_, err := h.Execute(context.Background(), &Input{UserRecord: validRecord()})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCorporationLookupFailed))
	assert.True(t, errors.IsRetryable(err))
}

func TestExecute_LookupFailureWithOtherErrorsIsTerminal(t *testing.T) {
	checker := &MockChecker{}
	checker.On("CheckCorporationNumber", mock.Anything, "123456789").
		Return(false, stderrors.New("connection refused"))
	h := newTestHandler(t, checker)

	record := validRecord()
	record.LastName = ""
	_, err := h.Execute(context.Background(), &Input{UserRecord: record})
	assert.True(t, errors.HasCode(err, errors.ErrCodeUserStepInvalid))
}

func TestExecute_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	checker := &MockChecker{}
	checker.On("CheckCorporationNumber", mock.Anything, "123456789").
		Run(func(mock.Arguments) { <-block }).
		Return(true, nil)
	h := newTestHandler(t, checker)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Execute(ctx, &Input{UserRecord: validRecord()})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTimeout))
}

// ==========================
// Handle Tests
// ==========================

func TestHandle_CompletesJob(t *testing.T) {
	checker := &MockChecker{}
	checker.On("CheckCorporationNumber", mock.Anything, "123456789").Return(true, nil)
	h := newTestHandler(t, checker)

	client := camundatest.NewJobClient()
	err := h.Handle(client, camundatest.NewJob(1, TaskType, 3, validRecord()))
	require.NoError(t, err)

	completed := client.Completed()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(1), completed[0].JobKey)
	assert.Equal(t, true, completed[0].Variables["userStepValid"])
	assert.Equal(t, map[string]interface{}{
		"firstName":         "John",
		"lastName":          "Doe",
		"phone":             "+12345678900",
		"corporationNumber": "123456789",
	}, completed[0].Variables["user"])
	assert.Empty(t, client.Thrown())
	assert.Empty(t, client.Failed())
}

func TestHandle_ThrowsUserStepInvalid(t *testing.T) {
	h := newTestHandler(t, &MockChecker{})

	client := camundatest.NewJobClient()
	record := validRecord()
	record.CorporationNumber = "12ab"
	err := h.Handle(client, camundatest.NewJob(2, TaskType, 3, record))
	require.Error(t, err)

	thrown := client.Thrown()
	require.Len(t, thrown, 1)
	assert.Equal(t, "USER_STEP_INVALID", thrown[0].ErrorCode)
	assert.Equal(t, map[string]interface{}{"corporationNumber": form.MsgNumbersOnly}, thrown[0].Variables["fieldErrors"])
	assert.Empty(t, client.Completed())
	assert.Empty(t, client.Failed())
}

func TestHandle_FailsWithRetriesOnLookupFailure(t *testing.T) {
	checker := &MockChecker{}
	checker.On("CheckCorporationNumber", mock.Anything, "123456789").
		Return(false, stderrors.New("registry unavailable"))
	h := newTestHandler(t, checker)

	client := camundatest.NewJobClient()
	err := h.Handle(client, camundatest.NewJob(3, TaskType, 3, validRecord()))
	require.Error(t, err)

	failed := client.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, int32(2), failed[0].Retries)
	assert.Equal(t, "CORPORATION_LOOKUP_FAILED", failed[0].Variables["originalErrorCode"])
	assert.Empty(t, client.Thrown())
}

func TestHandle_UnparsableVariables(t *testing.T) {
	h := newTestHandler(t, &MockChecker{})

	client := camundatest.NewJobClient()
	err := h.Handle(client, camundatest.NewJob(4, TaskType, 3, map[string]interface{}{"phone": 12345}))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInputParsingFailed))

	thrown := client.Thrown()
	require.Len(t, thrown, 1)
	assert.Equal(t, "INPUT_INVALID", thrown[0].ErrorCode)
}

func TestActivity(t *testing.T) {
	h := newTestHandler(t, &MockChecker{})
	a := h.Activity()

	assert.Equal(t, TaskType, a.TaskType)
	assert.Equal(t, "object", a.InputSchema["type"])
	assert.Contains(t, a.ErrorCodes, "USER_STEP_INVALID")
}

func boolPtr(b bool) *bool { return &b }
