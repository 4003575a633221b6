package profile

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/onboarding/form"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var johnDoe = form.UserRecord{
	FirstName:         "John",
	LastName:          "Doe",
	Phone:             "+12345678900",
	CorporationNumber: "123456789",
}

type capturedRequest struct {
	method      string
	path        string
	contentType string
	requestID   string
	body        map[string]string
}

func newBackend(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest, *atomic.Int32) {
	t.Helper()
	captured := &capturedRequest{}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.contentType = r.Header.Get("Content-Type")
		captured.requestID = r.Header.Get("X-Request-ID")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, captured, &hits
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{BaseURL: baseURL, Timeout: time.Second}, Dependencies{Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return client
}

func TestSave_Success(t *testing.T) {
	srv, captured, _ := newBackend(t, http.StatusOK, `{}`)
	client := newTestClient(t, srv.URL+"/")

	resp, err := client.Save(context.Background(), johnDoe)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte(`{}`), resp.Body)
	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/profile-details", captured.path)
	assert.Equal(t, "application/json", captured.contentType)
	assert.Equal(t, map[string]string{
		"firstName":         "John",
		"lastName":          "Doe",
		"phone":             "+12345678900",
		"corporationNumber": "123456789",
	}, captured.body)

	_, err = uuid.Parse(captured.requestID)
	assert.NoError(t, err)
}

func TestSave_SequentialSavesAreEquivalent(t *testing.T) {
	srv, captured, hits := newBackend(t, http.StatusOK, `{}`)
	client := newTestClient(t, srv.URL)

	_, err := client.Save(context.Background(), johnDoe)
	require.NoError(t, err)
	first := captured.body

	_, err = client.Save(context.Background(), johnDoe)
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, first, captured.body)
}

func TestSave_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server message", status: http.StatusBadRequest, body: `{"message":"Invalid phone number"}`, wantMsg: "Invalid phone number"},
		{name: "empty message falls back", status: http.StatusConflict, body: `{"message":""}`, wantMsg: "Conflict"},
		{name: "non json body", status: http.StatusInternalServerError, body: `oops`, wantMsg: "Internal Server Error"},
		{name: "unknown status", status: 599, body: ``, wantMsg: "HTTP 599"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, _ := newBackend(t, tt.status, tt.body)
			client := newTestClient(t, srv.URL)

			resp, err := client.Save(context.Background(), johnDoe)
			assert.Nil(t, resp)

			var saveErr *SaveError
			require.True(t, stderrors.As(err, &saveErr))
			assert.Equal(t, tt.status, saveErr.Status)
			assert.Equal(t, tt.wantMsg, saveErr.Message)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestSave_SchemaFailureSkipsRequest(t *testing.T) {
	srv, _, hits := newBackend(t, http.StatusOK, `{}`)
	client := newTestClient(t, srv.URL)

	bad := johnDoe
	bad.Phone = "12345"
	bad.CorporationNumber = "12ab"

	_, err := client.Save(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	assert.False(t, errors.IsRetryable(err))
	assert.Equal(t, int32(0), hits.Load())

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Len(t, stdErr.Metadata["schemaErrors"], 3)
}

func TestSave_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := newTestClient(t, baseURL)
	_, err := client.Save(context.Background(), johnDoe)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeProfileSaveFailed))
	assert.True(t, errors.IsRetryable(err))
}

func TestCheckRecord(t *testing.T) {
	client := newTestClient(t, "http://unused")

	assert.NoError(t, client.CheckRecord(johnDoe))
	assert.Error(t, client.CheckRecord(form.UserRecord{}))
}
