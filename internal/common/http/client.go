// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const RequestIDHeader = "X-Request-ID"

// Doer is satisfied by *http.Client and by Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the outbound HTTP client shared by the onboarding backend clients.
// Every request gets a request ID and a client span.
type Client struct {
	httpClient Doer
	tracer     trace.Tracer
}

func NewClient(timeout time.Duration) *Client {
	return NewClientWithDoer(&http.Client{Timeout: timeout})
}

// NewClientWithDoer wraps an existing transport, e.g. an httptest server's client.
func NewClientWithDoer(doer Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		httpClient: doer,
		tracer:     otel.Tracer("onboarding-workers/http"),
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	ctx, span := c.tracer.Start(ctx, req.Method+" "+req.URL.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
		))
	defer span.End()

	req = req.WithContext(ctx)
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	span.SetAttributes(attribute.String("http.request_id", req.Header.Get(RequestIDHeader)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}
	return resp, nil
}
