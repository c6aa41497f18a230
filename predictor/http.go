package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jamesainslie/go-srl/dataset"
)

const (
	// RequestIDHeader carries the per-request id.
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 32 << 20
	maxErrorSnippet  = 512
)

var tracer = otel.Tracer("github.com/jamesainslie/go-srl/predictor")

// Request is the body sent to a prediction service.
type Request struct {
	Data dataset.Input `json:"data"`
}

// Response is the body a prediction service answers with. Predicates and
// Roles are accepted at the top level when Predictions is absent.
type Response struct {
	Data        *dataset.Input         `json:"data,omitempty"`
	Predictions *dataset.RawAnnotation `json:"predictions,omitempty"`
	Predicates  []string               `json:"predicates,omitempty"`
	Roles       json.RawMessage        `json:"roles,omitempty"`
}

func (r Response) annotation() (dataset.RawAnnotation, bool) {
	if r.Predictions != nil {
		return *r.Predictions, true
	}
	if r.Predicates != nil || len(r.Roles) > 0 {
		return dataset.RawAnnotation{Predicates: r.Predicates, Roles: r.Roles}, true
	}
	return dataset.RawAnnotation{}, false
}

// Client calls a remote prediction service over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	nullTag    string
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets a per-request timeout.
// Default: 30s.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithNullTag sets the null tag used to normalize sparse roles.
func WithNullTag(tag string) ClientOption {
	return func(c *Client) {
		c.nullTag = tag
	}
}

// WithClientLogger sets the logger for request diagnostics.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the service at endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		nullTag:    dataset.DefaultNullTag,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the service URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Predict sends one sentence and returns the normalized annotation.
func (c *Client) Predict(ctx context.Context, in dataset.Input) (dataset.Annotation, error) {
	ctx, span := tracer.Start(ctx, "predictor.Client.Predict",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPMethodKey.String(http.MethodPost),
			semconv.HTTPURLKey.String(c.endpoint),
		),
	)
	defer span.End()

	a, err := c.predict(ctx, span, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return a, err
}

func (c *Client) predict(ctx context.Context, span trace.Span, in dataset.Input) (dataset.Annotation, error) {
	body, err := json.Marshal(Request{Data: in})
	if err != nil {
		return dataset.Annotation{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return dataset.Annotation{}, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dataset.Annotation{}, fmt.Errorf("request %s: %w", requestID, ctxErr)
		}
		return dataset.Annotation{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(resp.StatusCode))
	c.logger.Debug("prediction response",
		"request_id", requestID,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		return dataset.Annotation{}, fmt.Errorf("%w: %d: %s", ErrStatus, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return dataset.Annotation{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	raw, ok := out.annotation()
	if !ok {
		return dataset.Annotation{}, fmt.Errorf("%w: no predictions field", ErrMalformedResponse)
	}
	return c.normalize(raw, in)
}

// normalize fills given predicates and puts roles in dense form.
func (c *Client) normalize(raw dataset.RawAnnotation, in dataset.Input) (dataset.Annotation, error) {
	if raw.Predicates == nil {
		if in.Predicates == nil {
			return dataset.Annotation{}, fmt.Errorf("%w: no predicates", ErrMalformedResponse)
		}
		raw.Predicates = in.Predicates
	}

	a, err := raw.Normalize(c.nullTag)
	if err != nil {
		if errors.Is(err, dataset.ErrSchema) || errors.Is(err, dataset.ErrFormat) {
			return dataset.Annotation{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		return dataset.Annotation{}, err
	}
	return a, nil
}
