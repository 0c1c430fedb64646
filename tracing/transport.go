package tracing

import (
	"context"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	fivenine "github.com/burtcorp/fivenine-tracker-go"
)

const (
	instrumentationName = "github.com/burtcorp/fivenine-tracker-go/tracing"

	// SpanName is the name of the span wrapping each ping.
	SpanName = "fivenine.track"
)

// Option configures the tracing transport.
type Option func(*tracingTransport)

// WithTracerProvider uses tp instead of the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *tracingTransport) {
		t.tracer = tp.Tracer(instrumentationName)
	}
}

type tracingTransport struct {
	next   fivenine.Transport
	tracer trace.Tracer
}

// Transport wraps next so that each Get runs inside a client span. The
// span carries the event name, event ID and collector host and is marked
// as an error when the transport fails or the collector answers 4xx/5xx.
// The result of next is returned unchanged.
func Transport(next fivenine.Transport, opts ...Option) fivenine.Transport {
	t := &tracingTransport{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *tracingTransport) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	ctx, span := t.tracer.Start(ctx, SpanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(attribute.String("http.request.method", http.MethodGet))
	if u, err := url.Parse(rawURL); err == nil {
		q := u.Query()
		span.SetAttributes(
			attribute.String("server.address", u.Hostname()),
			attribute.String("url.path", u.Path),
			attribute.String("fivenine.event.name", q.Get("nm")),
			attribute.String("fivenine.event.id", q.Get("id")),
			attribute.String("fivenine.entity.id", q.Get("e")),
		)
	}

	resp, err := t.next.Get(ctx, rawURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}

	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		setStatusFromHTTPCode(span, resp.StatusCode)
	}

	return resp, err
}

// setStatusFromHTTPCode sets a client span's status from the response code.
func setStatusFromHTTPCode(span trace.Span, code int) {
	switch {
	case code >= 100 && code < 400:
		span.SetStatus(codes.Ok, "")
	case code >= 400 && code < 500:
		span.SetStatus(codes.Error, "client error")
	case code >= 500:
		span.SetStatus(codes.Error, "server error")
	default:
		span.SetStatus(codes.Unset, "")
	}
}
