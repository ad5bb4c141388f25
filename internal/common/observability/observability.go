package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/otlptranslator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"lark-ats/internal/common/logger"
)

// Observability bundles the OpenTelemetry meter and tracer used around
// Lark API calls. The zero value is not usable; use New or NewNoop.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	callCounter    otelmetric.Int64Counter
	callDuration   otelmetric.Float64Histogram

	registry *prometheus.Registry
	pusher   *push.Pusher
}

type settings struct {
	tracerOpts []sdktrace.TracerProviderOption
	pushURL    string
	pushJob    string
	spanLog    logger.Logger
}

// Option configures New.
type Option func(*settings)

// WithTracerProviderOptions passes options straight to the SDK tracer
// provider, e.g. an extra span processor.
func WithTracerProviderOptions(opts ...sdktrace.TracerProviderOption) Option {
	return func(s *settings) {
		s.tracerOpts = append(s.tracerOpts, opts...)
	}
}

// WithPushgateway pushes the default registry and the OpenTelemetry
// instruments to a Pushgateway on Shutdown. An empty url disables it.
func WithPushgateway(url, job string) Option {
	return func(s *settings) {
		s.pushURL = url
		s.pushJob = job
	}
}

// WithSpanLogger exports finished spans to log at debug level.
func WithSpanLogger(log logger.Logger) Option {
	return func(s *settings) {
		s.spanLog = log
	}
}

// New wires a Prometheus-backed meter provider and an SDK tracer provider.
// When the exporter cannot be created it degrades to no-op instruments.
func New(serviceName string, opts ...Option) *Observability {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	tracerOpts := s.tracerOpts
	if s.spanLog != nil {
		tracerOpts = append(tracerOpts, sdktrace.WithSyncer(NewLogSpanExporter(s.spanLog)))
	}
	tracerProvider := sdktrace.NewTracerProvider(tracerOpts...)
	otel.SetTracerProvider(tracerProvider)

	o := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
		registry:       prometheus.NewRegistry(),
	}

	if s.pushURL != "" {
		job := s.pushJob
		if job == "" {
			job = serviceName
		}
		o.pusher = push.New(s.pushURL, job).
			Gatherer(prometheus.Gatherers{prometheus.DefaultGatherer, o.registry})
	}

	exporter, err := otelprom.New(
		otelprom.WithRegisterer(o.registry),
		otelprom.WithTranslationStrategy(otlptranslator.UnderscoreEscapingWithSuffixes),
	)
	if err != nil {
		o.useNoopMeter()
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	o.meterProvider = provider

	o.initInstruments(provider.Meter(serviceName))
	return o
}

// NewNoop returns an Observability whose instruments record nothing.
func NewNoop() *Observability {
	o := &Observability{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
	o.useNoopMeter()
	return o
}

func (o *Observability) useNoopMeter() {
	o.initInstruments(noop.NewMeterProvider().Meter("noop"))
}

func (o *Observability) initInstruments(meter otelmetric.Meter) {
	o.callCounter, _ = meter.Int64Counter(
		"lark.calls",
		otelmetric.WithDescription("Number of Lark Open API calls"),
	)
	o.callDuration, _ = meter.Float64Histogram(
		"lark.call.duration",
		otelmetric.WithDescription("Lark Open API call duration"),
		otelmetric.WithUnit("ms"),
	)
}

// StartSpan opens a client span for one remote operation.
func (o *Observability) StartSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("lark.operation", operation)),
	)
}

// EndSpan records err on the span (if any) and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (o *Observability) RecordRemoteCall(ctx context.Context, operation, outcome string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	if o.callCounter != nil {
		o.callCounter.Add(ctx, 1, attrs)
	}
	if o.callDuration != nil {
		o.callDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

// Shutdown pushes metrics (when a Pushgateway is configured) and then
// flushes and stops both providers. The push happens first so the meter
// provider can still be collected.
func (o *Observability) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if o.pusher != nil {
		if err := o.pusher.PushContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to push metrics: %w", err))
		}
	}
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
