package observability

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"lark-ats/internal/common/logger"
)

// LogSpanExporter writes each finished span as one debug log entry.
type LogSpanExporter struct {
	log logger.Logger
}

func NewLogSpanExporter(log logger.Logger) *LogSpanExporter {
	return &LogSpanExporter{log: log}
}

func (e *LogSpanExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		fields := map[string]interface{}{
			"span":        span.Name(),
			"trace_id":    span.SpanContext().TraceID().String(),
			"span_id":     span.SpanContext().SpanID().String(),
			"status":      span.Status().Code.String(),
			"duration_ms": span.EndTime().Sub(span.StartTime()).Milliseconds(),
		}
		if desc := span.Status().Description; desc != "" {
			fields["status_description"] = desc
		}
		for _, attr := range span.Attributes() {
			fields[string(attr.Key)] = attr.Value.Emit()
		}
		e.log.Debug("Span finished", fields)
	}
	return nil
}

func (e *LogSpanExporter) Shutdown(context.Context) error {
	return nil
}
