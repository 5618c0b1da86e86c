package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/enliterator/enliterator/pkg/ekn"

// tracer is resolved against whatever TracerProvider otel.SetTracerProvider
// registered at process start; with none registered (no otel/sdk exporter
// wired into this module) it resolves to the API's no-op provider, so every
// call below is always safe to make unconditionally.
var tracer = otel.Tracer(tracerName)

// StartStageSpan begins a span covering one stage job execution. Callers
// must End it (via EndStageSpan) regardless of the job's outcome.
func StartStageSpan(ctx context.Context, stage string, batchID, runID int64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ekn.stage."+stage, trace.WithAttributes(
		attribute.String("ekn.stage", stage),
		attribute.Int64("ekn.batch_id", batchID),
		attribute.Int64("ekn.run_id", runID),
	))
}

// EndStageSpan records err on span, if non-nil, before ending it.
func EndStageSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
