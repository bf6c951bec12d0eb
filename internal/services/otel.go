package services

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"acaipulse/internal/filters"
)

// TracerName identifies spans created by the service layer.
const TracerName = "acaipulse.services"

// dashboardTracer wraps the global tracer so spans follow whatever provider
// the application installed, or none.
type dashboardTracer struct {
	tracer trace.Tracer
}

func newDashboardTracer() *dashboardTracer {
	return &dashboardTracer{tracer: otel.Tracer(TracerName)}
}

// start opens an internal span named "dashboard.<op>".
func (t *dashboardTracer) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "dashboard."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// end closes span, marking it failed when err is set.
func (t *dashboardTracer) end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// selectionAttributes summarises which stages the caller constrained.
func selectionAttributes(sel filters.Selection) []attribute.KeyValue {
	stages := make([]string, 0, len(sel.Values)+3)
	for id := range sel.Values {
		stages = append(stages, id)
	}
	sort.Strings(stages)
	if sel.DateFrom != nil || sel.DateTo != nil {
		stages = append(stages, filters.StageDate)
	}
	if sel.TimeFrom != nil || sel.TimeTo != nil {
		stages = append(stages, filters.StageHour)
	}
	if sel.PromotionOnly {
		stages = append(stages, filters.StagePromotion)
	}
	return []attribute.KeyValue{
		attribute.Int("selection.constrained_stages", len(stages)),
		attribute.String("selection.stages", strings.Join(stages, ",")),
	}
}
