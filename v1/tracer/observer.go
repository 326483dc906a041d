package tracer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/orm/v1/observability"
	"github.com/Aleph-Alpha/orm/v1/orm"
)

// ObserveOperation reports a finished orm operation as a client span that
// covers [now-Duration, now], as a child of any span in op.Context. Failed
// operations carry the error and its orm category.
func (t *Tracer) ObserveOperation(op observability.OperationContext) {
	end := time.Now()
	start := end.Add(-op.Duration)

	name := op.Component + "." + op.Operation
	if op.Resource != "" {
		name += " " + op.Resource
	}

	attrs := []attribute.KeyValue{
		attribute.String("db.operation", op.Operation),
	}
	if op.Resource != "" {
		attrs = append(attrs, attribute.String("db.sql.table", op.Resource))
	}
	if op.SubResource != "" {
		attrs = append(attrs, attribute.String("orm.transaction_id", op.SubResource))
	}
	if op.Size > 0 {
		attrs = append(attrs, attribute.Int64("db.rows_affected", op.Size))
	}

	parent := op.Context
	if parent == nil {
		parent = context.Background()
	}
	_, span := t.tracer.Start(parent, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(start),
		trace.WithAttributes(attrs...),
	)
	t.SetAttributes(span, op.Metadata)
	if op.Error != nil {
		span.SetAttributes(attribute.String("error.category", orm.Categorize(op.Error).String()))
		t.RecordErrorOnSpan(span, op.Error)
	}
	span.End(trace.WithTimestamp(end))
}

var _ observability.Observer = (*Tracer)(nil)
