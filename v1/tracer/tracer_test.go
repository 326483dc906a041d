package tracer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/orm/v1/observability"
	"github.com/Aleph-Alpha/orm/v1/orm"
	"github.com/Aleph-Alpha/orm/v1/schema"
	"github.com/Aleph-Alpha/orm/v1/sqlite"
)

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tr := newTracer(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })
	return tr, sr
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestObserveOperation(t *testing.T) {
	tr, sr := newRecordingTracer(t)

	tr.ObserveOperation(observability.OperationContext{
		Component:   "orm",
		Operation:   "update",
		Resource:    "accounts",
		SubResource: "tx-7",
		Duration:    250 * time.Millisecond,
		Size:        2,
		Metadata:    map[string]interface{}{"retry": 1},
	})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "orm.update accounts", span.Name())
	assert.Equal(t, trace.SpanKindClient, span.SpanKind())
	assert.Equal(t, 250*time.Millisecond, span.EndTime().Sub(span.StartTime()))
	assert.Equal(t, codes.Unset, span.Status().Code)

	a := attrs(span)
	assert.Equal(t, "update", a["db.operation"].AsString())
	assert.Equal(t, "accounts", a["db.sql.table"].AsString())
	assert.Equal(t, "tx-7", a["orm.transaction_id"].AsString())
	assert.Equal(t, int64(2), a["db.rows_affected"].AsInt64())
	assert.Equal(t, int64(1), a["retry"].AsInt64())
}

func TestObserveOperation_Error(t *testing.T) {
	tr, sr := newRecordingTracer(t)

	tr.ObserveOperation(observability.OperationContext{
		Component: "orm",
		Operation: "commit",
		Error:     orm.Classify(orm.ErrSerialization, assert.AnError),
	})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "orm.commit", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "transient", attrs(span)["error.category"].AsString())
	_, hasTable := attrs(span)["db.sql.table"]
	assert.False(t, hasTable)
	require.Len(t, span.Events(), 1)
	assert.Equal(t, "exception", span.Events()[0].Name)
}

func TestObserveOperation_ParentFromContext(t *testing.T) {
	tr, sr := newRecordingTracer(t)

	ctx, request := tr.StartSpan(context.Background(), "handle-request")
	tr.ObserveOperation(observability.OperationContext{
		Context:   ctx,
		Component: "orm",
		Operation: "select",
		Resource:  "accounts",
	})
	request.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "orm.select accounts", spans[0].Name())
	assert.Equal(t, request.SpanContext().TraceID(), spans[0].SpanContext().TraceID())
	assert.Equal(t, request.SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestTracer_WithDatabase(t *testing.T) {
	ctx := context.Background()
	tr, sr := newRecordingTracer(t)

	notes := schema.MustModel("notes", schema.Int("id").PrimaryKey().AutoGenerated(), schema.Text("body"))
	draft := notes.MustPatch("draft", "body")

	db, err := sqlite.NewSQLite(sqlite.Config{Path: filepath.Join(t.TempDir(), "orm.db")}, ObserverOption(tr))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.CreateTables(ctx, notes))

	reqCtx, request := tr.StartSpan(ctx, "handle-request")
	err = db.ORM().Transaction(reqCtx, func(tx *orm.Transaction) error {
		_, err := orm.Insert(tx, draft).Single("hello").ReturnNothing().Exec(reqCtx)
		return err
	})
	require.NoError(t, err)
	request.End()

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
		if s.Name() != "handle-request" {
			assert.Equal(t, request.SpanContext().SpanID(), s.Parent().SpanID(), s.Name())
		}
	}
	assert.Equal(t, []string{"orm.begin", "orm.insert notes", "orm.commit", "handle-request"}, names)
}

func TestStartSpan(t *testing.T) {
	tr, sr := newRecordingTracer(t)

	ctx, parent := tr.StartSpan(context.Background(), "parent")
	_, child := tr.StartSpan(ctx, "child")
	tr.SetAttributes(child, map[string]interface{}{
		"s": "x",
		"i": 3,
		"f": 1.5,
		"b": true,
		"d": time.Second,
	})
	tr.RecordErrorOnSpan(child, assert.AnError)
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "child", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	a := attrs(spans[0])
	assert.Equal(t, "x", a["s"].AsString())
	assert.Equal(t, int64(3), a["i"].AsInt64())
	assert.Equal(t, 1.5, a["f"].AsFloat64())
	assert.True(t, a["b"].AsBool())
	assert.Equal(t, "1s", a["d"].AsString())
}

func TestCarrier(t *testing.T) {
	tr, _ := newRecordingTracer(t)

	ctx, span := tr.StartSpan(context.Background(), "send")
	defer span.End()

	carrier := tr.GetCarrier(ctx)
	require.Contains(t, carrier, "traceparent")

	remote := trace.SpanContextFromContext(tr.SetCarrierOnContext(context.Background(), carrier))
	assert.True(t, remote.IsRemote())
	assert.Equal(t, span.SpanContext().TraceID(), remote.TraceID())
	assert.Equal(t, span.SpanContext().SpanID(), remote.SpanID())
}

func TestFXModule(t *testing.T) {
	var (
		tr   *Tracer
		opts []orm.Option
	)
	app := fxtest.New(t,
		fx.Supply(Config{ServiceName: "orm-test", AppEnv: "test"}),
		FXModule,
		fx.Populate(&tr),
		fx.Invoke(fx.Annotate(func(o []orm.Option) { opts = o }, fx.ParamTags(`group:"orm_options"`))),
	)
	app.RequireStart()
	require.NotNil(t, tr)
	assert.Len(t, opts, 1)
	app.RequireStop()
}
