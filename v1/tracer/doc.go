// Package tracer provides distributed tracing with OpenTelemetry.
//
// A *Tracer is an observability.Observer: attached to an orm executor it
// reports every statement, begin, commit and rollback as a client span
// named "<component>.<operation> <table>", with the row count, the
// transaction id and, on failure, the error and its orm category. The span
// is a child of whatever span the statement's context carries, so database
// work shows up inside the request trace that issued it.
//
//	t, err := tracer.NewClient(tracer.Config{
//		ServiceName:  "billing",
//		AppEnv:       "production",
//		EnableExport: true,
//	})
//	if err != nil {
//		return err
//	}
//	defer t.Shutdown(ctx)
//
//	db := orm.New(tr, dialect.Postgres, orm.WithObserver(t))
//
// Application spans:
//
//	ctx, span := t.StartSpan(ctx, "process-request")
//	defer span.End()
//
//	t.SetAttributes(span, map[string]interface{}{"user.id": "123"})
//	if err != nil {
//		t.RecordErrorOnSpan(span, err)
//	}
//
// Trace context crosses process boundaries with GetCarrier on the sending
// side and SetCarrierOnContext on the receiving side.
//
// FX: tracer.FXModule provides *Tracer from a Config, contributes an
// orm.Option to the "orm_options" group consumed by the database modules,
// and shuts the provider down on stop.
package tracer
