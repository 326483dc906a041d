package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

// FXModule provides *Tracer, reports orm operations to it through the
// orm_options group, and shuts the provider down on stop so pending spans
// are flushed.
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClientWithDI,
		fx.Annotate(
			ObserverOption,
			fx.ResultTags(`group:"orm_options"`),
		),
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies of NewClientWithDI.
type TracerParams struct {
	fx.In

	Config Config
	Logger orm.Logger `optional:"true"`
}

func NewClientWithDI(params TracerParams) (*Tracer, error) {
	return NewClient(params.Config, WithLogger(params.Logger))
}

// ObserverOption attaches t to an orm executor.
func ObserverOption(t *Tracer) orm.Option {
	return orm.WithObserver(t)
}

func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tracer.logger.Info("shutting down tracer", nil)
			return tracer.Shutdown(ctx)
		},
	})
}
