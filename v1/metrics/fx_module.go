package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

// FXModule provides *Metrics, feeds it to every orm executor built by the
// database modules, and runs the /metrics server for the lifetime of the
// application.
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		fx.Annotate(
			ObserverOption,
			fx.ResultTags(`group:"orm_options"`),
		),
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// ObserverOption attaches m to an orm executor.
func ObserverOption(m *Metrics) orm.Option {
	return orm.WithObserver(m)
}

// MetricsLifecycleParams groups the dependencies of RegisterMetricsLifecycle.
type MetricsLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Metrics   *Metrics
	Logger    orm.Logger `optional:"true"`
}

func RegisterMetricsLifecycle(params MetricsLifecycleParams) {
	log := params.Logger
	if log == nil {
		log = orm.NopLogger()
	}
	m := params.Metrics

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Bind synchronously so a taken port fails the start.
			ln, err := net.Listen("tcp", m.Server.Addr)
			if err != nil {
				return err
			}
			log.Info("starting Prometheus metrics server", nil, map[string]interface{}{
				"address": ln.Addr().String(),
			})
			go func() {
				if err := m.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("error serving Prometheus metrics", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down Prometheus metrics server", nil)
			return m.Server.Shutdown(ctx)
		},
	})
}
