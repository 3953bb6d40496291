package observability

import (
	"context"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"

	"github.com/kbukum/readflow/component"
)

// TelemetryConfig configures OTLP export of traces and metrics.
type TelemetryConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	SampleRate     float64
	Interval       time.Duration
}

// Telemetry is a component that installs the global tracer and meter
// providers on Start and flushes them on Stop.
type Telemetry struct {
	*component.BaseLazyComponent
	cfg TelemetryConfig
	tp  *sdktrace.TracerProvider
	mp  *sdkmetric.MeterProvider
}

var (
	_ component.Component   = (*Telemetry)(nil)
	_ component.Describable = (*Telemetry)(nil)
)

// NewTelemetry creates the telemetry component. Nothing is dialed until Start.
func NewTelemetry(cfg TelemetryConfig) *Telemetry {
	t := &Telemetry{cfg: cfg}
	t.BaseLazyComponent = component.NewBaseLazyComponent("telemetry", t.init).WithCloser(t.shutdown)
	return t
}

func (t *Telemetry) init(ctx context.Context) error {
	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName:    t.cfg.ServiceName,
		ServiceVersion: t.cfg.ServiceVersion,
		Environment:    t.cfg.Environment,
		Endpoint:       t.cfg.Endpoint,
		Insecure:       t.cfg.Insecure,
		SampleRate:     t.cfg.SampleRate,
	})
	if err != nil {
		return err
	}

	mp, err := InitMeter(ctx, &MeterConfig{
		ServiceName:    t.cfg.ServiceName,
		ServiceVersion: t.cfg.ServiceVersion,
		Environment:    t.cfg.Environment,
		Endpoint:       t.cfg.Endpoint,
		Insecure:       t.cfg.Insecure,
		Interval:       t.cfg.Interval,
	})
	if err != nil {
		return multierr.Append(err, tp.Shutdown(ctx))
	}

	t.tp, t.mp = tp, mp
	return nil
}

func (t *Telemetry) shutdown(ctx context.Context) error {
	return multierr.Combine(t.mp.Shutdown(ctx), t.tp.Shutdown(ctx))
}

// Describe implements component.Describable.
func (t *Telemetry) Describe() component.Description {
	return component.Description{
		Name:    "Telemetry",
		Type:    "telemetry",
		Details: fmt.Sprintf("otlp=%s sample=%.2f", t.cfg.Endpoint, t.cfg.SampleRate),
	}
}
