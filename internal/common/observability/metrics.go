package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the otel meter and tracer used by the planner.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *TracerProvider
	meter          otelmetric.Meter
	planCounter    otelmetric.Int64Counter
	planDuration   otelmetric.Float64Histogram
}

// New registers the otel prometheus exporter and the global meter provider.
// A nil tracer provider leaves tracing on the global (no-op unless set) provider.
func New(serviceName string, tp *TracerProvider) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	o := &Observability{
		meterProvider:  provider,
		tracerProvider: tp,
		meter:          provider.Meter(serviceName),
	}

	o.planCounter, _ = o.meter.Int64Counter(
		"plans.processed",
		otelmetric.WithDescription("Number of activity plans produced"),
	)
	o.planDuration, _ = o.meter.Float64Histogram(
		"plans.duration",
		otelmetric.WithDescription("Activity planning duration"),
		otelmetric.WithUnit("ms"),
	)

	return o, nil
}

// RecordPlan records one planning turn with its source (model, fallback, failed).
func (o *Observability) RecordPlan(ctx context.Context, duration time.Duration, source string) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("source", source))
	if o.planCounter != nil {
		o.planCounter.Add(ctx, 1, attrs)
	}
	if o.planDuration != nil {
		o.planDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

// Tracer returns a named tracer from the configured provider.
func (o *Observability) Tracer(name string) trace.Tracer {
	if o == nil || o.tracerProvider == nil {
		return otel.Tracer(name)
	}
	return o.tracerProvider.Tracer(name)
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
