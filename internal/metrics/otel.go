package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const defaultServiceName = "fixture-calendar-service"

var (
	promReaderFactory = prometheusComponents
	otlpReaderFactory = buildOTLPReader
	instrumentFactory = newOtelInstruments
)

// TelemetryConfig controls how metrics are exported.
type TelemetryConfig struct {
	Enabled      bool
	Port         string
	ServiceName  string
	OtlpEndpoint string
	OtlpInsecure bool
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter and optional OTLP exporter.
// It returns a Recorder, the Prometheus HTTP handler, and a shutdown function.
func Setup(ctx context.Context, cfg TelemetryConfig) (*Recorder, http.Handler, func(context.Context) error, error) {
	if !cfg.Enabled {
		return NewRecorder(), nil, func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}

	promReader, promHandler, err := promReaderFactory()
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithReader(promReader)}
	if cfg.OtlpEndpoint != "" {
		otlpReader, err := otlpReaderFactory(ctx, cfg.OtlpEndpoint, cfg.OtlpInsecure)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, sdkmetric.WithReader(otlpReader))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, nil, nil, err
	}
	opts = append(opts, sdkmetric.WithResource(res))

	provider := sdkmetric.NewMeterProvider(opts...)
	otelInst, err := instrumentFactory(provider)
	if err != nil {
		return nil, nil, nil, err
	}

	rec := newRecorder(otelInst)
	shutdown := func(c context.Context) error {
		return provider.Shutdown(c)
	}
	return rec, promHandler, shutdown, nil
}

func buildOTLPReader(ctx context.Context, endpoint string, insecure bool) (sdkmetric.Reader, error) {
	otlpOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		otlpOpts = append(otlpOpts, otlpmetrichttp.WithInsecure())
	}
	otlpExp, err := otlpmetrichttp.New(ctx, otlpOpts...)
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewPeriodicReader(otlpExp, sdkmetric.WithInterval(15*time.Second)), nil
}

func prometheusComponents() (sdkmetric.Reader, http.Handler, error) {
	reg := prometheus.NewRegistry()
	promExp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}
	return promExp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

type otelInstruments struct {
	ctx              context.Context
	requests         metric.Int64Counter
	requestLatencyMs metric.Float64Histogram
	gatewayCalls     metric.Int64Counter
	gatewayErrors    metric.Int64Counter
	gatewayLatencyMs metric.Float64Histogram
	syncRuns         metric.Int64Counter
	syncErrors       metric.Int64Counter
	syncLatencyMs    metric.Float64Histogram
	syncOutcomes     metric.Int64Counter
	cycles           metric.Int64Counter
	cycleErrors      metric.Int64Counter
	cycleLatencyMs   metric.Float64Histogram
}

func newOtelInstruments(provider metric.MeterProvider) (*otelInstruments, error) {
	meter := provider.Meter(defaultServiceName)
	inst := &otelInstruments{ctx: context.Background()}

	counters := []struct {
		name string
		dst  *metric.Int64Counter
	}{
		{"http_requests_total", &inst.requests},
		{"calendar_gateway_calls_total", &inst.gatewayCalls},
		{"calendar_gateway_errors_total", &inst.gatewayErrors},
		{"calendar_sync_runs_total", &inst.syncRuns},
		{"calendar_sync_errors_total", &inst.syncErrors},
		{"calendar_sync_events_total", &inst.syncOutcomes},
		{"scheduler_cycles_total", &inst.cycles},
		{"scheduler_cycle_errors_total", &inst.cycleErrors},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	histograms := []struct {
		name string
		dst  *metric.Float64Histogram
	}{
		{"http_request_duration_ms", &inst.requestLatencyMs},
		{"calendar_gateway_duration_ms", &inst.gatewayLatencyMs},
		{"calendar_sync_duration_ms", &inst.syncLatencyMs},
		{"scheduler_cycle_duration_ms", &inst.cycleLatencyMs},
	}
	for _, h := range histograms {
		hist, err := meter.Float64Histogram(h.name)
		if err != nil {
			return nil, err
		}
		*h.dst = hist
	}
	return inst, nil
}

func (o *otelInstruments) recordHTTPRequest(method, path string, status int, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(AttrMethod, method),
		attribute.String(AttrPath, path),
		attribute.Int(AttrStatus, status),
	}
	o.recordCounter(o.requests, 1, attrs...)
	o.recordHistogram(o.requestLatencyMs, float64(duration.Milliseconds()), attrs...)
}

func (o *otelInstruments) recordGatewayCall(op string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(AttrOperation, op)}
	o.recordCounter(o.gatewayCalls, 1, attrs...)
	o.recordHistogram(o.gatewayLatencyMs, float64(duration.Milliseconds()), attrs...)
	if err != nil {
		o.recordCounter(o.gatewayErrors, 1, attrs...)
	}
}

func (o *otelInstruments) recordSyncRun(calendarType string, duration time.Duration, counts SyncCounts, err error) {
	if o == nil {
		return
	}
	typeAttr := attribute.String(AttrCalendarType, calendarType)
	o.recordCounter(o.syncRuns, 1, typeAttr)
	o.recordHistogram(o.syncLatencyMs, float64(duration.Milliseconds()), typeAttr)
	if err != nil {
		o.recordCounter(o.syncErrors, 1, typeAttr)
	}
	outcomes := []struct {
		name  string
		value int
	}{
		{"created", counts.Created},
		{"updated", counts.Updated},
		{"deleted", counts.Deleted},
		{"duplicate_removed", counts.Duplicates},
		{"unchanged", counts.Unchanged},
		{"failed", counts.Failures},
	}
	for _, outcome := range outcomes {
		if outcome.value == 0 {
			continue
		}
		o.recordCounter(o.syncOutcomes, int64(outcome.value), typeAttr, attribute.String(AttrOutcome, outcome.name))
	}
}

func (o *otelInstruments) recordSchedulerCycle(duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.recordCounter(o.cycles, 1)
	o.recordHistogram(o.cycleLatencyMs, float64(duration.Milliseconds()))
	if err != nil {
		o.recordCounter(o.cycleErrors, 1)
	}
}

func (o *otelInstruments) recordCounter(counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if o == nil || counter == nil {
		return
	}
	counter.Add(o.ctx, value, metric.WithAttributes(attrs...))
}

func (o *otelInstruments) recordHistogram(hist metric.Float64Histogram, value float64, attrs ...attribute.KeyValue) {
	if o == nil || hist == nil {
		return
	}
	hist.Record(o.ctx, value, metric.WithAttributes(attrs...))
}
