package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/pipeline"
)

// Metric names.
const (
	MetricBatches       = "varconv.batches"
	MetricRecords       = "varconv.records"
	MetricBytes         = "varconv.bytes"
	MetricErrors        = "varconv.errors"
	MetricBatchDuration = "varconv.batch.duration"
	MetricInFlight      = "varconv.in_flight"
)

// InitMeter creates an OTLP HTTP metric exporter with a periodic reader and
// installs the provider globally. The provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the varconv meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// PipelineMetrics records conversion metrics. It implements pipeline.Observer.
type PipelineMetrics struct {
	ctx   context.Context
	attrs metric.MeasurementOption

	batches  metric.Int64Counter
	records  metric.Int64Counter
	bytes    metric.Int64Counter
	errs     metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64Gauge
}

var _ pipeline.Observer = (*PipelineMetrics)(nil)

// NewPipelineMetrics creates the instruments on meter. command tags every
// measurement ("convert" or "index").
func NewPipelineMetrics(ctx context.Context, meter metric.Meter, command string) (*PipelineMetrics, error) {
	m := &PipelineMetrics{
		ctx:   context.WithoutCancel(ctx),
		attrs: metric.WithAttributes(attribute.String("command", command)),
	}

	var err error
	if m.batches, err = meter.Int64Counter(MetricBatches,
		metric.WithDescription("Batches by pipeline stage"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricBatches, err)
	}
	if m.records, err = meter.Int64Counter(MetricRecords,
		metric.WithDescription("Records written"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRecords, err)
	}
	if m.bytes, err = meter.Int64Counter(MetricBytes,
		metric.WithDescription("Input bytes consumed"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricBytes, err)
	}
	if m.errs, err = meter.Int64Counter(MetricErrors,
		metric.WithDescription("Failures by error code"),
	); err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrors, err)
	}
	if m.duration, err = meter.Float64Histogram(MetricBatchDuration,
		metric.WithDescription("Batch transform latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricBatchDuration, err)
	}
	if m.inFlight, err = meter.Int64Gauge(MetricInFlight,
		metric.WithDescription("Batches held between reader and sink"),
	); err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricInFlight, err)
	}
	return m, nil
}

func (m *PipelineMetrics) stage(name string) metric.AddOption {
	return metric.WithAttributes(attribute.String("stage", name))
}

// BatchRead counts a batch pulled from the stream.
func (m *PipelineMetrics) BatchRead(int64) {
	m.batches.Add(m.ctx, 1, m.attrs, m.stage(errors.StageRead))
}

// BatchTransformed records transform latency and counts failures.
func (m *PipelineMetrics) BatchTransformed(_ int64, took time.Duration, err error) {
	m.duration.Record(m.ctx, took.Seconds(), m.attrs)
	if err != nil {
		m.RecordError(err)
		return
	}
	m.batches.Add(m.ctx, 1, m.attrs, m.stage(errors.StageTransform))
}

// BatchWritten counts a batch delivered to the sink.
func (m *PipelineMetrics) BatchWritten(int64) {
	m.batches.Add(m.ctx, 1, m.attrs, m.stage(errors.StageWrite))
}

// InFlight records the current number of held batches.
func (m *PipelineMetrics) InFlight(n int) {
	m.inFlight.Record(m.ctx, int64(n), m.attrs)
}

// RecordTotals adds the record and byte totals of a finished run.
func (m *PipelineMetrics) RecordTotals(records, bytes int64) {
	m.records.Add(m.ctx, records, m.attrs)
	m.bytes.Add(m.ctx, bytes, m.attrs)
}

// RecordError counts err by its error code.
func (m *PipelineMetrics) RecordError(err error) {
	m.errs.Add(m.ctx, 1, m.attrs, metric.WithAttributes(attribute.String("code", string(errors.CodeOf(err)))))
}
