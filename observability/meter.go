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

	"github.com/skillsenselab/vbdiar/logger"
)

// MeterConfig configures OTLP metric export.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string // OTLP HTTP host:port, e.g. "localhost:4318"
	Insecure       bool
	Interval       time.Duration // export interval
}

// DefaultMeterConfig returns a local-collector development setup.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs a global meter provider exporting over OTLP HTTP.
// The returned provider must be shut down on exit so buffered readings
// flush.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the metric instruments of the resegmentation service:
// HTTP request instruments for the API surface and recording/job
// instruments for the engine.
type Metrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestActive   metric.Int64UpDownCounter

	recordingTotal      metric.Int64Counter
	recordingDuration   metric.Float64Histogram
	recordingIterations metric.Int64Histogram
	degenerateTicks     metric.Int64Counter

	jobTotal  metric.Int64Counter
	jobActive metric.Int64UpDownCounter
}

// instrumentSet creates instruments on a meter, latching the first
// creation error so NewMetrics reads as a flat list.
type instrumentSet struct {
	meter metric.Meter
	err   error
}

func (s *instrumentSet) fail(name string, err error) {
	if s.err == nil && err != nil {
		s.err = fmt.Errorf("creating %s: %w", name, err)
	}
}

func (s *instrumentSet) counter(name, desc string) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, metric.WithDescription(desc))
	s.fail(name, err)
	return c
}

func (s *instrumentSet) upDown(name, desc string) metric.Int64UpDownCounter {
	c, err := s.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	s.fail(name, err)
	return c
}

func (s *instrumentSet) seconds(name, desc string) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name,
		metric.WithDescription(desc), metric.WithUnit("s"))
	s.fail(name, err)
	return h
}

func (s *instrumentSet) histogram(name, desc string) metric.Int64Histogram {
	h, err := s.meter.Int64Histogram(name, metric.WithDescription(desc))
	s.fail(name, err)
	return h
}

// NewMetrics creates the service's instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	set := &instrumentSet{meter: meter}
	m := &Metrics{
		requestTotal:    set.counter("request.total", "Total number of API requests"),
		requestDuration: set.seconds("request.duration", "Duration of API requests in seconds"),
		requestActive:   set.upDown("request.active", "Number of currently active API requests"),

		recordingTotal:      set.counter("recording.total", "Resegmented recordings by status and termination reason"),
		recordingDuration:   set.seconds("recording.duration", "Wall-clock duration of per-recording resegmentation in seconds"),
		recordingIterations: set.histogram("recording.iterations", "VB iterations run per recording before termination"),
		degenerateTicks:     set.counter("recording.degenerate_ticks", "Ticks recovered by the uniform emission fallback"),

		jobTotal:  set.counter("job.total", "Batch jobs by final status"),
		jobActive: set.upDown("job.active", "Batch jobs currently running"),
	}
	if set.err != nil {
		return nil, set.err
	}
	return m, nil
}

// RecordRequestStart increments the active request count.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd decrements active requests and records the
// completed request. operation is the method-and-path pair, e.g.
// "POST /v1/resegment".
func (m *Metrics) RecordRequestEnd(ctx context.Context, operation, status string, duration time.Duration) {
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordRecording records one finished per-recording resegmentation.
// reason is the termination reason for successful runs, empty for
// failed ones.
func (m *Metrics) RecordRecording(ctx context.Context, status, reason string, duration time.Duration, iterations int) {
	m.recordingTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("reason", reason),
	))
	m.recordingDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("status", status),
	))
	if iterations > 0 {
		m.recordingIterations.Record(ctx, int64(iterations))
	}
}

// RecordDegenerateTicks counts ticks recovered by the uniform fallback.
func (m *Metrics) RecordDegenerateTicks(ctx context.Context, n int) {
	if n > 0 {
		m.degenerateTicks.Add(ctx, int64(n))
	}
}

// RecordJobStart increments the running job count.
func (m *Metrics) RecordJobStart(ctx context.Context) {
	m.jobActive.Add(ctx, 1)
}

// RecordJobEnd decrements running jobs and counts the finished one.
func (m *Metrics) RecordJobEnd(ctx context.Context, status string) {
	m.jobActive.Add(ctx, -1)
	m.jobTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}
