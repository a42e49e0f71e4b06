package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/artisan-upload/artisan/internal/config"
)

const serviceName = "artisan"

// Recorder receives server-side events worth counting.
type Recorder interface {
	SubmissionSaved(ctx context.Context, images int, withAudio bool)
	SubmissionFailed(ctx context.Context, reason string)
	StoryProcessed(ctx context.Context, provider string, took time.Duration, err error)
	Close(ctx context.Context) error
}

// New returns an OTLP exporter when telemetry is enabled and a NoOp otherwise.
func New(ctx context.Context, cfg config.Telemetry, version string) (Recorder, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return NoOp{}, nil
	}
	return NewExporter(ctx, cfg, version)
}

// Exporter exports upload metrics to an OTEL Collector.
type Exporter struct {
	provider         *sdkmetric.MeterProvider
	submissionsTotal metric.Int64Counter
	imagesTotal      metric.Int64Counter
	failuresTotal    metric.Int64Counter
	storyDuration    metric.Float64Histogram
}

func NewExporter(ctx context.Context, cfg config.Telemetry, version string) (*Exporter, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts,
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlpmetricgrpc.WithInsecure(),
		)
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newExporter(provider)
}

func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	submissionsTotal, err := meter.Int64Counter(
		"artisan_submissions_total",
		metric.WithDescription("Submissions persisted by the save endpoint"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating submissions counter: %w", err)
	}

	imagesTotal, err := meter.Int64Counter(
		"artisan_images_total",
		metric.WithDescription("Images stored across all submissions"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating images counter: %w", err)
	}

	failuresTotal, err := meter.Int64Counter(
		"artisan_submission_failures_total",
		metric.WithDescription("Submissions rejected or failed"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	storyDuration, err := meter.Float64Histogram(
		"artisan_story_duration_seconds",
		metric.WithDescription("Time spent turning a recording into landing page text"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating story histogram: %w", err)
	}

	return &Exporter{
		provider:         provider,
		submissionsTotal: submissionsTotal,
		imagesTotal:      imagesTotal,
		failuresTotal:    failuresTotal,
		storyDuration:    storyDuration,
	}, nil
}

func (e *Exporter) SubmissionSaved(ctx context.Context, images int, withAudio bool) {
	opt := metric.WithAttributes(attribute.Bool("with_audio", withAudio))
	e.submissionsTotal.Add(ctx, 1, opt)
	e.imagesTotal.Add(ctx, int64(images), opt)
}

func (e *Exporter) SubmissionFailed(ctx context.Context, reason string) {
	e.failuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (e *Exporter) StoryProcessed(ctx context.Context, provider string, took time.Duration, err error) {
	e.storyDuration.Record(ctx, took.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("success", err == nil),
	))
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}

// NoOp discards every event.
type NoOp struct{}

func (NoOp) SubmissionSaved(context.Context, int, bool)                   {}
func (NoOp) SubmissionFailed(context.Context, string)                     {}
func (NoOp) StoryProcessed(context.Context, string, time.Duration, error) {}
func (NoOp) Close(context.Context) error                                  { return nil }
