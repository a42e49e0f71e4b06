package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/artisan-upload/artisan/internal/config"
)

func TestNewDisabledReturnsNoOp(t *testing.T) {
	r, err := New(context.Background(), config.Telemetry{Enabled: true}, "test")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := r.(NoOp); !ok {
		t.Errorf("Expected NoOp without endpoint, got %T", r)
	}
	if err := r.Close(context.Background()); err != nil {
		t.Errorf("NoOp close failed: %v", err)
	}
}

func TestExporterRecordsCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	exp, err := newExporter(provider)
	if err != nil {
		t.Fatalf("newExporter failed: %v", err)
	}

	ctx := context.Background()
	exp.SubmissionSaved(ctx, 3, true)
	exp.SubmissionSaved(ctx, 2, true)
	exp.SubmissionFailed(ctx, "invalid_request")
	exp.StoryProcessed(ctx, "gemini", 2*time.Second, errors.New("boom"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if s, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok {
				dp := h.DataPoints[0]
				if v, _ := dp.Attributes.Value(attribute.Key("success")); v.AsBool() {
					t.Error("Expected failed story to be recorded with success=false")
				}
			}
		}
	}

	if sums["artisan_submissions_total"] != 2 {
		t.Errorf("Expected 2 submissions, got %d", sums["artisan_submissions_total"])
	}
	if sums["artisan_images_total"] != 5 {
		t.Errorf("Expected 5 images, got %d", sums["artisan_images_total"])
	}
	if sums["artisan_submission_failures_total"] != 1 {
		t.Errorf("Expected 1 failure, got %d", sums["artisan_submission_failures_total"])
	}

	if err := exp.Close(ctx); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
