package embeddings

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/fyrsmithlabs/coachd/internal/embeddings"

// instrumented decorates a Provider with call latency, batch size and error
// instruments labeled by model and operation.
type instrumented struct {
	Provider
	model string

	duration  metric.Float64Histogram
	batchSize metric.Int64Histogram
	failures  metric.Int64Counter
}

// instrument wraps p. If an instrument cannot be created p is wrapped with
// no-op instruments and the error is returned alongside.
func instrument(p Provider, model string, meter metric.Meter) (Provider, error) {
	w := &instrumented{Provider: p, model: model}
	var errs [3]error
	w.duration, errs[0] = meter.Float64Histogram("coachd.embedding.generation_duration_seconds",
		metric.WithDescription("Embedding call latency by model and operation"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5))
	w.batchSize, errs[1] = meter.Int64Histogram("coachd.embedding.batch_size",
		metric.WithDescription("Texts per embedding call"),
		metric.WithUnit("{text}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 25, 50, 100))
	w.failures, errs[2] = meter.Int64Counter("coachd.embedding.errors_total",
		metric.WithDescription("Failed embedding calls by model and operation"),
		metric.WithUnit("{error}"))

	if err := errors.Join(errs[:]...); err != nil {
		nw, _ := instrument(p, model, noop.NewMeterProvider().Meter(instrumentationName))
		return nw, err
	}
	return w, nil
}

func (w *instrumented) record(ctx context.Context, op string, start time.Time, n int, err error) {
	attrs := metric.WithAttributes(
		attribute.String("model", w.model),
		attribute.String("operation", op),
	)
	w.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	w.batchSize.Record(ctx, int64(n), attrs)
	if err != nil {
		w.failures.Add(ctx, 1, attrs)
	}
}

func (w *instrumented) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := w.Provider.EmbedDocuments(ctx, texts)
	w.record(ctx, "embed_documents", start, len(texts), err)
	return vectors, err
}

func (w *instrumented) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vector, err := w.Provider.EmbedQuery(ctx, text)
	w.record(ctx, "embed_query", start, 1, err)
	return vector, err
}
