// Package otel records cache and stream metrics through OpenTelemetry.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/IvanBrykalov/vertexcache/cache"
	"github.com/IvanBrykalov/vertexcache/stream"
)

// Adapter implements cache.Metrics and stream.Metrics on top of a
// metric.Meter. The hooks carry no context, so measurements are recorded
// with context.Background().
type Adapter struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	evictions metric.Int64Counter
	entries   metric.Int64Gauge

	streams   metric.Int64Counter
	finished  metric.Int64Counter
	chunks    metric.Int64Counter
	probeHits metric.Int64Counter
}

// New creates the instruments on meter.
func New(meter metric.Meter) (*Adapter, error) {
	var (
		a   Adapter
		err error
	)
	counter := func(dst *metric.Int64Counter, name, desc, unit string) {
		if err != nil {
			return
		}
		*dst, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	}

	counter(&a.hits, "vertexcache.cache.hits", "Cache hits", "{hit}")
	counter(&a.misses, "vertexcache.cache.misses", "Cache misses", "{miss}")
	counter(&a.evictions, "vertexcache.cache.evictions", "Cache removals by reason", "{entry}")
	counter(&a.streams, "vertexcache.stream.started", "Streams started", "{stream}")
	counter(&a.finished, "vertexcache.stream.finished", "Streams finished by status", "{stream}")
	counter(&a.chunks, "vertexcache.stream.chunks", "Chunks delivered to the queue", "{chunk}")
	counter(&a.probeHits, "vertexcache.stream.probe_hits", "Cache probes that found an entry", "{hit}")
	if err != nil {
		return nil, err
	}

	a.entries, err = meter.Int64Gauge("vertexcache.cache.entries",
		metric.WithDescription("Number of resident entries"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *Adapter) Hit()  { a.hits.Add(context.Background(), 1) }
func (a *Adapter) Miss() { a.misses.Add(context.Background(), 1) }

func (a *Adapter) Evict(r cache.EvictReason) {
	a.evictions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", r.String())))
}

func (a *Adapter) Size(entries int) { a.entries.Record(context.Background(), int64(entries)) }

func (a *Adapter) StreamStarted() { a.streams.Add(context.Background(), 1) }

func (a *Adapter) ChunkSent(probeHits int) {
	ctx := context.Background()
	a.chunks.Add(ctx, 1)
	if probeHits > 0 {
		a.probeHits.Add(ctx, int64(probeHits))
	}
}

func (a *Adapter) StreamFinished(status string) {
	a.finished.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", status)))
}

var (
	_ cache.Metrics  = (*Adapter)(nil)
	_ stream.Metrics = (*Adapter)(nil)
)
