// Package prom exports cache and stream metrics to Prometheus.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/vertexcache/cache"
	"github.com/IvanBrykalov/vertexcache/stream"
)

// Adapter implements cache.Metrics and stream.Metrics and exports Prometheus
// counters/gauges. Safe for concurrent use; all Prometheus metric types are
// goroutine-safe.
type Adapter struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	evicts  *prometheus.CounterVec
	sizeEnt prometheus.Gauge

	streamsStarted  prometheus.Counter
	streamsFinished *prometheus.CounterVec
	streamsActive   prometheus.Gauge
	chunks          prometheus.Counter
	probeHits       prometheus.Counter
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns:           Prometheus namespace; cache metrics use subsystem "cache",
//     stream metrics use "stream"
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(sub, name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: name, Help: help, ConstLabels: constLabels,
		})
	}
	gauge := func(sub, name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: name, Help: help, ConstLabels: constLabels,
		})
	}

	a := &Adapter{
		hits:    counter("cache", "hits_total", "Cache hits"),
		misses:  counter("cache", "misses_total", "Cache misses"),
		sizeEnt: gauge("cache", "size_entries", "Number of resident entries"),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "cache",
				Name:        "evictions_total",
				Help:        "Cache removals by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),

		streamsStarted: counter("stream", "started_total", "Streams started"),
		streamsActive:  gauge("stream", "active", "Streams whose producer is running"),
		chunks:         counter("stream", "chunks_total", "Chunks delivered to the queue"),
		probeHits:      counter("stream", "probe_hits_total", "Cache probes that found an entry"),
		streamsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stream",
				Name:        "finished_total",
				Help:        "Streams finished by status",
				ConstLabels: constLabels,
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(
		a.hits, a.misses, a.evicts, a.sizeEnt,
		a.streamsStarted, a.streamsFinished, a.streamsActive, a.chunks, a.probeHits,
	)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Size updates the resident entries gauge.
func (a *Adapter) Size(entries int) { a.sizeEnt.Set(float64(entries)) }

// StreamStarted counts a new stream.
func (a *Adapter) StreamStarted() {
	a.streamsStarted.Inc()
	a.streamsActive.Inc()
}

// ChunkSent counts a delivered chunk and its probe hits.
func (a *Adapter) ChunkSent(probeHits int) {
	a.chunks.Inc()
	a.probeHits.Add(float64(probeHits))
}

// StreamFinished counts a finished stream by status.
func (a *Adapter) StreamFinished(status string) {
	a.streamsActive.Dec()
	a.streamsFinished.WithLabelValues(status).Inc()
}

// Compile-time checks.
var (
	_ cache.Metrics  = (*Adapter)(nil)
	_ stream.Metrics = (*Adapter)(nil)
)
