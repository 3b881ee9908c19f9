package stream

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/IvanBrykalov/vertexcache/cache"
	"github.com/IvanBrykalov/vertexcache/reasoning"
)

const tracerName = "github.com/IvanBrykalov/vertexcache/stream"

// errCancelled marks a run stopped by Stream.Close. It never leaves the package.
var errCancelled = errors.New("stream: cancelled")

// Cache is the part of the cache the producer probes.
type Cache interface {
	Get(vertexID, key string) ([]float64, error)
}

// Query is one input of StreamBatch.
type Query = reasoning.Query

// Option customizes a Producer.
type Option func(*Producer)

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Producer) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics sets the metrics sink; nil keeps NoopMetrics.
func WithMetrics(m Metrics) Option {
	return func(p *Producer) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithTracerProvider sets the tracer provider; the global one is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Producer) {
		if tp != nil {
			p.tracer = tp.Tracer(tracerName)
		}
	}
}

// Producer turns Reasoner answers into chunk streams. It is safe for
// concurrent use; every Stream call runs independently.
type Producer struct {
	cfg      Config
	reasoner reasoning.Reasoner
	cache    Cache

	log     *zap.Logger
	metrics Metrics
	tracer  trace.Tracer
}

// NewProducer builds a Producer. Invalid Config fields are replaced with
// defaults. c may be nil, in which case no probes are issued.
func NewProducer(cfg Config, r reasoning.Reasoner, c Cache, opts ...Option) *Producer {
	if r == nil {
		panic("stream: nil Reasoner")
	}
	p := &Producer{
		cfg:      cfg.withDefaults(),
		reasoner: r,
		cache:    c,
		log:      zap.NewNop(),
		metrics:  NoopMetrics{},
		tracer:   otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, o := range opts {
		o(p)
	}
	p.log = p.log.With(zap.String("component", "stream_producer"))
	return p
}

// Stream starts producing the answer to query in the background and returns
// at once. Only Stream.Close cancels the work; ctx cancellation is ignored.
func (p *Producer) Stream(ctx context.Context, query string, qt reasoning.QueryType) *Stream {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Stream{
		id:     uuid.NewString(),
		ch:     make(chan StreamChunk, p.cfg.QueueCapacity),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	p.metrics.StreamStarted()
	go p.run(ctx, s, query, qt)
	return s
}

// StreamBatch starts one independent stream per query.
func (p *Producer) StreamBatch(ctx context.Context, queries []Query) []*Stream {
	out := make([]*Stream, len(queries))
	for i, q := range queries {
		out[i] = p.Stream(ctx, q.Text, q.Type)
	}
	return out
}

func (p *Producer) run(ctx context.Context, s *Stream, query string, qt reasoning.QueryType) {
	defer close(s.done)
	defer close(s.ch)
	defer s.Close()

	ctx, span := p.tracer.Start(ctx, "stream.produce", trace.WithAttributes(
		attribute.String("stream.id", s.id),
		attribute.String("query.type", string(qt)),
	))
	defer span.End()

	log := p.log.With(zap.String("stream_id", s.id))
	start := time.Now()

	sent, err := p.produce(ctx, s, query, qt, span)
	span.SetAttributes(attribute.Int("stream.chunks", sent))

	switch {
	case err == nil:
		p.metrics.StreamFinished(StatusOK)
		log.Debug("stream finished", zap.Int("chunks", sent), zap.Duration("elapsed", time.Since(start)))
	case errors.Is(err, errCancelled):
		p.metrics.StreamFinished(StatusCancelled)
		log.Debug("stream cancelled", zap.Int("chunks", sent))
	default:
		s.err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "reasoner failed")
		p.metrics.StreamFinished(StatusReasonerError)
		log.Error("stream failed", zap.Error(err))
	}
}

// produce runs the Reasoner, then paces, probes and sends every chunk.
// It returns the number of chunks sent.
func (p *Producer) produce(ctx context.Context, s *Stream, query string, qt reasoning.QueryType, span trace.Span) (int, error) {
	res, err := p.reason(ctx, query, qt)
	if err != nil {
		if ctx.Err() != nil {
			return 0, errCancelled
		}
		return 0, fmt.Errorf("%w: %w", ErrReasoner, err)
	}

	parts := split(res.FinalAnswer, p.cfg.ChunkSize)
	base := p.cfg.BaseConfidence
	if len(res.StepConfidences) > 0 {
		base = res.TotalConfidence()
	}

	limit := rate.Inf
	if p.cfg.ChunkDelay > 0 {
		limit = rate.Every(p.cfg.ChunkDelay)
	}
	pacer := rate.NewLimiter(limit, 1)

	for i, part := range parts {
		if err := pacer.Wait(ctx); err != nil {
			return i, errCancelled
		}

		ids, hits := p.probe(i)
		if ctx.Err() != nil {
			return i, errCancelled
		}

		chunk := StreamChunk{
			ChunkID: i,
			Content: part,
			IsFinal: i == len(parts)-1,
			Metadata: ChunkMetadata{
				Timestamp:          time.Now(),
				GraphNodesAccessed: ids,
				CacheHits:          hits,
				Confidence:         math.Min(1, base+float64(i)*p.cfg.ConfidenceStep),
			},
		}

		if !send(ctx, s.ch, chunk) {
			return i, errCancelled
		}

		p.metrics.ChunkSent(hits)
		span.AddEvent("chunk", trace.WithAttributes(
			attribute.Int("chunk.id", i),
			attribute.Int("chunk.cache_hits", hits),
		))
	}
	return len(parts), nil
}

// send delivers c, blocking while the queue is full. It reports false
// without sending once ctx is done, even when the queue has room.
func send(ctx context.Context, ch chan<- StreamChunk, c StreamChunk) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case ch <- c:
		return true
	}
}

func (p *Producer) reason(ctx context.Context, query string, qt reasoning.QueryType) (*reasoning.Result, error) {
	ctx, span := p.tracer.Start(ctx, "stream.reason")
	defer span.End()

	res, err := p.reasoner.Reason(ctx, query, qt)
	if err == nil && res == nil {
		err = errors.New("reasoner returned no result")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("chain.id", res.ChainID))
	return res, nil
}

// probe issues ProbeFanOut concurrent Gets for chunk chunkID and waits for
// all of them. Misses and errors do not fail the chunk.
func (p *Producer) probe(chunkID int) ([]string, int) {
	if !p.cfg.EnableParallelProbe || p.cache == nil {
		return nil, 0
	}

	ids := make([]string, p.cfg.ProbeFanOut)
	var hits atomic.Int64
	var g errgroup.Group
	for j := range ids {
		id := fmt.Sprintf("vertex_%d_%d", chunkID, j)
		ids[j] = id
		g.Go(func() error {
			_, err := p.cache.Get(id, p.cfg.ProbeKey)
			switch {
			case err == nil:
				hits.Add(1)
			case !cache.IsCacheMiss(err):
				p.log.Debug("cache probe failed", zap.String("vertex_id", id), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return ids, int(hits.Load())
}
