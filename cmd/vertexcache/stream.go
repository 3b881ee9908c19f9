package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/IvanBrykalov/vertexcache/cache"
	"github.com/IvanBrykalov/vertexcache/reasoning"
	"github.com/IvanBrykalov/vertexcache/stream"
)

type streamFlags struct {
	queries   []string
	queryType string
	chunkSize int
	delay     time.Duration
	warm      int
	stats     bool
}

func newStreamCmd(a *app) *cobra.Command {
	var f streamFlags

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream template-reasoner answers as JSON chunks",
		Example: `  vertexcache stream -q "Why is the sky blue?"
  vertexcache stream -q first -q second --type factual --stats`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStream(cmd, a, f)
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVarP(&f.queries, "query", "q", nil, "query to answer (repeat for a batch)")
	fl.StringVarP(&f.queryType, "type", "t", string(reasoning.Reasoning), "query type: factual | reasoning | deterministic | non_deterministic")
	fl.IntVar(&f.chunkSize, "chunk-size", 0, "chunk size in runes (0 = config)")
	fl.DurationVar(&f.delay, "delay", -1, "delay between chunks (negative = config)")
	fl.IntVar(&f.warm, "warm", 0, "pre-populate probe entries for the first N chunks")
	fl.BoolVar(&f.stats, "stats", false, "print stream statistics instead of chunks")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func runStream(cmd *cobra.Command, a *app, f streamFlags) error {
	qt := reasoning.QueryType(f.queryType)
	if !qt.Valid() {
		return fmt.Errorf("stream: unknown query type %q", f.queryType)
	}

	metrics, err := newMetricsBackend(a.cfg.Metrics, a.log)
	if err != nil {
		return err
	}

	opt, err := a.cfg.Cache.CacheOptions()
	if err != nil {
		return err
	}
	opt.Logger = a.log
	opt.Metrics = metrics.adapter()
	c := cache.New(opt)

	cfg := a.cfg.Stream.ProducerConfig()
	if f.chunkSize > 0 {
		cfg.ChunkSize = f.chunkSize
	}
	if f.delay >= 0 {
		cfg.ChunkDelay = f.delay
	}
	if err := warmProbes(c, f.warm, cfg); err != nil {
		return err
	}

	p := stream.NewProducer(cfg, reasoning.NewStepReasoner(a.log), c,
		stream.WithLogger(a.log),
		stream.WithMetrics(metrics.adapter()),
	)

	batch := make([]stream.Query, len(f.queries))
	for i, q := range f.queries {
		batch[i] = stream.Query{Text: q, Type: qt}
	}

	if err := printBatch(cmd.OutOrStdout(), p.StreamBatch(cmd.Context(), batch), f.stats); err != nil {
		return err
	}

	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
	defer cancel()
	return metrics.report(reportCtx, cmd.OutOrStdout())
}

// printBatch prints the streams in order. Every stream is closed on return,
// so an early write error does not leave producers blocked on a full queue.
func printBatch(w io.Writer, streams []*stream.Stream, statsOnly bool) error {
	defer func() {
		for _, s := range streams {
			s.Close()
		}
	}()

	out := json.NewEncoder(w)
	for _, s := range streams {
		if err := printStream(out, s, statsOnly); err != nil {
			return err
		}
	}
	return nil
}

// streamLine is one JSON line of output.
type streamLine struct {
	StreamID string              `json:"stream_id"`
	Chunk    *stream.StreamChunk `json:"chunk,omitempty"`
	Stats    *stream.Stats       `json:"stats,omitempty"`
}

func printStream(out *json.Encoder, s *stream.Stream, statsOnly bool) error {
	defer s.Close()

	if statsOnly {
		st, err := stream.GetStreamStats(s)
		if err != nil {
			return err
		}
		return out.Encode(streamLine{StreamID: s.ID(), Stats: &st})
	}

	for c := range s.Chunks() {
		if err := out.Encode(streamLine{StreamID: s.ID(), Chunk: &c}); err != nil {
			return err
		}
		if c.IsFinal {
			break
		}
	}
	s.Close()
	return s.Err()
}

// warmProbes stores entries for the synthetic vertices the producer probes,
// so the first n chunks report cache hits.
func warmProbes(c *cache.VertexCache, n int, cfg stream.Config) error {
	for i := 0; i < n; i++ {
		for j := 0; j < max(cfg.ProbeFanOut, 1); j++ {
			v := fmt.Sprintf("vertex_%d_%d", i, j)
			if err := c.Put(v, cfg.ProbeKey, syntheticVector(v, cfg.ProbeKey), 1); err != nil {
				return err
			}
		}
	}
	return nil
}
