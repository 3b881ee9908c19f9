package stream

import "time"

// Defaults used by DefaultConfig and to repair invalid fields in NewProducer.
const (
	DefaultChunkSize      = 50
	DefaultChunkDelay     = 100 * time.Millisecond
	DefaultProbeFanOut    = 4
	DefaultProbeKey       = "embedding"
	DefaultQueueCapacity  = 100
	DefaultBaseConfidence = 0.85
	DefaultConfidenceStep = 0.01
)

// Config controls chunking, pacing and probing. Start from DefaultConfig;
// a zero Config disables probing.
type Config struct {
	// ChunkSize is the slice length in runes.
	ChunkSize int
	// ChunkDelay paces delivery: at most one chunk per ChunkDelay.
	// Zero disables pacing.
	ChunkDelay time.Duration

	// EnableParallelProbe turns on the per-chunk cache probes.
	EnableParallelProbe bool
	// ProbeFanOut is the number of concurrent probes per chunk.
	ProbeFanOut int
	// ProbeKey is the entry name probed on every synthetic vertex.
	ProbeKey string

	// QueueCapacity bounds the number of chunks buffered for the consumer.
	QueueCapacity int

	// BaseConfidence is used for chunk 0 when the Reasoner reports no step
	// confidences; otherwise their mean is used.
	BaseConfidence float64
	// ConfidenceStep is added per chunk id. Confidence is capped at 1.
	ConfidenceStep float64
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:           DefaultChunkSize,
		ChunkDelay:          DefaultChunkDelay,
		EnableParallelProbe: true,
		ProbeFanOut:         DefaultProbeFanOut,
		ProbeKey:            DefaultProbeKey,
		QueueCapacity:       DefaultQueueCapacity,
		BaseConfidence:      DefaultBaseConfidence,
		ConfidenceStep:      DefaultConfidenceStep,
	}
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkDelay < 0 {
		c.ChunkDelay = 0
	}
	if c.ProbeFanOut <= 0 {
		c.ProbeFanOut = DefaultProbeFanOut
	}
	if c.ProbeKey == "" {
		c.ProbeKey = DefaultProbeKey
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.BaseConfidence <= 0 {
		c.BaseConfidence = DefaultBaseConfidence
	}
	if c.ConfidenceStep < 0 {
		c.ConfidenceStep = 0
	}
	return c
}
