package stream

// Stream outcome labels passed to Metrics.StreamFinished.
const (
	StatusOK            = "ok"
	StatusCancelled     = "cancelled"
	StatusReasonerError = "reasoner_error"
)

// Metrics exposes producer-level observability hooks.
type Metrics interface {
	StreamStarted()
	ChunkSent(probeHits int)
	StreamFinished(status string)
}

// NoopMetrics is a Metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) StreamStarted()        {}
func (NoopMetrics) ChunkSent(int)         {}
func (NoopMetrics) StreamFinished(string) {}
