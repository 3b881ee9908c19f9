package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrReasoner wraps the Reasoner's error when a stream fails before its
// first chunk.
var ErrReasoner = errors.New("stream: reasoner failed")

// Stream is the consumer side of one streamed answer.
type Stream struct {
	id     string
	ch     chan StreamChunk
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	// written by the producer before done is closed
	err error
}

// ID returns the stream's unique id.
func (s *Stream) ID() string { return s.id }

// Chunks returns the receive side of the queue. It is closed after the final
// chunk, after a Reasoner failure and after Close.
func (s *Stream) Chunks() <-chan StreamChunk { return s.ch }

// Done is closed once the producer goroutine has exited.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Close stops the producer. It does not wait for it to exit; use Done for
// that. Close is idempotent and safe to call concurrently.
func (s *Stream) Close() {
	s.once.Do(s.cancel)
}

// Err blocks until the producer has exited and reports why the stream
// ended: nil for a complete or cancelled stream, an error wrapping
// ErrReasoner otherwise. Drain Chunks or call Close first.
func (s *Stream) Err() error {
	<-s.done
	return s.err
}
