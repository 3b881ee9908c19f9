// Package stream delivers a Reasoner's answer as ordered chunks while it is
// being produced.
//
// A Producer starts one goroutine per Stream call and returns immediately.
// That goroutine calls the Reasoner once, splits the answer into rune slices
// of Config.ChunkSize and, for every slice:
//
//  1. waits on the pacing limiter (Config.ChunkDelay per chunk, the first
//     chunk goes out at once);
//  2. probes the cache concurrently for Config.ProbeFanOut synthetic vertices
//     ("vertex_<chunk>_<j>") and joins all probes; probe failures are
//     logged and otherwise ignored;
//  3. sends the chunk on a channel of Config.QueueCapacity, blocking while
//     the queue is full.
//
// Chunks carry ids 0..n-1 in order and only the last one has IsFinal set.
//
// Cancellation
//
// Stream.Close is the only way to stop a stream. The context passed to
// Stream contributes values (for example the parent span) but its
// cancellation is ignored. After Close the producer performs no further
// pacing, probing or sends and closes the channel. Close is not an error:
// Err reports nil for a cancelled stream.
//
// Errors
//
// If the Reasoner fails, no chunk is sent, the channel is closed and Err
// returns an error wrapping ErrReasoner. An empty answer yields zero chunks
// and a nil Err, so the two cases are distinguishable.
//
// Always drain the channel to completion or call Close; a producer blocked on
// a full queue otherwise never exits.
package stream
