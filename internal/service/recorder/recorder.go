// Package recorder captures fixed-duration audio chunks to uniquely named
// files and reports each chunk's outcome exactly once.
package recorder

import (
	"tone-monitor-service/internal/observability/metrics"
	"tone-monitor-service/internal/service/chunk"
)

// CompletionFunc receives the outcome of one chunk. It is invoked exactly
// once per chunk, never on the goroutine that called StartNewChunk or Stop.
type CompletionFunc func(path string, ok bool)

// Recorder records audio in consecutive chunks.
type Recorder interface {
	// StartNewChunk begins recording to a fresh file. An active recording is
	// stopped first.
	StartNewChunk()

	// Stop ends the active recording, if any, and waits for it to finish so
	// no file is still being written once it returns. This is the one call
	// that blocks its caller; implementations must bound the wait (see
	// FFmpegConfig.StopGrace). Safe to call repeatedly.
	Stop()

	// OnComplete sets the completion callback. Must be called before the
	// first StartNewChunk.
	OnComplete(fn CompletionFunc)
}

// base holds what every recorder needs to name, track and report chunks.
type base struct {
	namer      *chunk.Namer
	tracker    *chunk.Tracker
	metrics    *metrics.Metrics
	onComplete CompletionFunc
}

func (b *base) newChunk() (id, path string) {
	id, path = b.namer.Next()
	b.tracker.Track(id, path)
	b.metrics.RecordChunkStarted()
	return id, path
}

func (b *base) complete(path string, ok bool) {
	b.metrics.RecordChunkFinished(ok)
	if b.onComplete != nil {
		b.onComplete(path, ok)
	}
}
