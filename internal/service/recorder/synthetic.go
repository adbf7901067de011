package recorder

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tone-monitor-service/internal/observability/logging"
	"tone-monitor-service/internal/observability/metrics"
	"tone-monitor-service/internal/service/chunk"
	"tone-monitor-service/internal/service/wavfile"
)

// Synthetic records silent chunks without touching audio hardware. It keeps
// the chunk timing of a real recorder and is used headless and in tests.
type Synthetic struct {
	base
	duration   time.Duration
	sampleRate int
	logger     zerolog.Logger

	mu      sync.Mutex
	current *synthChunk
}

type synthChunk struct {
	path    string
	started time.Time
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewSynthetic creates a synthetic recorder.
func NewSynthetic(duration time.Duration, sampleRate int, namer *chunk.Namer, tracker *chunk.Tracker) *Synthetic {
	return &Synthetic{
		base: base{
			namer:   namer,
			tracker: tracker,
			metrics: metrics.DefaultMetrics,
		},
		duration:   duration,
		sampleRate: sampleRate,
		logger:     logging.WithComponent("recorder-synthetic"),
	}
}

// OnComplete implements Recorder.
func (s *Synthetic) OnComplete(fn CompletionFunc) {
	s.onComplete = fn
}

// StartNewChunk implements Recorder.
func (s *Synthetic) StartNewChunk() {
	s.Stop()

	_, path := s.newChunk()
	c := &synthChunk{
		path:    path,
		started: time.Now(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.mu.Lock()
	s.current = c
	s.mu.Unlock()

	go s.record(c)
}

func (s *Synthetic) record(c *synthChunk) {
	timer := time.NewTimer(s.duration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-c.stop:
	}

	err := wavfile.WriteSilence(c.path, time.Since(c.started), s.sampleRate)
	if err != nil {
		s.logger.Error().Err(err).Str("chunk", c.path).Msg("Failed to write synthetic chunk")
	}
	close(c.done)

	s.mu.Lock()
	if s.current == c {
		s.current = nil
	}
	s.mu.Unlock()

	s.complete(c.path, err == nil)
}

// Stop implements Recorder.
func (s *Synthetic) Stop() {
	s.mu.Lock()
	c := s.current
	s.current = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
	<-c.done
}
