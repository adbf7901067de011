package chunk

import (
	"errors"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"tone-monitor-service/internal/observability/logging"
	"tone-monitor-service/internal/observability/metrics"
)

// Tracker owns every live chunk file of the process. Chunks enter when a
// recording starts and leave when Release deletes the file.
type Tracker struct {
	mu       sync.Mutex
	live     map[string]*Lifecycle
	created  int
	released int

	remove  func(string) error
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		live:    make(map[string]*Lifecycle),
		remove:  os.Remove,
		metrics: metrics.DefaultMetrics,
		logger:  logging.WithComponent("chunk-tracker"),
	}
}

// Track registers a newly created chunk file.
func (t *Tracker) Track(id, path string) *Lifecycle {
	lc := NewLifecycle(id, path)

	t.mu.Lock()
	t.live[path] = lc
	t.created++
	t.mu.Unlock()

	t.metrics.RecordChunkFileCreated()
	return lc
}

// Get returns the live lifecycle for path, or nil if the path is unknown or
// already released.
func (t *Tracker) Get(path string) *Lifecycle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live[path]
}

// Release deletes the chunk file at path. Only the first call for a tracked
// path deletes; later calls and unknown paths are no-ops. A missing file
// counts as deleted. Failures are logged and returned, never retried.
func (t *Tracker) Release(path string) error {
	if path == "" {
		return nil
	}

	t.mu.Lock()
	lc, ok := t.live[path]
	if ok {
		delete(t.live, path)
	}
	t.mu.Unlock()

	if !ok || !lc.Release() {
		return nil
	}
	return t.delete(path)
}

// ReleaseAll deletes every live chunk file and returns how many were released.
func (t *Tracker) ReleaseAll() int {
	t.mu.Lock()
	pending := make([]*Lifecycle, 0, len(t.live))
	for path, lc := range t.live {
		pending = append(pending, lc)
		delete(t.live, path)
	}
	t.mu.Unlock()

	n := 0
	for _, lc := range pending {
		if !lc.Release() {
			continue
		}
		_ = t.delete(lc.Path())
		n++
	}
	return n
}

func (t *Tracker) delete(path string) error {
	err := t.remove(path)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}

	t.mu.Lock()
	t.released++
	t.mu.Unlock()

	t.metrics.RecordChunkFileDeleted(err)
	if err != nil {
		t.logger.Warn().Err(err).Str("chunk", path).Msg("Failed to delete chunk file")
		return err
	}
	t.logger.Debug().Str("chunk", path).Msg("Chunk file deleted")
	return nil
}

// Live returns the number of chunk files not yet released.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Counts returns how many chunks were tracked and how many were released.
func (t *Tracker) Counts() (created, released int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.created, t.released
}
