// Package monitor runs the record, transcribe, classify and notify loop.
//
// All state lives on the goroutine running Monitor.Run. Recorder callbacks,
// permission answers, transcriptions and classifications are posted back to
// that goroutine as closures, so no field below the mutex is touched from
// anywhere else.
package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tone-monitor-service/internal/models"
	"tone-monitor-service/internal/observability/logging"
	"tone-monitor-service/internal/observability/metrics"
	"tone-monitor-service/internal/service/chunk"
	"tone-monitor-service/internal/service/notify"
	"tone-monitor-service/internal/service/permission"
	"tone-monitor-service/internal/service/recorder"
	"tone-monitor-service/internal/service/stt"
	"tone-monitor-service/internal/service/tone"
)

// ErrNotRunning is returned by calls made while Run is not active.
var ErrNotRunning = errors.New("monitor: event loop not running")

// PromptSource supplies the question asked of the classifier.
type PromptSource interface {
	Prompt() string
}

// EventPublisher receives verdict and alert events. Failures are logged only.
type EventPublisher interface {
	PublishVerdict(ctx context.Context, key string, event any) error
	PublishAlert(ctx context.Context, key string, event any) error
}

// Config holds the notification policy.
type Config struct {
	Cooldown       time.Duration
	ExcerptLimit   int
	FlaggedHistory int
	Sound          bool
	Principal      string
}

// DefaultConfig returns a 60s cooldown, 120 character excerpts, 50 flagged
// transcripts and audible alerts.
func DefaultConfig() Config {
	return Config{
		Cooldown:       60 * time.Second,
		ExcerptLimit:   120,
		FlaggedHistory: 50,
		Sound:          true,
	}
}

// Deps are the collaborators of a Monitor. Events and Now are optional.
type Deps struct {
	Recorder    recorder.Recorder
	Tracker     *chunk.Tracker
	Transcriber stt.Transcriber
	Classifier  tone.Classifier
	Notifier    notify.Notifier
	Permissions permission.Authorizer
	Prompts     PromptSource
	Events      EventPublisher
	Now         func() time.Time
}

// Monitor coordinates one monitoring session at a time.
type Monitor struct {
	cfg         Config
	recorder    recorder.Recorder
	tracker     *chunk.Tracker
	transcriber stt.Transcriber
	classifier  tone.Classifier
	notifier    notify.Notifier
	auth        permission.Authorizer
	prompts     PromptSource
	events      EventPublisher
	now         func() time.Time
	flagged     *FlaggedLog
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	inbox   chan func()
	running chan struct{}
	done    chan struct{}
	runOnce sync.Once

	// Loop-owned.
	state            State
	session          uint64
	runCtx           context.Context
	sessionCtx       context.Context
	cancelSession    context.CancelFunc
	cancelTranscribe context.CancelFunc

	mu        sync.RWMutex
	snapshot  State
	listeners map[int]chan State
	nextID    int
}

// New creates a Monitor. The recorder's completion callback is claimed by
// the monitor.
func New(cfg Config, deps Deps) *Monitor {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	m := &Monitor{
		cfg:         cfg,
		recorder:    deps.Recorder,
		tracker:     deps.Tracker,
		transcriber: deps.Transcriber,
		classifier:  deps.Classifier,
		notifier:    deps.Notifier,
		auth:        deps.Permissions,
		prompts:     deps.Prompts,
		events:      deps.Events,
		now:         deps.Now,
		flagged:     NewFlaggedLog(cfg.FlaggedHistory),
		metrics:     metrics.DefaultMetrics,
		logger:      logging.WithComponent("monitor"),
		inbox:       make(chan func(), 64),
		running:     make(chan struct{}),
		done:        make(chan struct{}),
		runCtx:      context.Background(),
		listeners:   make(map[int]chan State),
	}
	m.recorder.OnComplete(m.onRecorderComplete)
	return m
}

// Run processes events until ctx is cancelled, then stops any active
// session. Run may only be called once.
func (m *Monitor) Run(ctx context.Context) error {
	started := false
	m.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("monitor: Run called twice")
	}

	m.runCtx = ctx
	close(m.running)
	m.logger.Info().Msg("Monitor event loop started")

	for {
		select {
		case <-ctx.Done():
			if m.state.Phase != PhaseDisabled {
				m.stop()
			}
			close(m.done)
			m.logger.Info().Msg("Monitor event loop stopped")
			return ctx.Err()
		case fn := <-m.inbox:
			fn()
		}
	}
}

// Ready is closed once Run has started processing events.
func (m *Monitor) Ready() <-chan struct{} {
	return m.running
}

// Alive reports whether the event loop is running.
func (m *Monitor) Alive() bool {
	select {
	case <-m.running:
	default:
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// Toggle starts a disabled monitor or stops a running one. It is ignored
// while a start is waiting for permissions. The returned state reflects the
// toggle as applied; a start is not complete until permissions are granted.
func (m *Monitor) Toggle(ctx context.Context) (State, error) {
	result := make(chan State, 1)
	if !m.post(func() {
		m.toggle()
		result <- m.state.clone()
	}) {
		return State{}, ErrNotRunning
	}
	select {
	case s := <-result:
		return s, nil
	case <-m.done:
		return State{}, ErrNotRunning
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// State returns a copy of the latest state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.clone()
}

// Subscribe returns a channel carrying the current state followed by every
// change. Slow readers only see the newest state. Call the returned function
// to unsubscribe.
func (m *Monitor) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = ch
	ch <- m.snapshot.clone()
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Flagged returns the disagreeable transcripts seen since startup.
func (m *Monitor) Flagged() []FlaggedTranscript {
	return m.flagged.List()
}

// ClearFlagged empties the flagged transcript history.
func (m *Monitor) ClearFlagged() int {
	return m.flagged.Clear()
}

func (m *Monitor) post(fn func()) bool {
	if !m.Alive() {
		return false
	}
	select {
	case m.inbox <- fn:
		return true
	case <-m.done:
		return false
	}
}

// publishState copies the loop-owned state out to readers.
func (m *Monitor) publishState() {
	s := m.state.clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = s
	for _, ch := range m.listeners {
		select {
		case <-ch:
		default:
		}
		ch <- s.clone()
	}
}

func (m *Monitor) toggle() {
	switch m.state.Phase {
	case PhaseDisabled:
		m.start()
	case PhaseRunning:
		m.logger.Info().Uint64("session", m.session).Msg("Monitoring stopped by user")
		m.stop()
	case PhaseStarting:
		m.logger.Debug().Msg("Toggle ignored while waiting for permissions")
	}
}

func (m *Monitor) start() {
	m.session++
	gen := m.session
	m.state.Phase = PhaseStarting
	m.publishState()

	ctx := m.runCtx
	go func() {
		ok := permission.Granted(ctx, m.auth)
		m.post(func() { m.onPermissions(gen, ok) })
	}()
}

func (m *Monitor) onPermissions(gen uint64, granted bool) {
	if gen != m.session || m.state.Phase != PhaseStarting {
		return
	}
	logger := logging.WithSession("monitor", gen)

	if !granted {
		m.state.Phase = PhaseDisabled
		m.metrics.RecordPermissionDenied()
		logger.Warn().Msg("Permissions denied, monitoring not started")
		m.publishState()
		return
	}

	m.sessionCtx, m.cancelSession = context.WithCancel(m.runCtx)
	m.state.LiveText = ""
	m.state.setVerdict(nil, "")
	m.state.StatusMessage = ""
	m.state.Enabled = true
	m.state.Phase = PhaseRunning
	m.state.Session = gen
	m.metrics.SetEnabled(true)
	m.metrics.RecordSessionStart()
	m.publishState()

	logger.Info().Msg("Monitoring started")
	m.recorder.StartNewChunk()
}

// stop ends the session. Results still in flight for it are discarded.
func (m *Monitor) stop() {
	m.session++
	if m.cancelTranscribe != nil {
		m.cancelTranscribe()
		m.cancelTranscribe = nil
	}
	if m.cancelSession != nil {
		m.cancelSession()
		m.cancelSession = nil
	}

	m.recorder.Stop()
	if n := m.tracker.ReleaseAll(); n > 0 {
		m.logger.Debug().Int("released", n).Msg("Deleted lingering chunk files")
	}

	m.state.Enabled = false
	m.state.Phase = PhaseDisabled
	m.metrics.SetEnabled(false)
	m.publishState()
}

// onRecorderComplete runs on a recorder goroutine.
func (m *Monitor) onRecorderComplete(path string, ok bool) {
	if !m.post(func() { m.onChunkComplete(path, ok) }) {
		_ = m.tracker.Release(path)
	}
}

func (m *Monitor) onChunkComplete(path string, ok bool) {
	lc := m.tracker.Get(path)
	if lc == nil {
		// Released by stop; belongs to an ended session.
		return
	}
	logger := logging.WithChunk("monitor", m.session, path)

	if !m.state.Enabled {
		m.release(path)
		return
	}

	if !ok {
		logger.Warn().Msg("Chunk recording failed, starting a replacement")
		m.release(path)
		m.recorder.StartNewChunk()
		return
	}

	if err := lc.MarkRecorded(); err != nil {
		logger.Warn().Err(err).Msg("Chunk not usable")
		m.release(path)
		m.recorder.StartNewChunk()
		return
	}
	m.transcribe(lc)
}

func (m *Monitor) transcribe(lc *chunk.Lifecycle) {
	if m.cancelTranscribe != nil {
		m.cancelTranscribe()
	}
	ctx, cancel := context.WithCancel(m.sessionCtx)
	m.cancelTranscribe = cancel

	if err := lc.MarkTranscribing(); err != nil {
		m.logger.Warn().Err(err).Str("chunk", lc.Path()).Msg("Chunk not transcribable")
	}

	gen, id, path := m.session, lc.ID(), lc.Path()
	go func() {
		start := time.Now()
		text, err := m.transcriber.Transcribe(ctx, path)
		latency := time.Since(start)
		superseded := ctx.Err() != nil
		m.post(func() { m.onTranscribed(gen, id, path, text, err, superseded, latency) })
	}()
}

// onTranscribed handles a finished transcription. superseded is true when the
// task's own context was cancelled; an error from the transcriber that merely
// wraps context.Canceled is an ordinary failure and the loop still advances.
func (m *Monitor) onTranscribed(gen uint64, chunkID, path, text string, err error, superseded bool, latency time.Duration) {
	if gen != m.session || superseded {
		m.release(path)
		return
	}
	if m.cancelTranscribe != nil {
		m.cancelTranscribe()
		m.cancelTranscribe = nil
	}

	logger := logging.WithChunk("monitor", gen, path)
	text = strings.TrimSpace(text)
	empty := err == nil && text == ""
	switch {
	case errors.Is(err, stt.ErrEmptyAudio):
		logger.Debug().Msg("Chunk held no audio")
		err = nil
		empty = true
	case err != nil:
		logger.Warn().Err(err).Str("provider", m.transcriber.Name()).Msg("Transcription failed, treating chunk as silent")
		text = ""
	}
	m.metrics.RecordTranscription(m.transcriber.Name(), err, empty, latency.Seconds())

	m.state.LiveText = text
	m.evaluate(gen, chunkID, text)
	m.release(path)
	m.publishState()

	if m.state.Enabled {
		m.recorder.StartNewChunk()
	}
}

// evaluate classifies text. Silence clears the verdict without asking the
// classifier.
func (m *Monitor) evaluate(gen uint64, chunkID, text string) {
	if text == "" {
		m.state.setVerdict(nil, "")
		return
	}

	question := m.prompts.Prompt()
	ctx := m.sessionCtx
	go func() {
		start := time.Now()
		res, err := m.classifier.Classify(ctx, text, question)
		latency := time.Since(start)
		m.post(func() { m.onClassified(gen, chunkID, text, res, err, latency) })
	}()
}

func (m *Monitor) onClassified(gen uint64, chunkID, text string, res tone.Result, err error, latency time.Duration) {
	if gen != m.session {
		return
	}
	logger := logging.WithSession("monitor", gen)

	if err != nil {
		reason := tone.FailureReason(err)
		m.state.setVerdict(nil, "")
		m.state.StatusMessage = tone.StatusMessage(err)
		m.metrics.RecordClassifierFailure(reason, latency.Seconds())
		m.metrics.RecordSessionFailed(reason)
		logger.Error().Err(err).Str("reason", reason).Msg("Tone classifier failed, disabling monitor")
		m.stop()
		return
	}

	agreeable := res.Agreeable
	m.state.setVerdict(&agreeable, res.Reason)
	m.metrics.RecordVerdict(agreeable, latency.Seconds())
	logger.Info().
		Bool("agreeable", agreeable).
		Str("reason", m.state.Reason).
		Dur("latency", latency).
		Msg("Tone classified")

	m.publishVerdict(gen, chunkID, text, m.state.Reason, agreeable, latency)
	if !agreeable {
		m.flagged.Add(text, m.state.Reason, m.now())
		m.maybeNotify(gen, chunkID, text, m.state.Reason)
	}
	m.publishState()
}

// maybeNotify alerts the user unless the previous alert is within the
// cooldown. The timestamp is stamped before dispatch.
func (m *Monitor) maybeNotify(gen uint64, chunkID, text, reason string) {
	now := m.now()
	if last := m.state.LastNotifiedAt; last != nil && now.Sub(*last) < m.cfg.Cooldown {
		m.metrics.RecordNotificationSuppressed()
		m.logger.Debug().
			Dur("sinceLast", now.Sub(*last)).
			Msg("Notification suppressed by cooldown")
		return
	}
	m.state.LastNotifiedAt = &now

	n := notify.Notification{
		Title: notify.DisagreeableTitle,
		Body:  notify.DisagreeableBody(reason, text, m.cfg.ExcerptLimit),
		Sound: m.cfg.Sound,
	}
	ctx := m.runCtx
	go func() {
		err := m.notifier.Notify(ctx, n)
		m.metrics.RecordNotification(err)
		if err != nil {
			m.logger.Warn().Err(err).Msg("Notification delivery failed")
		}
	}()

	if m.events == nil {
		return
	}
	ev := models.ToneAlert{
		EventType: models.EventTypeAlert,
		Principal: m.cfg.Principal,
		Session:   gen,
		ChunkID:   chunkID,
		Timestamp: now.UnixMilli(),
		Title:     n.Title,
		Body:      n.Body,
		Reason:    reason,
	}
	go func() {
		if err := m.events.PublishAlert(ctx, chunkID, ev); err != nil {
			m.logger.Warn().Err(err).Str("chunkId", chunkID).Msg("Failed to publish alert")
		}
	}()
}

func (m *Monitor) publishVerdict(gen uint64, chunkID, text, reason string, agreeable bool, latency time.Duration) {
	if m.events == nil {
		return
	}
	ev := models.ToneVerdict{
		EventType: models.EventTypeVerdict,
		Principal: m.cfg.Principal,
		Session:   gen,
		ChunkID:   chunkID,
		Timestamp: m.now().UnixMilli(),
		Text:      text,
		Agreeable: agreeable,
		Reason:    reason,
		LatencyMs: latency.Milliseconds(),
	}
	ctx := m.runCtx
	go func() {
		if err := m.events.PublishVerdict(ctx, chunkID, ev); err != nil {
			m.logger.Warn().Err(err).Str("chunkId", chunkID).Msg("Failed to publish verdict")
		}
	}()
}

func (m *Monitor) release(path string) {
	// Tracker logs and counts failures.
	_ = m.tracker.Release(path)
}
