package recorder

import (
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tone-monitor-service/internal/observability/logging"
	"tone-monitor-service/internal/observability/metrics"
	"tone-monitor-service/internal/service/chunk"
	"tone-monitor-service/internal/service/wavfile"
)

// FFmpegConfig controls the capture subprocess.
type FFmpegConfig struct {
	Binary       string
	Format       string // input format: pulse, alsa, avfoundation, dshow
	Device       string
	Duration     time.Duration
	SampleRateHz int
	StopGrace    time.Duration // wait after interrupt before killing; bounds Stop
}

// DefaultFFmpegConfig returns a PulseAudio capture of 60-second 16 kHz mono chunks.
func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		Binary:       "ffmpeg",
		Format:       "pulse",
		Device:       "default",
		Duration:     60 * time.Second,
		SampleRateHz: 16000,
		StopGrace:    2 * time.Second,
	}
}

// FFmpeg records chunks by running one ffmpeg process per chunk.
type FFmpeg struct {
	base
	cfg    FFmpegConfig
	logger zerolog.Logger
	argv   func(path string) []string

	mu      sync.Mutex
	current *capture
}

type capture struct {
	path    string
	cmd     *exec.Cmd
	exited  chan struct{}
	stopped atomic.Bool
}

// NewFFmpeg creates an ffmpeg-backed recorder writing into namer's directory.
func NewFFmpeg(cfg FFmpegConfig, namer *chunk.Namer, tracker *chunk.Tracker) *FFmpeg {
	f := &FFmpeg{
		base: base{
			namer:   namer,
			tracker: tracker,
			metrics: metrics.DefaultMetrics,
		},
		cfg:    cfg,
		logger: logging.WithComponent("recorder-ffmpeg"),
	}
	f.argv = f.ffmpegArgs
	return f
}

// OnComplete implements Recorder.
func (f *FFmpeg) OnComplete(fn CompletionFunc) {
	f.onComplete = fn
}

func (f *FFmpeg) ffmpegArgs(path string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", f.cfg.Format,
		"-i", f.cfg.Device,
		"-t", strconv.FormatFloat(f.cfg.Duration.Seconds(), 'f', -1, 64),
		"-ac", "1",
		"-ar", strconv.Itoa(f.cfg.SampleRateHz),
		"-y",
		path,
	}
}

// StartNewChunk implements Recorder.
func (f *FFmpeg) StartNewChunk() {
	f.Stop()

	_, path := f.newChunk()
	cmd := exec.Command(f.cfg.Binary, f.argv(path)...)

	if err := cmd.Start(); err != nil {
		f.logger.Error().Err(err).Str("binary", f.cfg.Binary).Str("chunk", path).Msg("Failed to start audio capture")
		go f.complete(path, false)
		return
	}

	c := &capture{path: path, cmd: cmd, exited: make(chan struct{})}
	f.mu.Lock()
	f.current = c
	f.mu.Unlock()

	f.logger.Debug().Str("chunk", path).Int("pid", cmd.Process.Pid).Msg("Chunk recording started")
	go f.wait(c)
}

func (f *FFmpeg) wait(c *capture) {
	err := c.cmd.Wait()
	close(c.exited)

	f.mu.Lock()
	if f.current == c {
		f.current = nil
	}
	f.mu.Unlock()

	// An interrupted capture still leaves a usable file behind.
	ok := err == nil || (c.stopped.Load() && wavfile.HasAudio(c.path))
	if !ok {
		f.logger.Warn().Err(err).Str("chunk", c.path).Msg("Chunk recording failed")
	}
	f.complete(c.path, ok)
}

// Stop implements Recorder.
func (f *FFmpeg) Stop() {
	f.mu.Lock()
	c := f.current
	f.current = nil
	f.mu.Unlock()

	if c == nil {
		return
	}
	c.stopped.Store(true)

	if err := c.cmd.Process.Signal(os.Interrupt); err != nil {
		_ = c.cmd.Process.Kill()
	}
	select {
	case <-c.exited:
	case <-time.After(f.cfg.StopGrace):
		f.logger.Warn().Str("chunk", c.path).Msg("Capture ignored interrupt, killing")
		_ = c.cmd.Process.Kill()
		<-c.exited
	}
}
