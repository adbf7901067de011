package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tone-monitor-service/internal/config"
	"tone-monitor-service/internal/service/chunk"
	"tone-monitor-service/internal/service/recorder"
	sttmock "tone-monitor-service/internal/service/stt/mock"
	"tone-monitor-service/internal/service/stt/whisper"
	"tone-monitor-service/internal/service/tone"
	"tone-monitor-service/internal/service/tone/llm"
	tonemock "tone-monitor-service/internal/service/tone/mock"
)

func testConfig(t *testing.T) *config.Configuration {
	t.Helper()
	dir := t.TempDir()
	return &config.Configuration{
		Service: config.ServiceConfig{
			Principal: "svc-tone-monitor-test",
			Env:       "test",
			HTTPPort:  "0",
			GRPCPort:  "0",
		},
		Recorder: config.RecorderConfig{
			Backend:       "synthetic",
			ChunkDuration: time.Hour,
			SampleRateHz:  16000,
			ChunkDir:      filepath.Join(dir, "chunks"),
		},
		STT:        config.STTConfig{Provider: "mock", LanguageCode: "en-US"},
		Classifier: config.ClassifierConfig{Backend: "mock", Enabled: true},
		Monitor: config.MonitorConfig{
			NotificationCooldown: time.Minute,
			ExcerptLimit:         120,
			FlaggedHistory:       10,
		},
		Notifier:      config.NotifierConfig{Backend: "log"},
		Preferences:   config.PreferencesConfig{File: filepath.Join(dir, "prefs.toml")},
		Observability: config.ObservabilityConfig{LogLevel: "error", MetricsPort: "0"},
	}
}

func TestNewClassifier(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		check   func(tone.Classifier) bool
	}{
		{"mock", "mock", func(c tone.Classifier) bool { _, ok := c.(*tonemock.Classifier); return ok }},
		{"openai", "openai", func(c tone.Classifier) bool { _, ok := c.(*llm.Classifier); return ok }},
		{"none", "none", func(c tone.Classifier) bool { _, ok := c.(*llm.Classifier); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Classifier.Backend = tt.backend
			if c := NewClassifier(cfg); !tt.check(c) {
				t.Errorf("unexpected classifier type %T", c)
			}
		})
	}
}

func TestNewClassifier_NoneIsNotEligible(t *testing.T) {
	cfg := testConfig(t)
	cfg.Classifier.Backend = "none"

	c := NewClassifier(cfg)
	_, err := c.Classify(context.Background(), "hello", tone.DefaultQuestion)
	if got := tone.StatusMessage(err); got != tone.DeviceNotEligible.Message() {
		t.Errorf("expected %q, got %q", tone.DeviceNotEligible.Message(), got)
	}
}

func TestNewTranscriber(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantErr  bool
		check    func(any) bool
	}{
		{"mock", "mock", false, func(v any) bool { _, ok := v.(*sttmock.Adapter); return ok }},
		{"openai", "openai", false, func(v any) bool { _, ok := v.(*whisper.Adapter); return ok }},
		{"unknown", "vosk", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.STT.Provider = tt.provider
			tr, closeFn, err := NewTranscriber(context.Background(), cfg)
			if closeFn == nil {
				t.Fatal("expected non-nil close function")
			}
			defer closeFn()
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTranscriber() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !tt.check(tr) {
				t.Errorf("unexpected transcriber type %T", tr)
			}
		})
	}
}

func TestNewRecorder(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		wantErr bool
		check   func(recorder.Recorder) bool
	}{
		{"ffmpeg", "ffmpeg", false, func(r recorder.Recorder) bool { _, ok := r.(*recorder.FFmpeg); return ok }},
		{"synthetic", "synthetic", false, func(r recorder.Recorder) bool { _, ok := r.(*recorder.Synthetic); return ok }},
		{"unknown", "portaudio", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Recorder.Backend = tt.backend
			r, err := NewRecorder(cfg, chunk.NewNamer(t.TempDir()), chunk.NewTracker())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRecorder() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !tt.check(r) {
				t.Errorf("unexpected recorder type %T", r)
			}
		})
	}
}

func TestApplication_Lifecycle(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.Recorder.ChunkDir, 0o755); err != nil {
		t.Fatal(err)
	}
	orphan := filepath.Join(cfg.Recorder.ChunkDir, chunk.Prefix+"left-behind"+chunk.Extension)
	if err := os.WriteFile(orphan, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	a := New(cfg)
	if err := a.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := a.ready(context.Background()); err == nil {
		t.Error("expected not ready before Start")
	}

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !a.Monitor.Alive() {
		t.Error("expected monitor loop running when Start returns")
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Errorf("expected orphan chunk purged at startup, stat err=%v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for a.ready(context.Background()) != nil {
		if time.Now().After(deadline) {
			t.Fatal("application never became ready")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := a.Monitor.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Shutdown(ctx)

	if a.Monitor.Alive() {
		t.Error("expected monitor stopped after shutdown")
	}
	if live := a.Tracker.Live(); live != 0 {
		t.Errorf("expected no live chunks after shutdown, got %d", live)
	}
	entries, _ := os.ReadDir(cfg.Recorder.ChunkDir)
	for _, e := range entries {
		if chunk.IsChunkFile(e.Name()) {
			t.Errorf("chunk file left after shutdown: %s", e.Name())
		}
	}
}
