package app

import (
	"context"
	"fmt"

	"tone-monitor-service/internal/config"
	"tone-monitor-service/internal/service/chunk"
	"tone-monitor-service/internal/service/permission"
	"tone-monitor-service/internal/service/recorder"
	"tone-monitor-service/internal/service/stt"
	"tone-monitor-service/internal/service/stt/google"
	sttmock "tone-monitor-service/internal/service/stt/mock"
	"tone-monitor-service/internal/service/stt/whisper"
	"tone-monitor-service/internal/service/tone"
	"tone-monitor-service/internal/service/tone/llm"
	tonemock "tone-monitor-service/internal/service/tone/mock"
)

// NewTranscriber builds the configured speech-to-text provider. The returned
// close function releases provider connections and is never nil.
func NewTranscriber(ctx context.Context, cfg *config.Configuration) (stt.Transcriber, func() error, error) {
	noop := func() error { return nil }

	switch cfg.STT.Provider {
	case "mock":
		return sttmock.New(), noop, nil
	case "google":
		a, err := google.New(ctx, google.Config{
			LanguageCode:  cfg.STT.LanguageCode,
			SampleRateHz:  cfg.Recorder.SampleRateHz,
			AudioEncoding: cfg.STT.AudioEncoding,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("create google speech client: %w", err)
		}
		return a, a.Close, nil
	case "openai":
		return whisper.New(whisper.Config{
			APIKey:   cfg.Classifier.APIKey,
			BaseURL:  cfg.Classifier.BaseURL,
			Model:    cfg.STT.OpenAIModel,
			Language: whisper.LanguageFromCode(cfg.STT.LanguageCode),
		}), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown STT provider %q", cfg.STT.Provider)
	}
}

// NewClassifier builds the configured tone classifier. Backends other than
// openai and mock produce a classifier that is never available.
func NewClassifier(cfg *config.Configuration) tone.Classifier {
	if cfg.Classifier.Backend == "mock" {
		return tonemock.New()
	}
	lc := llm.DefaultConfig()
	lc.Backend = cfg.Classifier.Backend
	lc.Enabled = cfg.Classifier.Enabled
	lc.APIKey = cfg.Classifier.APIKey
	lc.BaseURL = cfg.Classifier.BaseURL
	lc.Model = cfg.Classifier.Model
	lc.ReadinessTTL = cfg.Classifier.ReadinessTTL
	return llm.New(lc)
}

// NewRecorder builds the configured chunk recorder.
func NewRecorder(cfg *config.Configuration, namer *chunk.Namer, tracker *chunk.Tracker) (recorder.Recorder, error) {
	switch cfg.Recorder.Backend {
	case "ffmpeg":
		return recorder.NewFFmpeg(recorder.FFmpegConfig{
			Binary:       cfg.Recorder.FFmpegPath,
			Format:       cfg.Recorder.InputFormat,
			Device:       cfg.Recorder.InputDevice,
			Duration:     cfg.Recorder.ChunkDuration,
			SampleRateHz: cfg.Recorder.SampleRateHz,
			StopGrace:    cfg.Recorder.StopGrace,
		}, namer, tracker), nil
	case "synthetic":
		return recorder.NewSynthetic(cfg.Recorder.ChunkDuration, cfg.Recorder.SampleRateHz, namer, tracker), nil
	default:
		return nil, fmt.Errorf("unknown recorder backend %q", cfg.Recorder.Backend)
	}
}

// NewAuthorizer builds the host permission checks for cfg.
func NewAuthorizer(cfg *config.Configuration) *permission.System {
	return permission.NewSystem(permission.Config{
		RecorderBackend: cfg.Recorder.Backend,
		FFmpegPath:      cfg.Recorder.FFmpegPath,
		STTProvider:     cfg.STT.Provider,
		OpenAIKey:       cfg.Classifier.APIKey,
		OpenAIBaseURL:   cfg.Classifier.BaseURL,
		NotifierBackend: cfg.Notifier.Backend,
	})
}
