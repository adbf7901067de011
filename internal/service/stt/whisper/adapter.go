// Package whisper provides a transcription adapter for OpenAI-compatible
// audio transcription endpoints.
package whisper

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"tone-monitor-service/internal/service/stt"
	"tone-monitor-service/internal/service/wavfile"
)

// Config holds Whisper adapter configuration.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string // ISO-639-1, e.g. "en"
}

// Adapter implements stt.Transcriber using go-openai.
type Adapter struct {
	cfg    Config
	client *openai.Client
}

// New creates a new Whisper adapter.
func New(cfg Config) *Adapter {
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Adapter{cfg: cfg, client: openai.NewClientWithConfig(clientCfg)}
}

// LanguageFromCode turns a BCP-47 code such as "en-US" into "en".
func LanguageFromCode(code string) string {
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return strings.ToLower(code)
}

// Name implements stt.Transcriber.
func (a *Adapter) Name() string {
	return "openai"
}

// Transcribe uploads the chunk and returns the recognized text.
func (a *Adapter) Transcribe(ctx context.Context, path string) (string, error) {
	if !wavfile.HasAudio(path) {
		return "", stt.ErrEmptyAudio
	}

	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    a.cfg.Model,
		FilePath: path,
		Language: a.cfg.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
