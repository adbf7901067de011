// Package permission checks whether the monitor may record, transcribe and
// notify on this machine.
package permission

import (
	"context"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"tone-monitor-service/internal/observability/logging"
)

// Authorizer answers the permission requests made when monitoring starts.
type Authorizer interface {
	// RequestRecording reports whether audio capture is possible.
	RequestRecording(ctx context.Context) bool
	// RequestTranscription reports whether speech recognition is configured.
	RequestTranscription(ctx context.Context) bool
	// RequestNotifications reports whether alerts can be shown. Best-effort:
	// a false answer never blocks monitoring.
	RequestNotifications(ctx context.Context) bool
}

// Config describes the local environment the checks run against.
type Config struct {
	RecorderBackend string
	FFmpegPath      string
	STTProvider     string
	OpenAIKey       string
	OpenAIBaseURL   string
	NotifierBackend string
}

// System implements Authorizer by inspecting the host and configuration.
type System struct {
	cfg      Config
	lookPath func(string) (string, error)
	getenv   func(string) string
	logger   zerolog.Logger
}

// NewSystem creates a System authorizer.
func NewSystem(cfg Config) *System {
	return &System{
		cfg:      cfg,
		lookPath: exec.LookPath,
		getenv:   os.Getenv,
		logger:   logging.WithComponent("permission"),
	}
}

// RequestRecording implements Authorizer.
func (s *System) RequestRecording(context.Context) bool {
	if s.cfg.RecorderBackend != "ffmpeg" {
		return true
	}
	if _, err := s.lookPath(s.cfg.FFmpegPath); err != nil {
		s.logger.Warn().Err(err).Str("binary", s.cfg.FFmpegPath).Msg("Audio capture unavailable")
		return false
	}
	return true
}

// RequestTranscription implements Authorizer.
func (s *System) RequestTranscription(context.Context) bool {
	switch s.cfg.STTProvider {
	case "mock":
		return true
	case "google":
		if s.getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			s.logger.Warn().Msg("Google speech credentials not configured")
			return false
		}
		return true
	case "openai":
		if s.cfg.OpenAIKey == "" && s.cfg.OpenAIBaseURL == "" {
			s.logger.Warn().Msg("OpenAI transcription credentials not configured")
			return false
		}
		return true
	default:
		s.logger.Warn().Str("provider", s.cfg.STTProvider).Msg("Unknown transcription provider")
		return false
	}
}

// RequestNotifications implements Authorizer.
func (s *System) RequestNotifications(context.Context) bool {
	if s.cfg.NotifierBackend != "desktop" {
		return true
	}
	// Desktop delivery needs a session bus on Linux; elsewhere assume yes.
	if s.getenv("DISPLAY") == "" && s.getenv("WAYLAND_DISPLAY") == "" && s.getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		s.logger.Info().Msg("No desktop session detected, notifications may not be shown")
		return false
	}
	return true
}

// Granted asks for every permission and reports whether monitoring may start.
// Notification authorization is requested but not required.
func Granted(ctx context.Context, a Authorizer) bool {
	_ = a.RequestNotifications(ctx)
	return a.RequestRecording(ctx) && a.RequestTranscription(ctx)
}
