// Package notify delivers one-shot alerts to the user.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"

	"tone-monitor-service/internal/observability/logging"
)

// DisagreeableTitle is the title of every tone alert.
const DisagreeableTitle = "Disagreeable tone detected"

// Notification is a single alert.
type Notification struct {
	Title string
	Body  string
	Sound bool
}

// Notifier delivers notifications. Delivery is fire-and-forget from the
// caller's point of view; errors are for logging only.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// DisagreeableBody formats the alert body: the reason followed by a quoted
// excerpt of the transcript, or only the excerpt when there is no reason.
// The excerpt is the first limit characters of text.
func DisagreeableBody(reason, text string, limit int) string {
	excerpt := Excerpt(text, limit)
	if reason = strings.TrimSpace(reason); reason != "" {
		return fmt.Sprintf("%s — \"%s\"", reason, excerpt)
	}
	return fmt.Sprintf("\"%s\"", excerpt)
}

// Excerpt returns the first limit characters of s.
func Excerpt(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// Desktop shows native desktop notifications via beeep.
type Desktop struct {
	logger zerolog.Logger
	alert  func(title, message string, icon any) error
	notify func(title, message string, icon any) error
}

// NewDesktop creates a desktop notifier. appName is shown by platforms that
// attribute notifications to an application.
func NewDesktop(appName string) *Desktop {
	if appName != "" {
		beeep.AppName = appName
	}
	return &Desktop{
		logger: logging.WithComponent("notifier-desktop"),
		alert:  beeep.Alert,
		notify: beeep.Notify,
	}
}

// Notify implements Notifier. Sound selects beeep.Alert over beeep.Notify.
func (d *Desktop) Notify(_ context.Context, n Notification) error {
	send := d.notify
	if n.Sound {
		send = d.alert
	}
	if err := send(n.Title, n.Body, ""); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	d.logger.Debug().Str("title", n.Title).Msg("Notification delivered")
	return nil
}

// Log writes notifications to the log instead of the desktop.
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a log-only notifier.
func NewLog() *Log {
	return &Log{logger: logging.WithComponent("notifier-log")}
}

// Notify implements Notifier.
func (l *Log) Notify(_ context.Context, n Notification) error {
	l.logger.Warn().
		Str("title", n.Title).
		Str("body", n.Body).
		Bool("sound", n.Sound).
		Msg("Notification")
	return nil
}

// New returns the notifier for backend ("desktop" or "log").
func New(backend, appName string) Notifier {
	if backend == "desktop" {
		return NewDesktop(appName)
	}
	return NewLog()
}
