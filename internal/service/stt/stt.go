// Package stt defines the interface for Speech-to-Text adapters.
package stt

import (
	"context"
	"errors"
)

// ErrEmptyAudio is returned when a chunk holds no sample data.
var ErrEmptyAudio = errors.New("stt: audio chunk is empty")

// Transcriber turns a completed audio chunk into text. An empty string with a
// nil error means no speech was recognized.
type Transcriber interface {
	// Transcribe recognizes the speech in the WAV file at path.
	Transcribe(ctx context.Context, path string) (string, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
