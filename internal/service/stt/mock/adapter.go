// Package mock provides a mock STT adapter for running without cloud credentials.
// It cycles through scripted utterances, one per chunk, and returns an empty
// transcript for chunks it treats as silence.
package mock

import (
	"context"
	"sync"
	"time"

	"tone-monitor-service/internal/service/stt"
	"tone-monitor-service/internal/service/wavfile"
)

// DefaultUtterances provides sample transcripts for simulation. The empty
// entry stands for a chunk in which nobody spoke.
var DefaultUtterances = []string{
	"You did a great job on the release notes",
	"This is unacceptable, fix it now",
	"",
	"Can you help me understand the timeline",
	"I've been waiting for over an hour, this is ridiculous",
	"Thank you very much for the quick turnaround",
}

// Adapter implements stt.Transcriber with scripted responses.
type Adapter struct {
	mu         sync.Mutex
	utterances []string
	next       int
	delay      time.Duration
	calls      int
}

// New creates a new mock STT adapter using DefaultUtterances.
func New() *Adapter {
	return NewWithUtterances(DefaultUtterances, 0)
}

// NewWithUtterances creates a mock adapter that returns utterances in order,
// wrapping around, after waiting delay per call.
func NewWithUtterances(utterances []string, delay time.Duration) *Adapter {
	return &Adapter{
		utterances: append([]string(nil), utterances...),
		delay:      delay,
	}
}

// Name implements stt.Transcriber.
func (a *Adapter) Name() string {
	return "mock"
}

// Transcribe returns the next scripted utterance. The chunk must exist and
// hold audio; cancellation is honored while simulating latency.
func (a *Adapter) Transcribe(ctx context.Context, path string) (string, error) {
	if !wavfile.HasAudio(path) {
		return "", stt.ErrEmptyAudio
	}

	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if len(a.utterances) == 0 {
		return "", nil
	}
	text := a.utterances[a.next%len(a.utterances)]
	a.next++
	return text, nil
}

// Calls returns how many chunks were transcribed.
func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
