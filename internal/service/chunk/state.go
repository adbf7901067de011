package chunk

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a chunk file.
type State int

const (
	// StateRecording - audio is being written to the file.
	StateRecording State = iota
	// StateRecorded - recording finished successfully, file is complete.
	StateRecorded
	// StateTranscribing - file has been handed to the transcriber.
	StateTranscribing
	// StateReleased - file has been deleted (or deletion attempted). Terminal.
	StateReleased
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateRecording:
		return "RECORDING"
	case StateRecorded:
		return "RECORDED"
	case StateTranscribing:
		return "TRANSCRIBING"
	case StateReleased:
		return "RELEASED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal.
func (s State) IsTerminal() bool {
	return s == StateReleased
}

// Errors for invalid state transitions.
var (
	ErrChunkReleased       = errors.New("chunk is released")
	ErrNotRecorded         = errors.New("chunk recording has not completed")
	ErrAlreadyTranscribing = errors.New("chunk is already being transcribed")
)

// Lifecycle manages the state machine for a single chunk file.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	RECORDING → RECORDED → TRANSCRIBING → RELEASED
//	    │           │
//	    └───────────┴──── Release() ──→ RELEASED
//
// Release is valid from any state and succeeds exactly once, so the file
// behind a chunk is deleted exactly once on every path.
type Lifecycle struct {
	mu    sync.RWMutex
	id    string
	path  string
	state State
}

// NewLifecycle creates a new chunk lifecycle in RECORDING state.
func NewLifecycle(id, path string) *Lifecycle {
	return &Lifecycle{
		id:    id,
		path:  path,
		state: StateRecording,
	}
}

// ID returns the chunk ID.
func (l *Lifecycle) ID() string {
	return l.id
}

// Path returns the chunk file path.
func (l *Lifecycle) Path() string {
	return l.path
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsReleased returns true once the chunk file has been released.
func (l *Lifecycle) IsReleased() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.IsTerminal()
}

// MarkRecorded transitions RECORDING → RECORDED.
func (l *Lifecycle) MarkRecorded() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateRecording:
		l.state = StateRecorded
		return nil
	case StateRecorded:
		return nil
	case StateTranscribing:
		return ErrAlreadyTranscribing
	case StateReleased:
		return ErrChunkReleased
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// MarkTranscribing transitions RECORDED → TRANSCRIBING.
func (l *Lifecycle) MarkTranscribing() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateRecorded:
		l.state = StateTranscribing
		return nil
	case StateRecording:
		return ErrNotRecorded
	case StateTranscribing:
		return ErrAlreadyTranscribing
	case StateReleased:
		return ErrChunkReleased
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// Release transitions the chunk to RELEASED.
// Returns true if this call performed the transition, false if already released.
func (l *Lifecycle) Release() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateReleased
	return true
}
