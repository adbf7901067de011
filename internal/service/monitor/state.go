package monitor

import (
	"fmt"
	"time"
)

// Phase is the monitor's position in its enable/disable cycle.
type Phase int

const (
	// PhaseDisabled means nothing is recording.
	PhaseDisabled Phase = iota
	// PhaseStarting means permissions have been requested and not yet answered.
	PhaseStarting
	// PhaseRunning means chunks are being recorded and evaluated.
	PhaseRunning
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseDisabled:
		return "DISABLED"
	case PhaseStarting:
		return "STARTING"
	case PhaseRunning:
		return "RUNNING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", p)
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a snapshot of the monitor. Reason is only set when Verdict is
// false. Empty strings stand for absent values.
type State struct {
	Phase          Phase      `json:"phase"`
	Enabled        bool       `json:"enabled"`
	Session        uint64     `json:"session"`
	LiveText       string     `json:"liveText"`
	Verdict        *bool      `json:"toneVerdict"`
	Reason         string     `json:"disagreeableReason,omitempty"`
	StatusMessage  string     `json:"statusMessage,omitempty"`
	LastNotifiedAt *time.Time `json:"lastNotifiedAt,omitempty"`
}

// clone returns a copy that shares no pointers with s.
func (s State) clone() State {
	c := s
	if s.Verdict != nil {
		v := *s.Verdict
		c.Verdict = &v
	}
	if s.LastNotifiedAt != nil {
		t := *s.LastNotifiedAt
		c.LastNotifiedAt = &t
	}
	return c
}

// setVerdict records a classification outcome, keeping Reason consistent
// with Verdict.
func (s *State) setVerdict(verdict *bool, reason string) {
	s.Verdict = verdict
	if verdict == nil || *verdict {
		s.Reason = ""
		return
	}
	s.Reason = reason
}
