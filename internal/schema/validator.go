// Package schema checks tone events before they are published.
package schema

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"tone-monitor-service/internal/models"
	"tone-monitor-service/internal/observability/logging"
)

// ErrInvalidEvent is returned for events missing required fields.
var ErrInvalidEvent = errors.New("invalid event")

// Validator enforces the required fields of the published event types.
type Validator struct {
	logger zerolog.Logger
}

// New creates a Validator.
func New() *Validator {
	return &Validator{logger: logging.WithComponent("schema")}
}

// Validate returns an ErrInvalidEvent-wrapping error when event is malformed.
// Unknown types are rejected.
func (v *Validator) Validate(event any) error {
	var err error
	switch ev := event.(type) {
	case models.ToneVerdict:
		err = validateVerdict(ev)
	case *models.ToneVerdict:
		err = validateVerdict(*ev)
	case models.ToneAlert:
		err = validateAlert(ev)
	case *models.ToneAlert:
		err = validateAlert(*ev)
	default:
		err = fmt.Errorf("%w: unsupported type %T", ErrInvalidEvent, event)
	}

	if err != nil {
		v.logger.Warn().Err(err).Msg("Event failed validation")
		return err
	}
	v.logger.Debug().Type("event", event).Msg("Event validated")
	return nil
}

func validateVerdict(ev models.ToneVerdict) error {
	if ev.EventType != models.EventTypeVerdict {
		return fmt.Errorf("%w: eventType %q", ErrInvalidEvent, ev.EventType)
	}
	if err := requireCommon(ev.ChunkID, ev.Timestamp); err != nil {
		return err
	}
	if ev.Agreeable && ev.Reason != "" {
		return fmt.Errorf("%w: reason set on agreeable verdict", ErrInvalidEvent)
	}
	return nil
}

func validateAlert(ev models.ToneAlert) error {
	if ev.EventType != models.EventTypeAlert {
		return fmt.Errorf("%w: eventType %q", ErrInvalidEvent, ev.EventType)
	}
	if err := requireCommon(ev.ChunkID, ev.Timestamp); err != nil {
		return err
	}
	if ev.Title == "" || ev.Body == "" {
		return fmt.Errorf("%w: title and body are required", ErrInvalidEvent)
	}
	return nil
}

func requireCommon(chunkID string, ts int64) error {
	if chunkID == "" {
		return fmt.Errorf("%w: chunkId is required", ErrInvalidEvent)
	}
	if ts <= 0 {
		return fmt.Errorf("%w: timestamp must be positive", ErrInvalidEvent)
	}
	return nil
}
