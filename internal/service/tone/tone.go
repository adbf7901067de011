// Package tone defines the tone classifier contract, its reply grammar and
// the unavailability taxonomy surfaced to the user.
package tone

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultQuestion is asked about every transcript unless the user overrides it.
const DefaultQuestion = "Is the following text agreeable in tone? Consider politeness, empathy, " +
	"non-aggressiveness and non-confrontational tone. Consider the context of a work environment, " +
	"bringing up potential issues is ok, but the tone should not be dismissive or confrontational, " +
	"but rather constructive and respectful."

// Result is the verdict for one transcript. Reason is only set when the
// text is not agreeable, and may be empty even then.
type Result struct {
	Agreeable bool   `json:"agreeable"`
	Reason    string `json:"reason,omitempty"`
}

// Classifier answers a yes/no tone question about a piece of text.
type Classifier interface {
	Classify(ctx context.Context, text, question string) (Result, error)
}

// AvailabilityChecker is implemented by classifiers that can report whether
// they are able to run without classifying anything.
type AvailabilityChecker interface {
	Availability(ctx context.Context) Availability
}

// ErrClassifierUnavailable is matched by every classifier failure.
var ErrClassifierUnavailable = errors.New("tone classifier unavailable")

// ErrUnparseableResponse is returned when the model replies outside the
// Yes / No — reason grammar.
var ErrUnparseableResponse = fmt.Errorf("%w: unexpected model response", ErrClassifierUnavailable)

// Availability describes whether the classifier can run right now.
type Availability int

const (
	Available Availability = iota
	DeviceNotEligible
	FeatureDisabled
	ModelNotReady
)

// String returns the string representation of the availability.
func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case DeviceNotEligible:
		return "device_not_eligible"
	case FeatureDisabled:
		return "feature_disabled"
	case ModelNotReady:
		return "model_not_ready"
	default:
		return fmt.Sprintf("unknown(%d)", int(a))
	}
}

// Message is the human-readable text shown to the user for the reason.
func (a Availability) Message() string {
	switch a {
	case Available:
		return ""
	case DeviceNotEligible:
		return "Device not eligible for tone classification."
	case FeatureDisabled:
		return "Tone classifier not enabled in settings."
	case ModelNotReady:
		return "AI model not ready. Please try again later."
	default:
		return "Tone classifier is unavailable."
	}
}

// UnavailableError reports a classifier that cannot run.
type UnavailableError struct {
	Reason Availability
	Err    error
}

func (e *UnavailableError) Error() string {
	return e.Reason.Message()
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is makes every UnavailableError match ErrClassifierUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrClassifierUnavailable
}

// Unavailable builds an UnavailableError for reason, optionally wrapping cause.
func Unavailable(reason Availability, cause error) error {
	return &UnavailableError{Reason: reason, Err: cause}
}

// StatusMessage turns a classifier failure into the text surfaced to the user.
func StatusMessage(err error) string {
	if err == nil {
		return ""
	}
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	if errors.Is(err, ErrUnparseableResponse) {
		return "Language model returned an unexpected response."
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Tone classifier is unavailable."
}

// FailureReason returns a short label for metrics.
func FailureReason(err error) string {
	var ue *UnavailableError
	switch {
	case errors.As(err, &ue):
		return ue.Reason.String()
	case errors.Is(err, ErrUnparseableResponse):
		return "unparseable"
	default:
		return "error"
	}
}

// BuildPrompt renders the strict two-format classification prompt.
func BuildPrompt(text, question string) string {
	var b strings.Builder
	b.WriteString("You are a concise classifier. Respond in one of two formats only:\n")
	b.WriteString("1) Yes\n")
	b.WriteString("2) No — <one short sentence explaining why>\n")
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nText: ")
	b.WriteString(text)
	b.WriteString("\nAnswer:")
	return b.String()
}

// ParseReply interprets a model reply. "Yes…" is agreeable; "No…" is not,
// with the reason taken after the first of '—', '-' or ':' (or after the
// "no" itself when there is no separator). Anything else is an error.
func ParseReply(reply string) (Result, error) {
	trimmed := strings.TrimSpace(reply)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "yes"):
		return Result{Agreeable: true}, nil
	case strings.HasPrefix(lower, "no"):
		var reason string
		if i := strings.IndexAny(trimmed, "—-:"); i >= 0 {
			_, size := utf8.DecodeRuneInString(trimmed[i:])
			reason = trimmed[i+size:]
		} else {
			reason = trimmed[2:]
		}
		return Result{Agreeable: false, Reason: strings.TrimSpace(reason)}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnparseableResponse, trimmed)
	}
}
