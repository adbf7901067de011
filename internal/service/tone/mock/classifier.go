// Package mock provides a keyword-driven tone classifier for running the
// pipeline without a language model.
package mock

import (
	"context"
	"strings"

	"tone-monitor-service/internal/service/tone"
)

// DefaultMarkers maps lowercase phrases to the reason given when they appear.
var DefaultMarkers = map[string]string{
	"unacceptable": "confrontational phrasing",
	"fix it now":   "demanding and impatient",
	"whatever":     "dismissive of the other person",
	"ridiculous":   "belittling language",
	"shut up":      "hostile and aggressive",
	"waiting for":  "impatient tone",
}

// Classifier implements tone.Classifier by scanning for marker phrases. Its
// replies go through the same parser as a real model.
type Classifier struct {
	markers map[string]string
}

// New creates a mock classifier using DefaultMarkers.
func New() *Classifier {
	return &Classifier{markers: DefaultMarkers}
}

// NewWithMarkers creates a mock classifier with custom markers.
func NewWithMarkers(markers map[string]string) *Classifier {
	return &Classifier{markers: markers}
}

// Availability always reports the mock as available.
func (c *Classifier) Availability(context.Context) tone.Availability {
	return tone.Available
}

// Classify answers "No — <reason>" when a marker is present and "Yes" otherwise.
func (c *Classifier) Classify(ctx context.Context, text, _ string) (tone.Result, error) {
	if err := ctx.Err(); err != nil {
		return tone.Result{}, err
	}
	return tone.ParseReply(c.reply(text))
}

func (c *Classifier) reply(text string) string {
	lower := strings.ToLower(text)
	var (
		matched string
		reason  string
	)
	for marker, r := range c.markers {
		// Longest marker wins so the result does not depend on map order.
		if strings.Contains(lower, marker) && len(marker) > len(matched) {
			matched, reason = marker, r
		}
	}
	if matched == "" {
		return "Yes"
	}
	return "No — " + reason
}
