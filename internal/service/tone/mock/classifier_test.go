package mock

import (
	"context"
	"testing"

	"tone-monitor-service/internal/service/tone"
)

func TestClassifier_Classify(t *testing.T) {
	c := New()

	tests := []struct {
		text      string
		agreeable bool
		reason    string
	}{
		{"You did a great job", true, ""},
		{"This is unacceptable, fix it now", false, "confrontational phrasing"},
		{"Whatever, do what you want", false, "dismissive of the other person"},
		{"", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, err := c.Classify(context.Background(), tt.text, tone.DefaultQuestion)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Agreeable != tt.agreeable {
				t.Errorf("expected agreeable=%v, got %v", tt.agreeable, res.Agreeable)
			}
			if res.Reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, res.Reason)
			}
		})
	}
}

func TestClassifier_CustomMarkers(t *testing.T) {
	c := NewWithMarkers(map[string]string{"nope": "curt"})

	res, err := c.Classify(context.Background(), "Nope.", "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Agreeable || res.Reason != "curt" {
		t.Errorf("expected {false curt}, got %+v", res)
	}
}

func TestClassifier_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().Classify(ctx, "hello", "q"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestClassifier_Availability(t *testing.T) {
	if New().Availability(context.Background()) != tone.Available {
		t.Error("expected mock classifier to be available")
	}
}
