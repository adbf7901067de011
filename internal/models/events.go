// Package models defines the data structures for tone events.
package models

// Event type values carried in the eventType field.
const (
	EventTypeVerdict = "tone.verdict"
	EventTypeAlert   = "tone.alert"
)

// ToneVerdict is emitted for every successful classification of a chunk.
type ToneVerdict struct {
	EventType string `json:"eventType"`
	Principal string `json:"principal"`
	Session   uint64 `json:"session"`
	ChunkID   string `json:"chunkId"`
	Timestamp int64  `json:"timestamp"`
	Text      string `json:"text"`
	Agreeable bool   `json:"agreeable"`
	Reason    string `json:"reason,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// ToneAlert is emitted when a disagreeable-tone notification is dispatched.
type ToneAlert struct {
	EventType string `json:"eventType"`
	Principal string `json:"principal"`
	Session   uint64 `json:"session"`
	ChunkID   string `json:"chunkId"`
	Timestamp int64  `json:"timestamp"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Reason    string `json:"reason,omitempty"`
}
