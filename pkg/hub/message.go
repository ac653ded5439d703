// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
//
// The dance service uses it to stream generation progress: every job
// publishes an Event per pipeline stage and all connected clients receive it.
package hub

import (
	"encoding/json"
	"time"
)

// Stage is a step of the generation pipeline.
type Stage string

// Pipeline stages in order; a job ends in StageDone or StageFailed.
const (
	StageAnalyzing  Stage = "analyzing"
	StageGenerating Stage = "generating"
	StageRendering  Stage = "rendering"
	StageMuxing     Stage = "muxing"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Event is one progress update.
type Event struct {
	Job      string    `json:"job"`
	Stage    Stage     `json:"stage"`
	Message  string    `json:"message,omitempty"`
	Progress float64   `json:"progress,omitempty"` // 0..1 within the stage
	Time     time.Time `json:"time"`
}

// Message is a pre-encoded text frame.
type Message struct {
	Data []byte
}

// NewJSONMessage encodes v.
func NewJSONMessage(v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}
