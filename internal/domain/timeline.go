package domain

import "encoding/json"

// TimelineType tags the payload of a timeline event.
type TimelineType string

const (
	TimelineFunctionCall     TimelineType = "functionCall"
	TimelineFunctionResponse TimelineType = "functionResponse"
	TimelineAgentActivity    TimelineType = "agentActivity"
	TimelineText             TimelineType = "text"
	TimelineSources          TimelineType = "sources"
	TimelineArtifact         TimelineType = "artifact"
)

// TimelineEvent records one observable sub-step of processing an ai message.
// Events are keyed by message id, append-only and insertion-ordered.
type TimelineEvent struct {
	Title string       `json:"title"`
	Type  TimelineType `json:"type"`

	// Function call / response payload
	Name     string          `json:"name,omitempty"`
	Args     json.RawMessage `json:"args,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	CallID   string          `json:"call_id,omitempty"`

	// Agent activity payload
	Agent     string `json:"agent,omitempty"`
	Activity  string `json:"activity,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`

	// Text payload
	Content string `json:"content,omitempty"`

	// Sources payload (opaque, backend-owned shape)
	Sources json.RawMessage `json:"sources,omitempty"`

	// Artifact payload
	Artifact *Artifact `json:"artifact,omitempty"`
}
