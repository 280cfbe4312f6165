// Package domain defines the core domain models for the console.
package domain

import (
	"encoding/json"
)

// MessageKind identifies the author of a chat message.
type MessageKind string

const (
	MessageKindHuman  MessageKind = "human"
	MessageKindAI     MessageKind = "ai"
	MessageKindSystem MessageKind = "system"
)

// ArtifactKind identifies the media type of a generated artifact.
type ArtifactKind string

const (
	ArtifactKindImage ArtifactKind = "image"
	ArtifactKindVideo ArtifactKind = "video"
	ArtifactKindPDF   ArtifactKind = "pdf"
)

// TrendKind identifies the origin of a trend list.
type TrendKind string

const (
	TrendKindGoogle  TrendKind = "google"
	TrendKindYouTube TrendKind = "youtube"
)

// Session identifies one conversation against the backend.
type Session struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	AppName   string `json:"app_name"`
}

// Complete reports whether all three identity fields are known.
func (s Session) Complete() bool {
	return s.UserID != "" && s.SessionID != "" && s.AppName != ""
}

// SessionSummary is a lightweight entry for the session picker.
type SessionSummary struct {
	ID             string `json:"id"`
	LastUpdateTime int64  `json:"last_update_time,omitempty"`
	EventCount     int    `json:"event_count"`
}

// Artifact references a generated media object retrievable out-of-band.
type Artifact struct {
	Key  string       `json:"key"`
	Kind ArtifactKind `json:"type"`
	URL  string       `json:"url,omitempty"`
}

// Message is one chat turn in the transcript. Content is mutable for ai
// messages while events for the owning submission are folded in.
type Message struct {
	ID          string      `json:"id"`
	Kind        MessageKind `json:"type"`
	Content     string      `json:"content"`
	Agent       string      `json:"agent,omitempty"`
	FinalReport bool        `json:"final_report,omitempty"`
	PDFData     string      `json:"pdf_data,omitempty"`
	Artifacts   []Artifact  `json:"artifacts,omitempty"`
}

// Trend is one candidate topic offered for selection. Google trends carry a
// name, YouTube trends a title; the full payload is kept for display.
type Trend struct {
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON keeps the raw payload alongside the known label fields.
func (t *Trend) UnmarshalJSON(data []byte) error {
	type alias struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	t.Name = a.Name
	t.Title = a.Title
	t.raw = append(t.raw[:0], data...)
	return nil
}

// MarshalJSON round-trips the original payload when available.
func (t Trend) MarshalJSON() ([]byte, error) {
	if len(t.raw) > 0 {
		return t.raw, nil
	}
	type alias struct {
		Name  string `json:"name,omitempty"`
		Title string `json:"title,omitempty"`
	}
	return json.Marshal(alias{Name: t.Name, Title: t.Title})
}

// Label returns the display label for the trend.
func (t Trend) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Title
}
