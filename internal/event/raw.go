// Package event parses raw backend agent events into normalized records.
//
// The event shape is owned by the backend, not this repository. Decoding is
// done through closed struct types: known fields are typed, unknown fields
// are ignored, and nothing outside this package touches the wire shape.
package event

import (
	"encoding/json"

	"github.com/tottenjordan/zghost/internal/domain"
)

// Raw is one backend event as returned by POST /api/run.
type Raw struct {
	Content       *Content        `json:"content,omitempty"`
	Author        string          `json:"author,omitempty"`
	Actions       *Actions        `json:"actions,omitempty"`
	UsageMetadata json.RawMessage `json:"usageMetadata,omitempty"`
}

// Content holds the ordered message parts of an event.
type Content struct {
	Parts []Part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

// Part is one content part. Exactly one of the fields is populated per part;
// parts with none of the known fields are ignored.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
	InlineData       *InlineData       `json:"inlineData,omitempty"`
}

// FunctionCall describes a tool invocation issued by an agent.
type FunctionCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// FunctionResponse carries the result of a tool invocation.
type FunctionResponse struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response,omitempty"`
}

// InlineData is an inline binary payload (base64, no data-URL header).
type InlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// Actions wraps the session state delta attached to an event.
type Actions struct {
	StateDelta *StateDelta `json:"stateDelta,omitempty"`
}

// StateDelta enumerates the known session state keys. Keys not listed here
// are dropped on decode.
type StateDelta struct {
	ResearchPlan      json.RawMessage            `json:"research_plan,omitempty"`
	FinalReport       json.RawMessage            `json:"final_report,omitempty"`
	GoogleTrends      []domain.Trend             `json:"google_trends,omitempty"`
	YouTubeTrends     []domain.Trend             `json:"youtube_trends,omitempty"`
	CampaignGuideData json.RawMessage            `json:"campaign_guide_data,omitempty"`
	URLToShortID      map[string]json.RawMessage `json:"url_to_short_id,omitempty"`
	Sources           json.RawMessage            `json:"sources,omitempty"`
	GCSFolder         string                     `json:"gcs_folder,omitempty"`
	GCSBucket         string                     `json:"gcs_bucket,omitempty"`
	ImgArtifactKeys   *imgKeyEnvelope            `json:"img_artifact_keys,omitempty"`
	VidArtifactKeys   *vidKeyEnvelope            `json:"vid_artifact_keys,omitempty"`
	PDFArtifactKeys   *pdfKeyEnvelope            `json:"pdf_artifact_keys,omitempty"`

	// Deprecated: legacy singular report key, kept as a migration shim for
	// backends that predate pdf_artifact_keys.
	ReportArtifactKey string `json:"report_artifact_key,omitempty"`
}

// The backend nests each artifact key list inside an envelope object that
// repeats the outer key name.
type imgKeyEnvelope struct {
	Keys []artifactKeyRef `json:"img_artifact_keys"`
}

type vidKeyEnvelope struct {
	Keys []artifactKeyRef `json:"vid_artifact_keys"`
}

type pdfKeyEnvelope struct {
	Keys []artifactKeyRef `json:"pdf_artifact_keys"`
}

type artifactKeyRef struct {
	ArtifactKey string `json:"artifact_key"`
}
