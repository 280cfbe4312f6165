package event

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/tottenjordan/zghost/internal/domain"
)

// Agents whose url_to_short_id deltas count as retrieved sources.
var sourceCountAgents = map[string]bool{
	"combined_research_merger":   true,
	"enhanced_combined_searcher": true,
}

// TrendUpdate is a wholesale replacement of one trend list.
type TrendUpdate struct {
	Kind domain.TrendKind `json:"type"`
	Data []domain.Trend   `json:"data"`
}

// Extraction is the normalized record produced from one raw event. Every
// field is independently optional; the zero value means the event carried
// nothing of interest.
type Extraction struct {
	TextParts         []string
	Agent             string
	Activity          string
	FinalReport       string
	FunctionCall      *FunctionCall
	FunctionResponse  *FunctionResponse
	SourceCount       int
	Sources           json.RawMessage
	Trends            *TrendUpdate
	CampaignGuideData json.RawMessage
	Artifacts         []domain.Artifact
	GCSFolder         string
	GCSBucket         string
}

// Extract parses one raw backend event into a normalized record. Malformed
// input yields an empty record and a log line; it never returns an error.
func Extract(data []byte) Extraction {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("event: dropping unparseable event: %v (raw: %s)", err, truncate(data, 200))
		return Extraction{}
	}

	var ex Extraction
	ex.Agent = raw.Author

	if raw.Content != nil {
		for _, part := range raw.Content.Parts {
			if part.Text != "" {
				ex.TextParts = append(ex.TextParts, part.Text)
			}
			if part.FunctionCall != nil && ex.FunctionCall == nil {
				ex.FunctionCall = part.FunctionCall
			}
			if part.FunctionResponse != nil && ex.FunctionResponse == nil {
				ex.FunctionResponse = part.FunctionResponse
			}
		}
	}

	if ex.FunctionCall != nil {
		ex.Activity = activityLabel(ex.FunctionCall)
	}

	if raw.Actions != nil && raw.Actions.StateDelta != nil {
		delta := raw.Actions.StateDelta

		ex.FinalReport = rawToText(delta.FinalReport)

		if delta.GoogleTrends != nil {
			ex.Trends = &TrendUpdate{Kind: domain.TrendKindGoogle, Data: delta.GoogleTrends}
		}
		// Checked second: a youtube list in the same event wins.
		if delta.YouTubeTrends != nil {
			ex.Trends = &TrendUpdate{Kind: domain.TrendKindYouTube, Data: delta.YouTubeTrends}
		}

		if present(delta.CampaignGuideData) {
			ex.CampaignGuideData = delta.CampaignGuideData
		}

		ex.GCSFolder = delta.GCSFolder
		ex.GCSBucket = delta.GCSBucket

		if delta.ImgArtifactKeys != nil {
			for _, ref := range delta.ImgArtifactKeys.Keys {
				ex.Artifacts = append(ex.Artifacts, domain.Artifact{Key: ref.ArtifactKey, Kind: domain.ArtifactKindImage})
			}
		}
		if delta.VidArtifactKeys != nil {
			for _, ref := range delta.VidArtifactKeys.Keys {
				ex.Artifacts = append(ex.Artifacts, domain.Artifact{Key: ref.ArtifactKey, Kind: domain.ArtifactKindVideo})
			}
		}
		if delta.PDFArtifactKeys != nil {
			for _, ref := range delta.PDFArtifactKeys.Keys {
				ex.Artifacts = append(ex.Artifacts, domain.Artifact{Key: ref.ArtifactKey, Kind: domain.ArtifactKindPDF})
			}
		}
		if delta.ReportArtifactKey != "" {
			ex.Artifacts = append(ex.Artifacts, domain.Artifact{Key: delta.ReportArtifactKey, Kind: domain.ArtifactKindPDF})
		}

		if sourceCountAgents[raw.Author] {
			ex.SourceCount = len(delta.URLToShortID)
		}

		if present(delta.Sources) {
			ex.Sources = delta.Sources
		}
	}

	return ex
}

// activityLabel maps a function call to a human-readable activity phrase.
func activityLabel(call *FunctionCall) string {
	switch call.Name {
	case "search_web", "web_search":
		query := "information"
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(call.Args, &args); err == nil && args.Query != "" {
			query = args.Query
		}
		return fmt.Sprintf("Searching for %s", query)
	case "generate_image":
		return "Generating image"
	case "generate_video":
		return "Creating video"
	case "save_img_artifact_key":
		return "Saving image"
	case "save_vid_artifact_key":
		return "Saving video"
	case "save_yt_trends_to_session_state":
		return "Saving YouTube trends to session state"
	case "save_search_trends_to_session_state":
		return "Saving search trends to session state"
	case "ad_creative_pipeline":
		return "Crafting ad copy"
	case "visual_generation_pipeline":
		return "Designing visual concepts"
	default:
		return strings.ReplaceAll(call.Name, "_", " ")
	}
}

// rawToText renders a state delta value as report text. The backend sends
// final_report as a string; anything else non-null is kept verbatim.
func rawToText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" || text == "false" {
		return ""
	}
	return text
}

// present reports whether a state delta value carries a payload. An
// explicit JSON null does not count.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && strings.TrimSpace(string(raw)) != "null"
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
