// Package conversation folds normalized backend events into chat state: the
// ordered transcript, per-message activity timelines, and session aggregates.
package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tottenjordan/zghost/internal/domain"
	"github.com/tottenjordan/zghost/internal/event"
)

// ArtifactURLFunc computes the retrieval URL for an artifact key once the
// session identity is fully known.
type ArtifactURLFunc func(session domain.Session, key string) string

// Turn carries the mutable cursors for one submission. Each submission gets
// a fresh Turn so concurrent or stale responses cannot interfere with the
// transcript of a later one.
type Turn struct {
	MessageID string

	agent       string
	activity    string
	accumulated string
	reportDone  bool
}

// Agent returns the turn's current agent cursor.
func (t *Turn) Agent() string { return t.agent }

// AccumulatedText returns the text accumulated so far for the turn.
func (t *Turn) AccumulatedText() string { return strings.TrimSpace(t.accumulated) }

// Conversation is the reducer state for one active conversation. It is not
// safe for concurrent use; callers serialize access.
type Conversation struct {
	session     domain.Session
	artifactURL ArtifactURLFunc

	messages  []*domain.Message
	index     map[string]*domain.Message
	timelines map[string][]domain.TimelineEvent

	sourceCount   int
	googleTrends  []domain.Trend
	youtubeTrends []domain.Trend
	campaignData  json.RawMessage

	selectedGoogle  string
	selectedYouTube string
	selectorHidden  bool

	displayData string

	// Session-scoped storage hints reported by the backend, used by artifact
	// resolution. Last writer wins.
	gcsBucket string
	gcsFolder string
}

// New creates an empty conversation bound to a session identity.
func New(session domain.Session, artifactURL ArtifactURLFunc) *Conversation {
	return &Conversation{
		session:     session,
		artifactURL: artifactURL,
		index:       make(map[string]*domain.Message),
		timelines:   make(map[string][]domain.TimelineEvent),
	}
}

// Session returns the current session identity.
func (c *Conversation) Session() domain.Session { return c.session }

// SetSession replaces the session identity without touching the transcript.
// Used after a lazy session creation confirms the server-side identity.
func (c *Conversation) SetSession(session domain.Session) { c.session = session }

// Reset clears the transcript and all aggregates. The session identity is
// kept; Switch replaces it as well.
func (c *Conversation) Reset() {
	c.messages = nil
	c.index = make(map[string]*domain.Message)
	c.timelines = make(map[string][]domain.TimelineEvent)
	c.sourceCount = 0
	c.googleTrends = nil
	c.youtubeTrends = nil
	c.campaignData = nil
	c.selectedGoogle = ""
	c.selectedYouTube = ""
	c.selectorHidden = false
	c.displayData = ""
	c.gcsBucket = ""
	c.gcsFolder = ""
}

// Switch resets all state and rebinds the conversation to a new session id.
func (c *Conversation) Switch(sessionID string) {
	c.Reset()
	c.session.SessionID = sessionID
}

// NewID returns an opaque, unique, creation-ordered message id.
func NewID() string {
	return ulid.Make().String()
}

// AppendHuman appends a human message and returns it.
func (c *Conversation) AppendHuman(content, pdfData string) *domain.Message {
	msg := &domain.Message{
		ID:      NewID(),
		Kind:    domain.MessageKindHuman,
		Content: content,
		PDFData: pdfData,
	}
	c.append(msg)
	return msg
}

// AppendSystem appends a system notice to the transcript.
func (c *Conversation) AppendSystem(content string) *domain.Message {
	msg := &domain.Message{
		ID:      NewID(),
		Kind:    domain.MessageKindSystem,
		Content: content,
	}
	c.append(msg)
	return msg
}

// BeginTurn appends the placeholder ai message for a new submission and
// returns the turn that Apply folds events into.
func (c *Conversation) BeginTurn() *Turn {
	msg := &domain.Message{
		ID:      NewID(),
		Kind:    domain.MessageKindAI,
		Content: "Processing your request...",
	}
	c.append(msg)
	return &Turn{MessageID: msg.ID}
}

// AppendError appends the user-visible failure message for a submission.
func (c *Conversation) AppendError(err error) *domain.Message {
	msg := &domain.Message{
		ID:      NewID(),
		Kind:    domain.MessageKindAI,
		Content: fmt.Sprintf("Sorry, there was an error processing your request: %v", err),
	}
	c.append(msg)
	return msg
}

func (c *Conversation) append(msg *domain.Message) {
	c.messages = append(c.messages, msg)
	c.index[msg.ID] = msg
}

func (c *Conversation) appendTimeline(messageID string, ev domain.TimelineEvent) {
	c.timelines[messageID] = append(c.timelines[messageID], ev)
}

// Apply folds one normalized event into the conversation. Events of a
// submission must be applied strictly in arrival order: later rules read
// cursors written by earlier ones within the same event.
func (c *Conversation) Apply(t *Turn, ex event.Extraction) {
	// 1. Source count is the max observed, never a sum.
	if ex.SourceCount > c.sourceCount {
		c.sourceCount = ex.SourceCount
	}

	// 2. Advance the turn cursors. The changed flag is computed against the
	// cursor's previous value before it is overwritten.
	agentChanged := ex.Agent != "" && ex.Agent != t.agent
	if agentChanged {
		t.agent = ex.Agent
	}
	if ex.Activity != "" {
		t.activity = ex.Activity
	}

	// 3. Trend lists and campaign data are replaced wholesale.
	if ex.Trends != nil {
		switch ex.Trends.Kind {
		case domain.TrendKindGoogle:
			c.googleTrends = ex.Trends.Data
		case domain.TrendKindYouTube:
			c.youtubeTrends = ex.Trends.Data
		}
	}
	if len(ex.CampaignGuideData) > 0 {
		c.campaignData = ex.CampaignGuideData
	}
	if ex.GCSBucket != "" {
		c.gcsBucket = ex.GCSBucket
	}
	if ex.GCSFolder != "" {
		c.gcsFolder = ex.GCSFolder
	}

	// 4. Function calls and responses always land on the timeline; any call
	// or activity also records a generic agent activity entry.
	if ex.FunctionCall != nil {
		c.appendTimeline(t.MessageID, domain.TimelineEvent{
			Title:  "Function Call: " + ex.FunctionCall.Name,
			Type:   domain.TimelineFunctionCall,
			Name:   ex.FunctionCall.Name,
			Args:   ex.FunctionCall.Args,
			CallID: ex.FunctionCall.ID,
		})
	}
	if ex.FunctionResponse != nil {
		c.appendTimeline(t.MessageID, domain.TimelineEvent{
			Title:    "Function Response: " + ex.FunctionResponse.Name,
			Type:     domain.TimelineFunctionResponse,
			Name:     ex.FunctionResponse.Name,
			Response: ex.FunctionResponse.Response,
			CallID:   ex.FunctionResponse.ID,
		})
	}
	if ex.Agent != "" && (ex.FunctionCall != nil || ex.Activity != "") {
		activity := ex.Activity
		if activity == "" && ex.FunctionCall != nil {
			activity = ex.FunctionCall.Name
		}
		if activity == "" {
			activity = "Processing"
		}
		c.appendTimeline(t.MessageID, domain.TimelineEvent{
			Title:     timelineTitle(ex.Agent),
			Type:      domain.TimelineAgentActivity,
			Agent:     ex.Agent,
			Activity:  activity,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	msg := c.index[t.MessageID]

	// 5. Reflect the owning agent on the message. Placeholder text never
	// overwrites accumulated real text.
	if msg != nil {
		if agentChanged {
			content := strings.TrimSpace(t.accumulated)
			if content == "" {
				content = processingMessage(ex.Agent, t.activity)
			}
			msg.Agent = ex.Agent
			msg.Content = content
		} else if ex.Activity != "" && t.accumulated == "" {
			agent := t.agent
			if agent == "" {
				agent = ex.Agent
			}
			msg.Content = processingMessage(agent, ex.Activity)
		}
	}

	// 6. Accumulate text fragments; the report generator's narration is
	// excluded because its output arrives as a dedicated final report.
	if len(ex.TextParts) > 0 && ex.Agent != agentReportGenerator {
		for _, text := range ex.TextParts {
			t.accumulated += text + " "
			if msg != nil {
				msg.Content = strings.TrimSpace(t.accumulated)
				if t.agent != "" {
					msg.Agent = t.agent
				}
			}
			c.displayData = strings.TrimSpace(t.accumulated)
		}
		if ex.Agent != agentRootOrchestrator {
			c.appendTimeline(t.MessageID, domain.TimelineEvent{
				Title:   timelineTitle(ex.Agent),
				Type:    domain.TimelineText,
				Content: strings.Join(ex.TextParts, " "),
			})
		}
	} else if ex.Agent != "" && len(ex.TextParts) == 0 && msg != nil {
		// 7. An agent with no text refreshes the placeholder; not an error.
		content := strings.TrimSpace(t.accumulated)
		if content == "" {
			activity := ex.Activity
			if activity == "" {
				activity = t.activity
			}
			content = processingMessage(ex.Agent, activity)
		}
		msg.Agent = ex.Agent
		msg.Content = content
	}

	// 8. Retrieved sources.
	if len(ex.Sources) > 0 {
		c.appendTimeline(t.MessageID, domain.TimelineEvent{
			Title:   "Retrieved Sources",
			Type:    domain.TimelineSources,
			Sources: ex.Sources,
		})
	}

	// 9. The final report is a brand-new message, appended at most once per
	// submission.
	if ex.Agent == agentReportGenerator && ex.FinalReport != "" && !t.reportDone {
		t.reportDone = true
		report := &domain.Message{
			ID:          NewID(),
			Kind:        domain.MessageKindAI,
			Content:     ex.FinalReport,
			Agent:       t.agent,
			FinalReport: true,
		}
		c.append(report)
		c.displayData = ex.FinalReport
	}

	// 10. Artifacts need the full session identity for URL construction.
	if len(ex.Artifacts) > 0 && c.session.Complete() && msg != nil {
		for _, a := range ex.Artifacts {
			if c.artifactURL != nil {
				a.URL = c.artifactURL(c.session, a.Key)
			}
			msg.Artifacts = append(msg.Artifacts, a)
			c.appendTimeline(t.MessageID, domain.TimelineEvent{
				Title:    artifactTitle(a.Kind),
				Type:     domain.TimelineArtifact,
				Artifact: &domain.Artifact{Key: a.Key, Kind: a.Kind, URL: a.URL},
			})
		}
	}
}

func artifactTitle(kind domain.ArtifactKind) string {
	switch kind {
	case domain.ArtifactKindImage:
		return "Generated Image"
	case domain.ArtifactKindVideo:
		return "Generated Video"
	default:
		return "PDF Report"
	}
}
