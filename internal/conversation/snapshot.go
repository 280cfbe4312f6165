package conversation

import (
	"encoding/json"

	"github.com/tottenjordan/zghost/internal/domain"
)

// Snapshot is a copy of the conversation state for rendering or transport.
type Snapshot struct {
	Session       domain.Session                    `json:"session"`
	Messages      []domain.Message                  `json:"messages"`
	Timelines     map[string][]domain.TimelineEvent `json:"timelines"`
	SourceCount   int                               `json:"source_count"`
	GoogleTrends  []domain.Trend                    `json:"google_trends,omitempty"`
	YouTubeTrends []domain.Trend                    `json:"youtube_trends,omitempty"`
	CampaignData  json.RawMessage                   `json:"campaign_data,omitempty"`

	SelectedGoogleTrend  string `json:"selected_google_trend,omitempty"`
	SelectedYouTubeTrend string `json:"selected_youtube_trend,omitempty"`
	TrendSelectorVisible bool   `json:"trend_selector_visible"`

	DisplayData string `json:"display_data,omitempty"`
}

// Snapshot returns a deep-enough copy of the state: messages are copied by
// value, timeline slices are cloned, so the caller can serialize it without
// racing later folds.
func (c *Conversation) Snapshot() Snapshot {
	snap := Snapshot{
		Session:              c.session,
		Messages:             make([]domain.Message, 0, len(c.messages)),
		Timelines:            make(map[string][]domain.TimelineEvent, len(c.timelines)),
		SourceCount:          c.sourceCount,
		GoogleTrends:         c.googleTrends,
		YouTubeTrends:        c.youtubeTrends,
		CampaignData:         c.campaignData,
		SelectedGoogleTrend:  c.selectedGoogle,
		SelectedYouTubeTrend: c.selectedYouTube,
		TrendSelectorVisible: !c.selectorHidden,
		DisplayData:          c.displayData,
	}
	for _, msg := range c.messages {
		m := *msg
		m.Artifacts = append([]domain.Artifact(nil), msg.Artifacts...)
		snap.Messages = append(snap.Messages, m)
	}
	for id, events := range c.timelines {
		snap.Timelines[id] = append([]domain.TimelineEvent(nil), events...)
	}
	return snap
}

// Messages returns the ordered transcript.
func (c *Conversation) Messages() []*domain.Message { return c.messages }

// Timeline returns the ordered timeline for a message id.
func (c *Conversation) Timeline(messageID string) []domain.TimelineEvent {
	return c.timelines[messageID]
}

// SourceCount returns the highest single-event source count observed.
func (c *Conversation) SourceCount() int { return c.sourceCount }

// GoogleTrends returns the most recently received google trend list.
func (c *Conversation) GoogleTrends() []domain.Trend { return c.googleTrends }

// YouTubeTrends returns the most recently received youtube trend list.
func (c *Conversation) YouTubeTrends() []domain.Trend { return c.youtubeTrends }

// CampaignData returns the most recently received campaign guide payload.
func (c *Conversation) CampaignData() json.RawMessage { return c.campaignData }

// DisplayData returns the page-level latest display value.
func (c *Conversation) DisplayData() string { return c.displayData }

// StorageHints returns the backend-reported GCS bucket and folder.
func (c *Conversation) StorageHints() (bucket, folder string) {
	return c.gcsBucket, c.gcsFolder
}
