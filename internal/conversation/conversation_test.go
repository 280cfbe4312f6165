package conversation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tottenjordan/zghost/internal/domain"
	"github.com/tottenjordan/zghost/internal/event"
)

func newTestConversation() *Conversation {
	session := domain.Session{UserID: "u_999", SessionID: "s1", AppName: "trends_and_insights_agent"}
	return New(session, func(s domain.Session, key string) string {
		return "http://artifacts/" + s.SessionID + "/" + key
	})
}

func TestBeginTurnPlaceholder(t *testing.T) {
	c := newTestConversation()
	c.AppendHuman("hello", "")
	turn := c.BeginTurn()

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].ID != turn.MessageID {
		t.Fatalf("turn not bound to last message")
	}
	if msgs[1].Content != "Processing your request..." {
		t.Fatalf("unexpected placeholder: %q", msgs[1].Content)
	}
}

func TestApplyTextAccumulation(t *testing.T) {
	c := newTestConversation()
	c.AppendHuman("hi", "")
	turn := c.BeginTurn()

	c.Apply(turn, event.Extraction{Agent: "root_agent", TextParts: []string{"Hello!"}})
	c.Apply(turn, event.Extraction{Agent: "root_agent", TextParts: []string{"How can I help?"}})

	msg := c.Messages()[1]
	if msg.Content != "Hello! How can I help?" {
		t.Fatalf("unexpected content: %q", msg.Content)
	}
	if msg.Agent != "root_agent" {
		t.Fatalf("unexpected agent: %q", msg.Agent)
	}
	if c.DisplayData() != "Hello! How can I help?" {
		t.Fatalf("unexpected display data: %q", c.DisplayData())
	}
	// Root orchestrator text stays out of the timeline.
	if len(c.Timeline(turn.MessageID)) != 0 {
		t.Fatalf("unexpected timeline entries: %+v", c.Timeline(turn.MessageID))
	}
}

func TestApplyNonRootTextGoesToTimeline(t *testing.T) {
	c := newTestConversation()
	turn := c.BeginTurn()

	c.Apply(turn, event.Extraction{Agent: "combined_web_evaluator", TextParts: []string{"Looks good", "overall"}})

	timeline := c.Timeline(turn.MessageID)
	if len(timeline) != 1 {
		t.Fatalf("expected 1 timeline entry, got %d", len(timeline))
	}
	if timeline[0].Type != domain.TimelineText {
		t.Fatalf("unexpected type: %s", timeline[0].Type)
	}
	if timeline[0].Title != "Quality Check" {
		t.Fatalf("unexpected title: %q", timeline[0].Title)
	}
	if timeline[0].Content != "Looks good overall" {
		t.Fatalf("unexpected content: %q", timeline[0].Content)
	}
}

func TestApplyAgentWithoutTextUpdatesPlaceholder(t *testing.T) {
	c := newTestConversation()
	turn := c.BeginTurn()

	c.Apply(turn, event.Extraction{Agent: "yt_web_searcher"})

	msg := c.Messages()[0]
	if msg.Content != "Searching YouTube insights..." {
		t.Fatalf("unexpected content: %q", msg.Content)
	}

	// Later placeholder refreshes never clobber accumulated text.
	c.Apply(turn, event.Extraction{Agent: "yt_web_searcher", TextParts: []string{"found it"}})
	c.Apply(turn, event.Extraction{Agent: "gs_web_searcher"})
	if msg.Content != "found it" {
		t.Fatalf("placeholder overwrote real text: %q", msg.Content)
	}
}

func TestApplyActivityPlaceholder(t *testing.T) {
	c := newTestConversation()
	turn := c.BeginTurn()

	call := &event.FunctionCall{Name: "search_web", Args: json.RawMessage(`{"query":"summer drinks"}`)}
	c.Apply(turn, event.Extraction{Agent: "yt_web_searcher", FunctionCall: call, Activity: "Searching for summer drinks"})

	msg := c.Messages()[0]
	if msg.Content != "Searching YouTube insights - Searching for summer drinks" {
		t.Fatalf("unexpected content: %q", msg.Content)
	}

	timeline := c.Timeline(turn.MessageID)
	if len(timeline) != 2 {
		t.Fatalf("expected call + activity entries, got %d", len(timeline))
	}
	if timeline[0].Title != "Function Call: search_web" || timeline[0].Type != domain.TimelineFunctionCall {
		t.Fatalf("unexpected call entry: %+v", timeline[0])
	}
	if timeline[1].Type != domain.TimelineAgentActivity || timeline[1].Activity != "Searching for summer drinks" {
		t.Fatalf("unexpected activity entry: %+v", timeline[1])
	}
}

func TestApplySourceCountIsMonotonicMax(t *testing.T) {
	c := newTestConversation()
	turn := c.BeginTurn()

	for _, n := range []int{3, 7, 5} {
		c.Apply(turn, event.Extraction{Agent: "combined_research_merger", SourceCount: n})
	}
	if c.SourceCount() != 7 {
		t.Fatalf("expected max 7, got %d", c.SourceCount())
	}
}

func TestApplyTrendsReplacedWholesale(t *testing.T) {
	c := newTestConversation()
	turn := c.BeginTurn()

	first := []domain.Trend{{Name: "a"}, {Name: "b"}}
	second := []domain.Trend{{Name: "c"}}
	c.Apply(turn, event.Extraction{Trends: &event.TrendUpdate{Kind: domain.TrendKindGoogle, Data: first}})
	c.Apply(turn, event.Extraction{Trends: &event.TrendUpdate{Kind: domain.TrendKindGoogle, Data: second}})

	if len(c.GoogleTrends()) != 1 || c.GoogleTrends()[0].Name != "c" {
		t.Fatalf("unexpected trends: %+v", c.GoogleTrends())
	}
}

func TestApplyFinalReportAppendsOnce(t *testing.T) {
	c := newTestConversation()
	c.AppendHuman("make a report", "")
	turn := c.BeginTurn()

	report := strings.Repeat("Insightful findings. ", 3)
	c.Apply(turn, event.Extraction{Agent: "report_generator_agent", FinalReport: report})
	c.Apply(turn, event.Extraction{Agent: "report_generator_agent", FinalReport: "duplicate"})

	msgs := c.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	final := msgs[2]
	if !final.FinalReport {
		t.Fatalf("final report flag not set")
	}
	if final.Content != report {
		t.Fatalf("unexpected report content: %q", final.Content)
	}
	if c.DisplayData() != report {
		t.Fatalf("display data not updated")
	}
}

func TestApplyReportGeneratorTextNotAccumulated(t *testing.T) {
	c := newTestConversation()
	turn := c.BeginTurn()

	c.Apply(turn, event.Extraction{Agent: "root_agent", TextParts: []string{"summary"}})
	c.Apply(turn, event.Extraction{Agent: "report_generator_agent", TextParts: []string{"narration noise"}})

	if got := c.Messages()[0].Content; got != "summary" {
		t.Fatalf("report narration leaked into message: %q", got)
	}
}

func TestApplyArtifactsRequireCompleteSession(t *testing.T) {
	arts := []domain.Artifact{{Key: "img_1.png", Kind: domain.ArtifactKindImage}}

	// Incomplete session: artifact dropped.
	c := New(domain.Session{UserID: "u_999"}, nil)
	turn := c.BeginTurn()
	c.Apply(turn, event.Extraction{Artifacts: arts})
	if len(c.Messages()[0].Artifacts) != 0 {
		t.Fatalf("artifact attached without full session identity")
	}

	// Complete session: attached with resolved URL and timeline entry.
	c = newTestConversation()
	turn = c.BeginTurn()
	c.Apply(turn, event.Extraction{Artifacts: arts})

	msg := c.Messages()[0]
	if len(msg.Artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(msg.Artifacts))
	}
	if msg.Artifacts[0].URL != "http://artifacts/s1/img_1.png" {
		t.Fatalf("unexpected artifact URL: %q", msg.Artifacts[0].URL)
	}
	timeline := c.Timeline(turn.MessageID)
	if len(timeline) != 1 || timeline[0].Title != "Generated Image" {
		t.Fatalf("unexpected timeline: %+v", timeline)
	}
}

func TestApplySourcesTimeline(t *testing.T) {
	c := newTestConversation()
	turn := c.BeginTurn()

	c.Apply(turn, event.Extraction{Sources: json.RawMessage(`{"src1":{"title":"x"}}`)})

	timeline := c.Timeline(turn.MessageID)
	if len(timeline) != 1 || timeline[0].Title != "Retrieved Sources" || timeline[0].Type != domain.TimelineSources {
		t.Fatalf("unexpected timeline: %+v", timeline)
	}
}

func TestStaleTurnDoesNotTouchNewMessages(t *testing.T) {
	c := newTestConversation()
	stale := c.BeginTurn()
	fresh := c.BeginTurn()

	c.Apply(fresh, event.Extraction{Agent: "root_agent", TextParts: []string{"current answer"}})
	c.Apply(stale, event.Extraction{Agent: "root_agent", TextParts: []string{"late arrival"}})

	msgs := c.Messages()
	if msgs[1].Content != "current answer" {
		t.Fatalf("stale turn overwrote fresh message: %q", msgs[1].Content)
	}
	if msgs[0].Content != "late arrival" {
		t.Fatalf("stale turn lost its own message: %q", msgs[0].Content)
	}
}

func TestSelectTrendLifecycle(t *testing.T) {
	c := newTestConversation()

	got, err := c.SelectTrend(domain.TrendKindGoogle, domain.Trend{Name: "eclipse"})
	if err != nil {
		t.Fatalf("SelectTrend failed: %v", err)
	}
	if got != "select google trend: eclipse" {
		t.Fatalf("unexpected submission text: %q", got)
	}

	if _, err := c.SelectTrend(domain.TrendKindGoogle, domain.Trend{Name: "other"}); err != ErrTrendAlreadySelected {
		t.Fatalf("expected ErrTrendAlreadySelected, got %v", err)
	}
	if !c.TrendSelectorVisible() {
		t.Fatalf("selector hidden with one kind still open")
	}

	got, err = c.SelectTrend(domain.TrendKindYouTube, domain.Trend{Title: "space video"})
	if err != nil {
		t.Fatalf("SelectTrend failed: %v", err)
	}
	if got != "select youtube trend: space video" {
		t.Fatalf("unexpected submission text: %q", got)
	}
	if c.TrendSelectorVisible() {
		t.Fatalf("selector still visible after both kinds selected")
	}
}

func TestSwitchResetsEverything(t *testing.T) {
	c := newTestConversation()
	turn := c.BeginTurn()
	c.Apply(turn, event.Extraction{
		Agent:       "combined_research_merger",
		SourceCount: 4,
		Trends:      &event.TrendUpdate{Kind: domain.TrendKindGoogle, Data: []domain.Trend{{Name: "a"}}},
		GCSBucket:   "bucket-1",
	})
	if _, err := c.SelectTrend(domain.TrendKindGoogle, domain.Trend{Name: "a"}); err != nil {
		t.Fatalf("SelectTrend failed: %v", err)
	}

	c.Switch("s2")

	if len(c.Messages()) != 0 || c.SourceCount() != 0 || c.GoogleTrends() != nil {
		t.Fatalf("state not reset")
	}
	if google, _ := c.SelectedTrends(); google != "" {
		t.Fatalf("selection survived switch")
	}
	bucket, _ := c.StorageHints()
	if bucket != "" {
		t.Fatalf("storage hints survived switch")
	}
	session := c.Session()
	if session.SessionID != "s2" || session.UserID != "u_999" {
		t.Fatalf("unexpected session after switch: %+v", session)
	}
}

func TestAppendLoadedHistory(t *testing.T) {
	c := newTestConversation()
	c.AppendLoaded(domain.MessageKindHuman, "old question", "")
	c.AppendLoaded(domain.MessageKindAI, "old answer", "root_agent")

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Kind != domain.MessageKindHuman || msgs[1].Agent != "root_agent" {
		t.Fatalf("unexpected messages: %+v, %+v", msgs[0], msgs[1])
	}

	// Loaded ids keep creation order.
	if !(msgs[0].ID < msgs[1].ID) {
		t.Fatalf("ids not ordered: %s >= %s", msgs[0].ID, msgs[1].ID)
	}
}

func TestProcessingMessage(t *testing.T) {
	cases := []struct {
		agent, activity, want string
	}{
		{"", "", "Processing your request..."},
		{"root_agent", "", "Orchestrating agents..."},
		{"root_agent", "Searching for drinks", "Orchestrating agents - Searching for drinks"},
		{"mystery_helper", "", "mystery helper..."},
	}
	for _, tc := range cases {
		if got := processingMessage(tc.agent, tc.activity); got != tc.want {
			t.Errorf("processingMessage(%q, %q) = %q, want %q", tc.agent, tc.activity, got, tc.want)
		}
	}
}

func TestTimelineTitle(t *testing.T) {
	if got := timelineTitle("visual_generator"); got != "Generating Visuals" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := timelineTitle("someone_new"); got != "Processing (someone_new)" {
		t.Fatalf("unexpected default title: %q", got)
	}
	if got := timelineTitle(""); got != "Processing (Unknown Agent)" {
		t.Fatalf("unexpected empty-agent title: %q", got)
	}
}
