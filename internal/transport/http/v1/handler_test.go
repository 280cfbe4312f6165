package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tottenjordan/zghost/internal/backend"
	"github.com/tottenjordan/zghost/internal/config"
	"github.com/tottenjordan/zghost/internal/conversation"
	"github.com/tottenjordan/zghost/internal/domain"
	"github.com/tottenjordan/zghost/internal/service"
)

// fakeAgentServer answers session creation and run requests the way the
// agent backend does.
func fakeAgentServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/run", func(w http.ResponseWriter, r *http.Request) {
		events := []json.RawMessage{json.RawMessage(
			`{"author":"root_agent","content":{"parts":[{"text":"All done."}],"role":"model"}}`,
		)}
		json.NewEncoder(w).Encode(events)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/sessions/") {
			id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
			json.NewEncoder(w).Encode(map[string]string{
				"id": id, "userId": "u_999", "appName": "trends_and_insights_agent",
			})
			return
		}
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	srv := fakeAgentServer(t)

	cfg := config.Load()
	cfg.APIBaseURL = srv.URL
	cfg.MaxRetries = 1

	client := backend.NewClient(srv.URL, 5*time.Second)
	conv := conversation.New(domain.Session{}, func(session domain.Session, key string) string {
		return "http://artifacts/" + key
	})
	svc := service.New(cfg, client, conv, nil, nil)
	return NewHandler(svc, func(ctx context.Context) bool { return true })
}

func TestGetState(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/state", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.GetState(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var snap conversation.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Empty(t, snap.Messages)
	assert.True(t, snap.TrendSelectorVisible)
}

func TestPostMessage(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	body := `{"text":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.PostMessage(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var snap conversation.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, domain.MessageKindHuman, snap.Messages[0].Kind)
	assert.Equal(t, "All done.", snap.Messages[1].Content)
}

func TestPostMessageEmpty(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"text":"  "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.PostMessage(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectTrendTwiceConflicts(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	body := `{"type":"google","trend":{"name":"eclipse"}}`
	for i, want := range []int{http.StatusOK, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/v1/trends/select", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, h.SelectTrend(c))
		assert.Equal(t, want, rec.Code, "request %d", i+1)
	}
}

func TestSwitchSessionRequiresID(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions//switch", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("")

	require.NoError(t, h.SwitchSession(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	e := echo.New()

	for _, tc := range []struct {
		up   bool
		want int
	}{
		{up: true, want: http.StatusOK},
		{up: false, want: http.StatusServiceUnavailable},
	} {
		h := newTestHandler(t)
		h.health = func(ctx context.Context) bool { return tc.up }

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, h.Health(c))
		assert.Equal(t, tc.want, rec.Code)
	}
}
