// Package backend provides the HTTP client for the agent orchestration API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tottenjordan/zghost/internal/domain"
)

// Client is an HTTP client for the orchestration API. The API is an external
// service; paths and payload shapes are owned by the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new backend client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type createSessionResponse struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	AppName string `json:"appName"`
}

// CreateSession creates a session under a client-generated id. The server
// response is authoritative and may differ from the request.
func (c *Client) CreateSession(ctx context.Context, userID, appName string) (domain.Session, error) {
	generated := uuid.NewString()
	url := fmt.Sprintf("%s/api/apps/%s/users/%s/sessions/%s", c.baseURL, appName, userID, generated)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("{}"))
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return domain.Session{}, &SessionCreationError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Session{}, fmt.Errorf("failed to decode session response: %w", err)
	}

	return domain.Session{
		UserID:    decoded.UserID,
		SessionID: decoded.ID,
		AppName:   decoded.AppName,
	}, nil
}

type runRequest struct {
	AppName    string     `json:"appName"`
	UserID     string     `json:"userId"`
	SessionID  string     `json:"sessionId"`
	NewMessage runMessage `json:"newMessage"`
	Streaming  bool       `json:"streaming"`
}

type runMessage struct {
	Parts []runPart `json:"parts"`
	Role  string    `json:"role"`
}

type runPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *runInlineData `json:"inlineData,omitempty"`
}

type runInlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// SendMessage posts one user turn and returns the full ordered event array.
// Despite the endpoint's streaming heritage the integration is non-streaming:
// the body is a finite JSON array of events.
func (c *Client) SendMessage(ctx context.Context, session domain.Session, text, pdfBase64 string) ([]json.RawMessage, error) {
	parts := []runPart{{Text: text}}
	if pdfBase64 != "" {
		parts = append(parts, runPart{InlineData: &runInlineData{Data: pdfBase64, MimeType: "application/pdf"}})
	}

	body, err := json.Marshal(runRequest{
		AppName:   session.AppName,
		UserID:    session.UserID,
		SessionID: session.SessionID,
		NewMessage: runMessage{
			Parts: parts,
			Role:  "user",
		},
		Streaming: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/run", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, &SendMessageError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var events []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode event array: %w", err)
	}

	return events, nil
}

// HistoryMessage is one turn from the backend's session history.
type HistoryMessage struct {
	Role    string `json:"role"`
	Author  string `json:"author,omitempty"`
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

// Text joins all text parts of the turn.
func (m HistoryMessage) Text() string {
	var b strings.Builder
	for _, p := range m.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

type historyResponse struct {
	Messages []HistoryMessage `json:"messages"`
}

// GetSessionHistory fetches prior turns for a session.
func (c *Client) GetSessionHistory(ctx context.Context, session domain.Session, sessionID string) ([]HistoryMessage, error) {
	url := fmt.Sprintf("%s/api/apps/%s/users/%s/sessions/%s/messages", c.baseURL, session.AppName, session.UserID, sessionID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, fmt.Errorf("session history returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var decoded historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode session history: %w", err)
	}

	return decoded.Messages, nil
}

type sessionListEntry struct {
	ID             string            `json:"id"`
	SessionID      string            `json:"session_id"`
	LastUpdateTime float64           `json:"lastUpdateTime"`
	Events         []json.RawMessage `json:"events"`
}

// ListSessions returns summaries of the user's sessions.
func (c *Client) ListSessions(ctx context.Context, session domain.Session) ([]domain.SessionSummary, error) {
	url := fmt.Sprintf("%s/api/apps/%s/users/%s/sessions", c.baseURL, session.AppName, session.UserID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, fmt.Errorf("session list returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var entries []sessionListEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode session list: %w", err)
	}

	summaries := make([]domain.SessionSummary, 0, len(entries))
	for _, e := range entries {
		id := e.ID
		if id == "" {
			id = e.SessionID
		}
		summaries = append(summaries, domain.SessionSummary{
			ID:             id,
			LastUpdateTime: int64(e.LastUpdateTime),
			EventCount:     len(e.Events),
		})
	}
	return summaries, nil
}

// CheckHealth probes the liveness endpoint; any 2xx counts as healthy.
func (c *Client) CheckHealth(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/list-apps", nil)
	if err != nil {
		return false
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
