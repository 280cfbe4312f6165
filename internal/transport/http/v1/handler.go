// Package v1 provides the gateway's HTTP handlers.
package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tottenjordan/zghost/internal/conversation"
	"github.com/tottenjordan/zghost/internal/domain"
	"github.com/tottenjordan/zghost/internal/service"
)

// HealthFunc reports whether the agent backend is reachable.
type HealthFunc func(ctx context.Context) bool

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	health  HealthFunc
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, health HealthFunc) *Handler {
	return &Handler{
		service: svc,
		health:  health,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/v1/state", h.GetState)
	e.POST("/v1/messages", h.PostMessage)
	e.POST("/v1/trends/select", h.SelectTrend)

	e.GET("/v1/sessions", h.ListSessions)
	e.POST("/v1/sessions", h.NewSession)
	e.POST("/v1/sessions/:session_id/switch", h.SwitchSession)

	e.GET("/health", h.Health)
}

// GetState returns the current conversation snapshot.
// GET /v1/state
func (h *Handler) GetState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Snapshot())
}

type postMessageRequest struct {
	Text    string `json:"text"`
	PDFData string `json:"pdf_data,omitempty"`
}

// PostMessage submits one user turn. The response carries the snapshot
// after the turn completed; progress streams over the WebSocket.
// POST /v1/messages
func (h *Handler) PostMessage(c echo.Context) error {
	var req postMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	err := h.service.Submit(c.Request().Context(), req.Text, req.PDFData)
	if err != nil {
		return h.submissionError(c, err)
	}
	return c.JSON(http.StatusOK, h.service.Snapshot())
}

type selectTrendRequest struct {
	Kind  domain.TrendKind `json:"type"`
	Trend domain.Trend     `json:"trend"`
}

// SelectTrend records a trend choice and submits the follow-up query.
// POST /v1/trends/select
func (h *Handler) SelectTrend(c echo.Context) error {
	var req selectTrendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	err := h.service.SelectTrend(c.Request().Context(), req.Kind, req.Trend)
	if err != nil {
		if errors.Is(err, conversation.ErrTrendAlreadySelected) {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return h.submissionError(c, err)
	}
	return c.JSON(http.StatusOK, h.service.Snapshot())
}

// ListSessions lists the user's sessions.
// GET /v1/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	sessions, err := h.service.ListSessions(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"sessions": sessions})
}

// NewSession discards the current conversation and starts fresh.
// POST /v1/sessions
func (h *Handler) NewSession(c echo.Context) error {
	if err := h.service.StartNewSession(); err != nil {
		return h.submissionError(c, err)
	}
	return c.JSON(http.StatusOK, h.service.Snapshot())
}

// SwitchSession rebinds the conversation to an existing session.
// POST /v1/sessions/:session_id/switch
func (h *Handler) SwitchSession(c echo.Context) error {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_id is required"})
	}
	if err := h.service.SwitchSession(c.Request().Context(), sessionID); err != nil {
		return h.submissionError(c, err)
	}
	return c.JSON(http.StatusOK, h.service.Snapshot())
}

// Health reports gateway and backend health.
// GET /health
func (h *Handler) Health(c echo.Context) error {
	backendUp := false
	if h.health != nil {
		backendUp = h.health(c.Request().Context())
	}
	status := http.StatusOK
	if !backendUp {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]any{
		"status":  "healthy",
		"backend": backendUp,
	})
}

func (h *Handler) submissionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionInFlight):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrMessageTooLong):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
}
