// Package service orchestrates submissions: lazy session creation, calling
// the backend, folding the returned events into the conversation, and
// persisting the transcript.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/tottenjordan/zghost/internal/backend"
	"github.com/tottenjordan/zghost/internal/config"
	"github.com/tottenjordan/zghost/internal/conversation"
	"github.com/tottenjordan/zghost/internal/domain"
	"github.com/tottenjordan/zghost/internal/event"
)

var (
	// ErrSubmissionInFlight is returned when a submission is attempted
	// while another one is still being processed.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")

	// ErrEmptyMessage is returned for whitespace-only input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when input exceeds the configured limit.
	ErrMessageTooLong = errors.New("message exceeds maximum length")
)

// Store receives transcript writes. The sqlite repository satisfies it;
// a nil Store disables persistence.
type Store interface {
	SaveSession(ctx context.Context, session domain.Session) error
	SaveMessage(ctx context.Context, sessionID string, msg *domain.Message) error
	SaveTimelineEvent(ctx context.Context, messageID string, ev domain.TimelineEvent) error
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)
}

// NotifyFunc receives a snapshot after every state change. The gateway
// plugs the hub broadcast in here; the console plugs its renderer.
type NotifyFunc func(conversation.Snapshot)

// Service drives one conversation against the backend. Conversation
// state is guarded by mu; submissions additionally serialize through the
// inflight gate so network calls happen outside the lock.
type Service struct {
	cfg    *config.Config
	client *backend.Client
	store  Store
	notify NotifyFunc

	mu   sync.Mutex
	conv *conversation.Conversation

	// Timeline events already persisted per message, so refreshing a
	// message does not duplicate its timeline rows.
	persisted map[string]int

	// Submission gate. Channel of capacity one: acquiring is a
	// non-blocking send, releasing a receive.
	inflight chan struct{}
}

// New wires a service. store and notify may be nil.
func New(cfg *config.Config, client *backend.Client, conv *conversation.Conversation, store Store, notify NotifyFunc) *Service {
	return &Service{
		cfg:       cfg,
		client:    client,
		conv:      conv,
		store:     store,
		notify:    notify,
		persisted: make(map[string]int),
		inflight:  make(chan struct{}, 1),
	}
}

// Busy reports whether a submission is currently in flight.
func (s *Service) Busy() bool {
	return len(s.inflight) > 0
}

// Snapshot returns the current conversation state.
func (s *Service) Snapshot() conversation.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Snapshot()
}

// Session returns the current session identity.
func (s *Service) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Session()
}

func (s *Service) acquire() error {
	select {
	case s.inflight <- struct{}{}:
		return nil
	default:
		return ErrSubmissionInFlight
	}
}

func (s *Service) release() {
	<-s.inflight
}

// changed pushes a snapshot to the notifier. Callers hold mu.
func (s *Service) changed() {
	if s.notify != nil {
		s.notify(s.conv.Snapshot())
	}
}

// Submit sends one user turn to the backend and folds the response into
// the conversation. At most one submission runs at a time; a second call
// while one is in flight fails fast with ErrSubmissionInFlight.
func (s *Service) Submit(ctx context.Context, text, pdfBase64 string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}
	if s.cfg.MaxMessageLength > 0 && len(trimmed) > s.cfg.MaxMessageLength {
		return ErrMessageTooLong
	}

	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	return s.submit(ctx, trimmed, pdfBase64)
}

// submit runs one submission. The caller holds the inflight gate.
func (s *Service) submit(ctx context.Context, trimmed, pdfBase64 string) error {
	if err := s.ensureSession(ctx); err != nil {
		s.failTurn(ctx, err)
		return err
	}

	s.mu.Lock()
	session := s.conv.Session()
	human := s.conv.AppendHuman(trimmed, pdfBase64)
	s.persistMessage(ctx, human)
	s.changed()

	turn := s.conv.BeginTurn()
	s.persistMessage(ctx, s.message(turn.MessageID))
	s.changed()
	s.mu.Unlock()

	var events []event.Extraction
	err := backend.RetryWithBackoff(ctx, func() error {
		raw, sendErr := s.client.SendMessage(ctx, session, trimmed, pdfBase64)
		if sendErr != nil {
			return sendErr
		}
		events = events[:0]
		for _, data := range raw {
			events = append(events, event.Extract(data))
		}
		return nil
	}, backend.RetryOptions{MaxRetries: s.cfg.MaxRetries, MaxDuration: s.cfg.MaxRetryDuration})
	if err != nil {
		log.Printf("service: submission failed: %v", err)
		s.failTurn(ctx, err)
		return err
	}

	s.mu.Lock()
	for _, ex := range events {
		s.conv.Apply(turn, ex)
		s.changed()
	}

	s.persistTurn(ctx, turn)
	s.changed()
	s.mu.Unlock()
	return nil
}

// SelectTrend records the user's trend choice and submits the matching
// instruction. Each trend kind can be selected at most once per session.
// The gate is taken before the selection is recorded: the selection is
// one-shot, and a rejected attempt must not consume it.
func (s *Service) SelectTrend(ctx context.Context, kind domain.TrendKind, trend domain.Trend) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	text, err := s.conv.SelectTrend(kind, trend)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.submit(ctx, text, "")
}

// StartNewSession discards the current conversation. The next submission
// creates a fresh backend session lazily.
func (s *Service) StartNewSession() error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.Switch("")
	s.persisted = make(map[string]int)
	s.changed()
	return nil
}

// SwitchSession rebinds the conversation to an existing backend session
// and loads its history. If history retrieval fails the transcript shows
// a single switch notice instead.
func (s *Service) SwitchSession(ctx context.Context, sessionID string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	s.conv.Switch(sessionID)
	s.persisted = make(map[string]int)
	session := s.conv.Session()
	s.mu.Unlock()

	history, err := s.client.GetSessionHistory(ctx, session, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Printf("service: failed to load history for %s: %v", sessionID, err)
		s.conv.AppendSystem(fmt.Sprintf("Session switched to: %s", sessionID))
		s.changed()
		return nil
	}

	for _, h := range history {
		text := h.Text()
		if text == "" {
			continue
		}
		switch h.Role {
		case "user":
			s.conv.AppendLoaded(domain.MessageKindHuman, text, "")
		case "model":
			s.conv.AppendLoaded(domain.MessageKindAI, text, h.Author)
		}
	}

	s.persistSession(ctx)
	for _, msg := range s.conv.Messages() {
		s.persistMessage(ctx, msg)
	}
	s.changed()
	return nil
}

// ListSessions returns the user's sessions from the backend, falling back
// to the local store when the backend is unreachable.
func (s *Service) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	summaries, err := s.client.ListSessions(ctx, s.Session())
	if err == nil {
		return summaries, nil
	}
	if s.store != nil {
		log.Printf("service: backend session list failed, using local store: %v", err)
		return s.store.ListSessions(ctx)
	}
	return nil, err
}

// ensureSession creates the backend session on first use. The server's
// reply is authoritative for the session identity.
func (s *Service) ensureSession(ctx context.Context) error {
	if s.Session().Complete() {
		return nil
	}
	var created domain.Session
	err := backend.RetryWithBackoff(ctx, func() error {
		var createErr error
		created, createErr = s.client.CreateSession(ctx, s.cfg.DefaultUserID, s.cfg.DefaultAppName)
		return createErr
	}, backend.RetryOptions{MaxRetries: s.cfg.MaxRetries, MaxDuration: s.cfg.MaxRetryDuration})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	s.mu.Lock()
	s.conv.SetSession(created)
	s.persistSession(ctx)
	s.mu.Unlock()
	log.Printf("service: session created: %s", created.SessionID)
	return nil
}

func (s *Service) failTurn(ctx context.Context, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.conv.AppendError(err)
	s.persistMessage(ctx, msg)
	s.changed()
}

func (s *Service) message(id string) *domain.Message {
	for _, msg := range s.conv.Messages() {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// persistTurn writes the turn's message, any messages appended after it
// (final report), and the new timeline entries.
func (s *Service) persistTurn(ctx context.Context, turn *conversation.Turn) {
	if s.store == nil {
		return
	}
	past := false
	for _, msg := range s.conv.Messages() {
		if msg.ID == turn.MessageID {
			past = true
		}
		if !past {
			continue
		}
		s.persistMessage(ctx, msg)
		s.persistTimeline(ctx, msg.ID)
	}
}

func (s *Service) persistSession(ctx context.Context) {
	if s.store == nil {
		return
	}
	session := s.conv.Session()
	if !session.Complete() {
		return
	}
	if err := s.store.SaveSession(ctx, session); err != nil {
		log.Printf("service: failed to persist session: %v", err)
	}
}

func (s *Service) persistMessage(ctx context.Context, msg *domain.Message) {
	if s.store == nil || msg == nil {
		return
	}
	if err := s.store.SaveMessage(ctx, s.conv.Session().SessionID, msg); err != nil {
		log.Printf("service: failed to persist message %s: %v", msg.ID, err)
	}
}

func (s *Service) persistTimeline(ctx context.Context, messageID string) {
	if s.store == nil {
		return
	}
	timeline := s.conv.Timeline(messageID)
	for i := s.persisted[messageID]; i < len(timeline); i++ {
		if err := s.store.SaveTimelineEvent(ctx, messageID, timeline[i]); err != nil {
			log.Printf("service: failed to persist timeline event: %v", err)
			return
		}
		s.persisted[messageID] = i + 1
	}
}
