// Package repository persists conversation transcripts locally so past
// sessions can be listed and reopened without the backend.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tottenjordan/zghost/internal/domain"
)

// TranscriptStore implements local persistence using SQLite.
type TranscriptStore struct {
	db *sql.DB
}

// NewTranscriptStore opens (and migrates) the local database.
func NewTranscriptStore(dsn string) (*TranscriptStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection so the schema survives across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &TranscriptStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *TranscriptStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			app_name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_active DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			content TEXT NOT NULL,
			agent TEXT,
			final_report INTEGER NOT NULL DEFAULT 0,
			artifacts TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS timeline_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL,
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			payload TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (message_id) REFERENCES messages(message_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_timeline_message ON timeline_events(message_id, id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *TranscriptStore) Close() error {
	return s.db.Close()
}

// SaveSession upserts a session identity and bumps its activity time.
func (s *TranscriptStore) SaveSession(ctx context.Context, session domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, app_name, last_active) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET last_active = excluded.last_active`,
		session.SessionID, session.UserID, session.AppName, time.Now().UTC())
	return err
}

// SaveMessage persists one transcript message. Saving an existing id
// replaces its content, which covers ai messages finalized after folding.
func (s *TranscriptStore) SaveMessage(ctx context.Context, sessionID string, msg *domain.Message) error {
	var artifacts any
	if len(msg.Artifacts) > 0 {
		data, err := json.Marshal(msg.Artifacts)
		if err != nil {
			return fmt.Errorf("failed to marshal artifacts: %w", err)
		}
		artifacts = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, kind, content, agent, final_report, artifacts) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(message_id) DO UPDATE SET content = excluded.content, agent = excluded.agent,
		 final_report = excluded.final_report, artifacts = excluded.artifacts`,
		msg.ID, sessionID, string(msg.Kind), msg.Content, msg.Agent, boolToInt(msg.FinalReport), artifacts)
	return err
}

// SaveTimelineEvent appends one timeline event for a message.
func (s *TranscriptStore) SaveTimelineEvent(ctx context.Context, messageID string, ev domain.TimelineEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline event: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO timeline_events (message_id, title, type, payload) VALUES (?, ?, ?, ?)`,
		messageID, ev.Title, string(ev.Type), string(payload))
	return err
}

// GetMessages returns the transcript of a session in creation order.
func (s *TranscriptStore) GetMessages(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, kind, content, agent, final_report, artifacts
		 FROM messages WHERE session_id = ? ORDER BY created_at, message_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var kind string
		var agent, artifacts sql.NullString
		var finalReport int
		if err := rows.Scan(&msg.ID, &kind, &msg.Content, &agent, &finalReport, &artifacts); err != nil {
			return nil, err
		}
		msg.Kind = domain.MessageKind(kind)
		msg.Agent = agent.String
		msg.FinalReport = finalReport != 0
		if artifacts.Valid && artifacts.String != "" {
			if err := json.Unmarshal([]byte(artifacts.String), &msg.Artifacts); err != nil {
				return nil, fmt.Errorf("failed to unmarshal artifacts: %w", err)
			}
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// GetTimeline returns the stored timeline for a message in insertion order.
func (s *TranscriptStore) GetTimeline(ctx context.Context, messageID string) ([]domain.TimelineEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM timeline_events WHERE message_id = ? ORDER BY id`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TimelineEvent
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var ev domain.TimelineEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal timeline event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListSessions returns locally known sessions, most recently active first.
func (s *TranscriptStore) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.session_id, CAST(strftime('%s', s.last_active) AS INTEGER), COUNT(m.message_id)
		 FROM sessions s LEFT JOIN messages m ON m.session_id = s.session_id
		 GROUP BY s.session_id ORDER BY s.last_active DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.SessionSummary
	for rows.Next() {
		var sum domain.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.LastUpdateTime, &sum.EventCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
