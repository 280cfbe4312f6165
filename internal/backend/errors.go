package backend

import (
	"fmt"
	"time"
)

// SessionCreationError reports a non-success status from session creation.
type SessionCreationError struct {
	StatusCode int
	Body       string
}

func (e *SessionCreationError) Error() string {
	return fmt.Sprintf("failed to create session: status %d: %s", e.StatusCode, e.Body)
}

// SendMessageError reports a non-success status from a run submission.
type SendMessageError struct {
	StatusCode int
	Body       string
}

func (e *SendMessageError) Error() string {
	return fmt.Sprintf("failed to send message: status %d: %s", e.StatusCode, e.Body)
}

// RetryTimeoutError reports that a retry loop exceeded its wall-clock budget
// before exhausting its attempts.
type RetryTimeoutError struct {
	MaxDuration time.Duration
}

func (e *RetryTimeoutError) Error() string {
	return fmt.Sprintf("retry timeout after %dms", e.MaxDuration.Milliseconds())
}
