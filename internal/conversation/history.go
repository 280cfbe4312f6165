package conversation

import "github.com/tottenjordan/zghost/internal/domain"

// AppendLoaded appends a message reconstructed from backend session history.
// Loaded messages carry no timeline; only the transcript is recoverable.
func (c *Conversation) AppendLoaded(kind domain.MessageKind, content, agent string) *domain.Message {
	msg := &domain.Message{
		ID:      NewID(),
		Kind:    kind,
		Content: content,
		Agent:   agent,
	}
	c.append(msg)
	return msg
}
