package history

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents a single conversational message.
type Message struct {
	ID        string         `json:"id"`
	AgentRole string         `json:"agent_role"`
	SessionID string         `json:"session_id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewMessage builds a message with a fresh id and timestamp.
func NewMessage(agentRole, sessionID, role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		AgentRole: agentRole,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
