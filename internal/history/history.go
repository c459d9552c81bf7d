// Package history manages the in-memory transcript of one logical
// conversation and its persistence. Live turns are written to storage only
// once the transcript exceeds a fixed threshold; close flushes everything
// unconditionally so short-lived exchanges stay cheap without losing data.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"slices"

	"github.com/growthmate/agent-server/internal/logger"
	"github.com/growthmate/agent-server/internal/storage"
)

// persistThreshold is the transcript length a conversation must exceed
// before live turns are written through to storage.
const persistThreshold = 10

// Manager owns the transcript for one durable instance. The platform
// guarantees a single writer per instance, so the transcript itself is not
// locked.
type Manager struct {
	db        *storage.DB
	agentRole string
	sessionID string

	transcript []Message
}

// NewManager creates a history manager bound to one agent role and session.
func NewManager(db *storage.DB, agentRole, sessionID string) *Manager {
	return &Manager{db: db, agentRole: agentRole, sessionID: sessionID}
}

// Restore loads the most recent limit messages for the agent role and
// replaces the in-memory transcript wholesale. On storage failure the
// conversation continues with an empty transcript.
func (m *Manager) Restore(ctx context.Context, limit int) {
	msgs, err := storage.Do(ctx, storage.DefaultPolicy(storage.Escalate), "history.restore", func(ctx context.Context) ([]Message, error) {
		db, err := m.db.Conn()
		if err != nil {
			return nil, err
		}
		rows, err := db.QueryContext(ctx, `
			SELECT id, agent_role, session_id, role, content, metadata, created_at
			FROM messages WHERE agent_role = ? ORDER BY created_at DESC LIMIT ?`,
			m.agentRole, limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var out []Message
		for rows.Next() {
			var msg Message
			var meta sql.NullString
			if err := rows.Scan(&msg.ID, &msg.AgentRole, &msg.SessionID, &msg.Role, &msg.Content, &meta, &msg.CreatedAt); err != nil {
				return nil, err
			}
			if meta.Valid && meta.String != "" {
				_ = json.Unmarshal([]byte(meta.String), &msg.Metadata)
			}
			out = append(out, msg)
		}
		return out, rows.Err()
	})
	if err != nil {
		logger.L.Warn("history restore failed, continuing with empty transcript", "agent_role", m.agentRole, "error", err)
		m.transcript = nil
		return
	}

	// Most-recent-first from the query, reversed for chronological replay.
	slices.Reverse(msgs)
	m.transcript = msgs
	logger.L.Info("transcript restored", "agent_role", m.agentRole, "messages", len(msgs))
}

// Append adds a message to the transcript and persists it only when the
// transcript has grown past the threshold. Persistence failures are logged
// and never abort the turn.
func (m *Manager) Append(ctx context.Context, msg Message) {
	m.transcript = append(m.transcript, msg)
	if len(m.transcript) > persistThreshold {
		m.persist(ctx, msg)
	}
}

// AppendLocal adds a message to the transcript without any storage write.
// Used while the instance runs degraded with no storage connection.
func (m *Manager) AppendLocal(msg Message) {
	m.transcript = append(m.transcript, msg)
}

// FlushOnClose writes every in-memory message regardless of the threshold.
// Rows already written by the gate are left untouched.
func (m *Manager) FlushOnClose(ctx context.Context) {
	for _, msg := range m.transcript {
		m.persist(ctx, msg)
	}
	logger.L.Info("transcript flushed", "agent_role", m.agentRole, "messages", len(m.transcript))
}

// Transcript returns a copy of the in-memory transcript in chronological
// order.
func (m *Manager) Transcript() []Message {
	out := make([]Message, len(m.transcript))
	copy(out, m.transcript)
	return out
}

// Len returns the current transcript length.
func (m *Manager) Len() int { return len(m.transcript) }

func (m *Manager) persist(ctx context.Context, msg Message) {
	_, _ = storage.Do(ctx, storage.DefaultPolicy(storage.Sentinel), "history.persist", func(ctx context.Context) (struct{}, error) {
		var none struct{}
		db, err := m.db.Conn()
		if err != nil {
			return none, err
		}
		var meta []byte
		if len(msg.Metadata) > 0 {
			meta, _ = json.Marshal(msg.Metadata)
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO messages (id, agent_role, session_id, role, content, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			msg.ID, msg.AgentRole, msg.SessionID, msg.Role, msg.Content, string(meta), msg.CreatedAt)
		return none, err
	})
}
