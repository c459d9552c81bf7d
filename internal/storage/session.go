package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/growthmate/agent-server/internal/logger"
)

// sessionNamespace seeds the deterministic per-role session id derivation.
var sessionNamespace = uuid.MustParse("8f2a6c34-1d9b-4e07-9c55-3b61d0a4f7e2")

// SessionIDForRole derives the stable session id for an agent role. Every
// physical connection for the same role maps to the same logical session.
func SessionIDForRole(role string) string {
	return uuid.NewSHA1(sessionNamespace, []byte(role)).String()
}

// Session is the durable identity of one logical conversation.
type Session struct {
	ID        string         `json:"id"`
	AgentRole string         `json:"agent_role"`
	AgentName string         `json:"agent_name"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SessionStore persists session identity and metadata.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a session store over the shared storage handle.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Upsert inserts the session or, on id conflict, refreshes metadata and
// updated_at. Unrecoverable failures yield a nil session, never an error.
func (s *SessionStore) Upsert(ctx context.Context, id, role, name string, metadata map[string]any) *Session {
	sess, _ := Do(ctx, DefaultPolicy(Sentinel), "session.upsert", func(ctx context.Context) (*Session, error) {
		db, err := s.db.Conn()
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		_, err = db.ExecContext(ctx, `
			INSERT INTO sessions (id, agent_role, agent_name, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET metadata = excluded.metadata, updated_at = excluded.updated_at`,
			id, role, name, marshalMetadata(metadata), now, now)
		if err != nil {
			return nil, err
		}
		return s.find(ctx, db, id)
	})
	return sess
}

// Find returns the session, or nil when it does not exist or storage failed.
func (s *SessionStore) Find(ctx context.Context, id string) *Session {
	sess, _ := Do(ctx, DefaultPolicy(Sentinel), "session.find", func(ctx context.Context) (*Session, error) {
		db, err := s.db.Conn()
		if err != nil {
			return nil, err
		}
		return s.find(ctx, db, id)
	})
	return sess
}

// UpdateMetadata replaces the session metadata.
func (s *SessionStore) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) *Session {
	sess, _ := Do(ctx, DefaultPolicy(Sentinel), "session.update_metadata", func(ctx context.Context) (*Session, error) {
		db, err := s.db.Conn()
		if err != nil {
			return nil, err
		}
		_, err = db.ExecContext(ctx, `UPDATE sessions SET metadata = ?, updated_at = ? WHERE id = ?`,
			marshalMetadata(metadata), time.Now().UTC(), id)
		if err != nil {
			return nil, err
		}
		return s.find(ctx, db, id)
	})
	return sess
}

// Delete removes the session together with its messages, tool executions and
// integration connections in one transaction.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := Do(ctx, DefaultPolicy(Escalate), "session.delete", func(ctx context.Context) (struct{}, error) {
		var none struct{}
		db, err := s.db.Conn()
		if err != nil {
			return none, err
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return none, err
		}
		defer func() {
			if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
				logger.L.Warn("session delete rollback", "error", rerr)
			}
		}()

		for _, q := range []string{
			`DELETE FROM messages WHERE session_id = ?`,
			`DELETE FROM tool_executions WHERE session_id = ?`,
			`DELETE FROM integration_connections WHERE session_id = ?`,
			`DELETE FROM sessions WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return none, err
			}
		}
		return none, tx.Commit()
	})
	return err
}

func (s *SessionStore) find(ctx context.Context, db *sql.DB, id string) (*Session, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, agent_role, agent_name, metadata, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	var sess Session
	var name sql.NullString
	var meta sql.NullString
	err := row.Scan(&sess.ID, &sess.AgentRole, &name, &meta, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.AgentName = name.String
	sess.Metadata = unmarshalMetadata(meta.String)
	return &sess, nil
}

func marshalMetadata(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		logger.L.Warn("metadata marshal failed", "error", err)
		return "{}"
	}
	return string(b)
}

func unmarshalMetadata(s string) map[string]any {
	if s == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}
