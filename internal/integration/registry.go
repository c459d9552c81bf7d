package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/growthmate/agent-server/internal/storage"
)

// Connection statuses.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusError        = "error"
)

// Connection is a per-session record of whether an integration is enabled.
type Connection struct {
	ID              string         `json:"id"`
	SessionID       string         `json:"session_id"`
	IntegrationName string         `json:"integration_name"`
	Status          string         `json:"status"`
	Credentials     string         `json:"-"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	LastSyncAt      *time.Time     `json:"last_sync_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Registry persists integration connect/disconnect state per session.
// Concurrent connect/disconnect calls for one (session, name) pair resolve by
// last write wins; no transactional isolation is used.
type Registry struct {
	db *storage.DB
}

// NewRegistry creates a registry over the shared storage handle.
func NewRegistry(db *storage.DB) *Registry {
	return &Registry{db: db}
}

// Connect marks an integration as connected for the session. Repeated calls
// keep a single row and advance last_sync_at.
func (r *Registry) Connect(ctx context.Context, sessionID, name string, metadata map[string]any) (*Connection, error) {
	return storage.Do(ctx, storage.DefaultPolicy(storage.Escalate), "integration.connect", func(ctx context.Context) (*Connection, error) {
		db, err := r.db.Conn()
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		meta := marshal(metadata)
		_, err = db.ExecContext(ctx, `
			INSERT INTO integration_connections
				(id, session_id, integration_name, status, credentials, metadata, last_sync_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, '', ?, ?, ?, ?)
			ON CONFLICT(session_id, integration_name) DO UPDATE SET
				status = excluded.status,
				metadata = excluded.metadata,
				last_sync_at = excluded.last_sync_at,
				updated_at = excluded.updated_at`,
			uuid.NewString(), sessionID, name, StatusConnected, meta, now, now, now)
		if err != nil {
			return nil, err
		}
		return r.find(ctx, db, sessionID, name)
	})
}

// Disconnect marks an existing connection as disconnected. Disconnecting an
// integration that was never connected is a no-op returning nil.
func (r *Registry) Disconnect(ctx context.Context, sessionID, name string) (*Connection, error) {
	return storage.Do(ctx, storage.DefaultPolicy(storage.Escalate), "integration.disconnect", func(ctx context.Context) (*Connection, error) {
		db, err := r.db.Conn()
		if err != nil {
			return nil, err
		}
		res, err := db.ExecContext(ctx, `
			UPDATE integration_connections SET status = ?, updated_at = ?
			WHERE session_id = ? AND integration_name = ?`,
			StatusDisconnected, time.Now().UTC(), sessionID, name)
		if err != nil {
			return nil, err
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return nil, err
		}
		return r.find(ctx, db, sessionID, name)
	})
}

// List returns all connection rows for a session, newest first.
func (r *Registry) List(ctx context.Context, sessionID string) ([]Connection, error) {
	return storage.Do(ctx, storage.DefaultPolicy(storage.Escalate), "integration.list", func(ctx context.Context) ([]Connection, error) {
		db, err := r.db.Conn()
		if err != nil {
			return nil, err
		}
		rows, err := db.QueryContext(ctx, `
			SELECT id, session_id, integration_name, status, credentials, metadata, last_sync_at, created_at, updated_at
			FROM integration_connections WHERE session_id = ? ORDER BY created_at DESC`, sessionID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var out []Connection
		for rows.Next() {
			c, err := scan(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, *c)
		}
		return out, rows.Err()
	})
}

// Status returns the connection row for one (session, integration) pair, or
// an error when the lookup itself failed. A nil connection with nil error
// means no row exists.
func (r *Registry) Status(ctx context.Context, sessionID, name string) (*Connection, error) {
	return storage.Do(ctx, storage.DefaultPolicy(storage.Escalate), "integration.status", func(ctx context.Context) (*Connection, error) {
		db, err := r.db.Conn()
		if err != nil {
			return nil, err
		}
		return r.find(ctx, db, sessionID, name)
	})
}

func (r *Registry) find(ctx context.Context, db *sql.DB, sessionID, name string) (*Connection, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, session_id, integration_name, status, credentials, metadata, last_sync_at, created_at, updated_at
		FROM integration_connections WHERE session_id = ? AND integration_name = ?`, sessionID, name)
	c, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*Connection, error) {
	var c Connection
	var creds, meta sql.NullString
	var lastSync sql.NullTime
	err := row.Scan(&c.ID, &c.SessionID, &c.IntegrationName, &c.Status, &creds, &meta, &lastSync, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Credentials = creds.String
	if meta.Valid && meta.String != "" {
		_ = json.Unmarshal([]byte(meta.String), &c.Metadata)
	}
	if lastSync.Valid {
		t := lastSync.Time
		c.LastSyncAt = &t
	}
	return &c, nil
}

func marshal(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
