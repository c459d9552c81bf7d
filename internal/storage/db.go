// Package storage provides sqlite-backed persistence for sessions, messages,
// tool executions and integration connections. The database is opened lazily
// and the schema is created on first use. Exactly one connection is held per
// durable instance; it is never recycled or expired mid-life.
package storage

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/glebarez/go-sqlite"

	"github.com/growthmate/agent-server/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	agent_role TEXT NOT NULL,
	agent_name TEXT,
	metadata TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	agent_role TEXT NOT NULL,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_role_created ON messages(agent_role, created_at);
CREATE TABLE IF NOT EXISTS tool_executions (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	tool_name TEXT NOT NULL,
	input TEXT,
	output TEXT,
	status TEXT NOT NULL,
	executed_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tool_executions_session ON tool_executions(session_id);
CREATE TABLE IF NOT EXISTS integration_connections (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	integration_name TEXT NOT NULL,
	status TEXT NOT NULL,
	credentials TEXT,
	metadata TEXT,
	last_sync_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(session_id, integration_name)
);
`

// DB wraps the single storage connection held by one durable instance.
// Open is lazy: no I/O happens until Acquire is called.
type DB struct {
	path string

	mu       sync.Mutex
	db       *sql.DB
	acquired bool
	closed   bool
}

// Open prepares a DB handle for the given sqlite path without connecting.
func Open(path string) *DB {
	return &DB{path: path}
}

// Acquire opens the connection and creates the schema on first call.
// Subsequent calls return the already-acquired handle.
func (d *DB) Acquire(ctx context.Context) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if d.acquired {
		return d.db, nil
	}

	db, err := sql.Open("sqlite", "file:"+d.path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		return nil, err
	}
	// One live connection per instance, no idle or lifetime expiry.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.L.Warn("sqlite close after schema failure", "error", cerr)
		}
		return nil, err
	}

	d.db = db
	d.acquired = true
	logger.L.Info("storage connection acquired", "path", d.path)
	return d.db, nil
}

// Conn returns the acquired handle, or ErrNotAcquired if Acquire has not
// succeeded yet.
func (d *DB) Conn() (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if !d.acquired {
		return nil, ErrNotAcquired
	}
	return d.db, nil
}

// Close releases the storage connection. It is idempotent; a second close
// is a no-op.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if !d.acquired {
		return nil
	}
	d.acquired = false
	return d.db.Close()
}
