package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Tool execution lifecycle statuses. A row is created pending and receives
// exactly one later status update.
const (
	ExecutionPending   = "pending"
	ExecutionSuccess   = "success"
	ExecutionError     = "error"
	ExecutionCancelled = "cancelled"
)

// ToolExecution is one logged invocation of a capability.
type ToolExecution struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	ToolName   string    `json:"tool_name"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	Status     string    `json:"status"`
	ExecutedAt time.Time `json:"executed_at"`
}

// ExecutionLog records tool invocations for a session.
type ExecutionLog struct {
	db *DB
}

// NewExecutionLog creates an execution log over the shared storage handle.
func NewExecutionLog(db *DB) *ExecutionLog {
	return &ExecutionLog{db: db}
}

// Begin records a pending execution and returns its id. A failed write is
// logged and yields an empty id; the tool still runs.
func (l *ExecutionLog) Begin(ctx context.Context, sessionID, toolName, input string) string {
	id, _ := Do(ctx, DefaultPolicy(Sentinel), "execution.begin", func(ctx context.Context) (string, error) {
		db, err := l.db.Conn()
		if err != nil {
			return "", err
		}
		id := uuid.NewString()
		_, err = db.ExecContext(ctx, `
			INSERT INTO tool_executions (id, session_id, tool_name, input, output, status, executed_at)
			VALUES (?, ?, ?, ?, '', ?, ?)`,
			id, sessionID, toolName, input, ExecutionPending, time.Now().UTC())
		if err != nil {
			return "", err
		}
		return id, nil
	})
	return id
}

// Complete sets the terminal status and output for a pending execution.
// A no-op when Begin could not record the row.
func (l *ExecutionLog) Complete(ctx context.Context, id, output, status string) {
	if id == "" {
		return
	}
	_, _ = Do(ctx, DefaultPolicy(Sentinel), "execution.complete", func(ctx context.Context) (struct{}, error) {
		var none struct{}
		db, err := l.db.Conn()
		if err != nil {
			return none, err
		}
		_, err = db.ExecContext(ctx, `UPDATE tool_executions SET output = ?, status = ? WHERE id = ?`,
			output, status, id)
		return none, err
	})
}

// List returns all executions for a session, most recent first.
func (l *ExecutionLog) List(ctx context.Context, sessionID string) ([]ToolExecution, error) {
	return Do(ctx, DefaultPolicy(Escalate), "execution.list", func(ctx context.Context) ([]ToolExecution, error) {
		db, err := l.db.Conn()
		if err != nil {
			return nil, err
		}
		rows, err := db.QueryContext(ctx, `
			SELECT id, session_id, tool_name, input, output, status, executed_at
			FROM tool_executions WHERE session_id = ? ORDER BY executed_at DESC`, sessionID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var out []ToolExecution
		for rows.Next() {
			var e ToolExecution
			var input, output sql.NullString
			if err := rows.Scan(&e.ID, &e.SessionID, &e.ToolName, &input, &output, &e.Status, &e.ExecutedAt); err != nil {
				return nil, err
			}
			e.Input = input.String
			e.Output = output.String
			out = append(out, e)
		}
		return out, rows.Err()
	})
}

// Find returns one execution row, or nil when absent.
func (l *ExecutionLog) Find(ctx context.Context, id string) *ToolExecution {
	e, _ := Do(ctx, DefaultPolicy(Sentinel), "execution.find", func(ctx context.Context) (*ToolExecution, error) {
		db, err := l.db.Conn()
		if err != nil {
			return nil, err
		}
		row := db.QueryRowContext(ctx, `
			SELECT id, session_id, tool_name, input, output, status, executed_at
			FROM tool_executions WHERE id = ?`, id)
		var e ToolExecution
		var input, output sql.NullString
		err = row.Scan(&e.ID, &e.SessionID, &e.ToolName, &input, &output, &e.Status, &e.ExecutedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		e.Input = input.String
		e.Output = output.String
		return &e, nil
	})
	return e
}
