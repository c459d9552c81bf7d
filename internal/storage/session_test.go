package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db := Open(filepath.Join(t.TempDir(), "test.db"))
	_, err := db.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSessionIDForRole_Deterministic(t *testing.T) {
	a := SessionIDForRole("growth")
	b := SessionIDForRole("growth")
	c := SessionIDForRole("analyst")
	require.Equal(t, a, b, "same role must always map to the same session")
	require.NotEqual(t, a, c, "different roles never share a session id")
}

func TestSessionStore_UpsertAndFind(t *testing.T) {
	db := testDB(t)
	store := NewSessionStore(db)
	ctx := context.Background()
	id := SessionIDForRole("growth")

	created := store.Upsert(ctx, id, "growth", "growth agent", map[string]any{"v": "1"})
	require.NotNil(t, created)
	require.Equal(t, id, created.ID)
	require.Equal(t, "growth", created.AgentRole)

	// Second upsert hits the conflict path: metadata and updated_at refresh,
	// created_at stays.
	time.Sleep(10 * time.Millisecond)
	updated := store.Upsert(ctx, id, "growth", "growth agent", map[string]any{"v": "2"})
	require.NotNil(t, updated)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.Equal(t, "2", updated.Metadata["v"])
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	found := store.Find(ctx, id)
	require.NotNil(t, found)
	require.Equal(t, "2", found.Metadata["v"])
}

func TestSessionStore_FindMissingReturnsNil(t *testing.T) {
	db := testDB(t)
	store := NewSessionStore(db)
	require.Nil(t, store.Find(context.Background(), "no-such-session"))
}

func TestSessionStore_UpdateMetadata(t *testing.T) {
	db := testDB(t)
	store := NewSessionStore(db)
	ctx := context.Background()
	id := SessionIDForRole("analyst")

	store.Upsert(ctx, id, "analyst", "analyst agent", nil)
	sess := store.UpdateMetadata(ctx, id, map[string]any{"message_count": float64(4)})
	require.NotNil(t, sess)
	require.Equal(t, float64(4), sess.Metadata["message_count"])
}

func TestSessionStore_DeleteCascades(t *testing.T) {
	db := testDB(t)
	store := NewSessionStore(db)
	ctx := context.Background()
	id := SessionIDForRole("growth")
	store.Upsert(ctx, id, "growth", "growth agent", nil)

	conn, err := db.Conn()
	require.NoError(t, err)
	now := time.Now().UTC()
	_, err = conn.ExecContext(ctx, `INSERT INTO messages (id, agent_role, session_id, role, content, metadata, created_at) VALUES ('m1','growth',?, 'user','hi','',?)`, id, now)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO tool_executions (id, session_id, tool_name, input, output, status, executed_at) VALUES ('e1',?,'shopify_get_orders','{}','','pending',?)`, id, now)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO integration_connections (id, session_id, integration_name, status, credentials, metadata, last_sync_at, created_at, updated_at) VALUES ('c1',?,'shopify','connected','','{}',?,?,?)`, id, now, now, now)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))

	require.Nil(t, store.Find(ctx, id))
	for _, q := range []string{
		`SELECT COUNT(*) FROM messages WHERE session_id = ?`,
		`SELECT COUNT(*) FROM tool_executions WHERE session_id = ?`,
		`SELECT COUNT(*) FROM integration_connections WHERE session_id = ?`,
	} {
		var n int
		require.NoError(t, conn.QueryRowContext(ctx, q, id).Scan(&n))
		require.Zero(t, n, "cascade delete must remove all owned rows")
	}
}

func TestDB_CloseIsIdempotent(t *testing.T) {
	db := Open(filepath.Join(t.TempDir(), "test.db"))
	_, err := db.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "second close is a no-op")

	_, err = db.Conn()
	require.ErrorIs(t, err, ErrClosed)
}

func TestDB_ConnBeforeAcquire(t *testing.T) {
	db := Open(filepath.Join(t.TempDir(), "test.db"))
	_, err := db.Conn()
	require.ErrorIs(t, err, ErrNotAcquired)
}
