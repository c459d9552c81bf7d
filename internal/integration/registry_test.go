package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/growthmate/agent-server/internal/storage"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	db := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	_, err := db.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRegistry(db)
}

func TestConnect_Idempotent(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	first, err := r.Connect(ctx, "s1", "shopify", nil)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, StatusConnected, first.Status)
	require.NotNil(t, first.LastSyncAt)

	time.Sleep(10 * time.Millisecond)
	second, err := r.Connect(ctx, "s1", "shopify", nil)
	require.NoError(t, err)
	require.NotNil(t, second)

	require.Equal(t, first.ID, second.ID, "repeated connect keeps a single row")
	require.Equal(t, StatusConnected, second.Status)
	require.True(t, second.LastSyncAt.After(*first.LastSyncAt), "last_sync_at advances")

	conns, err := r.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
}

func TestDisconnect_UnknownIsNoop(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	conn, err := r.Disconnect(ctx, "s1", "klaviyo")
	require.NoError(t, err)
	require.Nil(t, conn, "disconnecting an unknown integration is not an error")

	conns, err := r.List(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, conns, "no row is created")
}

func TestDisconnect_TogglesStatus(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	_, err := r.Connect(ctx, "s1", "google-ads", nil)
	require.NoError(t, err)

	conn, err := r.Disconnect(ctx, "s1", "google-ads")
	require.NoError(t, err)
	require.NotNil(t, conn)
	require.Equal(t, StatusDisconnected, conn.Status)

	status, err := r.Status(ctx, "s1", "google-ads")
	require.NoError(t, err)
	require.Equal(t, StatusDisconnected, status.Status)
}

func TestStatus_MissingRow(t *testing.T) {
	r := testRegistry(t)
	status, err := r.Status(context.Background(), "s1", "shopify")
	require.NoError(t, err)
	require.Nil(t, status)
}

func TestList_ScopedToSession(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	_, err := r.Connect(ctx, "s1", "shopify", nil)
	require.NoError(t, err)
	_, err = r.Connect(ctx, "s2", "klaviyo", nil)
	require.NoError(t, err)

	conns, err := r.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	require.Equal(t, "shopify", conns[0].IntegrationName)
}

func TestCatalog_Lookup(t *testing.T) {
	in, ok := Lookup("google-analytics")
	require.True(t, ok)
	require.NotEmpty(t, in.Tools)

	_, ok = Lookup("salesforce")
	require.False(t, ok)
}

func TestCandidatesForRole(t *testing.T) {
	growth := CandidatesForRole("growth")
	require.Len(t, growth, 4)

	analyst := CandidatesForRole("analyst")
	require.Len(t, analyst, 2)

	// Unknown roles fall back to the whole catalog.
	require.Len(t, CandidatesForRole("someone-new"), len(All()))
}
