package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecutionLog_Lifecycle(t *testing.T) {
	db := testDB(t)
	log := NewExecutionLog(db)
	ctx := context.Background()

	id := log.Begin(ctx, "s1", "shopify_get_orders", `{"limit":3}`)
	require.NotEmpty(t, id)

	pending := log.Find(ctx, id)
	require.NotNil(t, pending)
	require.Equal(t, ExecutionPending, pending.Status)
	require.Empty(t, pending.Output)

	log.Complete(ctx, id, `{"orders":[]}`, ExecutionSuccess)

	done := log.Find(ctx, id)
	require.NotNil(t, done)
	require.Equal(t, ExecutionSuccess, done.Status)
	require.Equal(t, `{"orders":[]}`, done.Output)
}

func TestExecutionLog_CompleteWithoutBeginIsNoop(t *testing.T) {
	db := testDB(t)
	log := NewExecutionLog(db)
	ctx := context.Background()

	// Begin can fail to record under degraded storage; Complete with the
	// resulting empty id must do nothing.
	log.Complete(ctx, "", "output", ExecutionSuccess)

	execs, err := log.List(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, execs)
}

func TestExecutionLog_ListNewestFirst(t *testing.T) {
	db := testDB(t)
	log := NewExecutionLog(db)
	ctx := context.Background()

	first := log.Begin(ctx, "s1", "analytics_get_top_pages", "{}")
	second := log.Begin(ctx, "s1", "klaviyo_get_campaigns", "{}")
	log.Begin(ctx, "other", "shopify_get_orders", "{}")

	execs, err := log.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, execs, 2)
	ids := []string{execs[0].ID, execs[1].ID}
	require.Contains(t, ids, first)
	require.Contains(t, ids, second)
}
