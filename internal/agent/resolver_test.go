package agent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/growthmate/agent-server/internal/integration"
	"github.com/growthmate/agent-server/internal/storage"
)

func testRegistry(t *testing.T) *integration.Registry {
	t.Helper()
	db := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	_, err := db.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return integration.NewRegistry(db)
}

func TestResolve_OnlyConnectedIntegrations(t *testing.T) {
	registry := testRegistry(t)
	ctx := context.Background()
	sessionID := storage.SessionIDForRole("growth")

	_, err := registry.Connect(ctx, sessionID, "shopify", nil)
	require.NoError(t, err)
	_, err = registry.Connect(ctx, sessionID, "google-ads", nil)
	require.NoError(t, err)
	_, err = registry.Connect(ctx, sessionID, "klaviyo", nil)
	require.NoError(t, err)
	_, err = registry.Disconnect(ctx, sessionID, "klaviyo")
	require.NoError(t, err)

	resolver := NewResolver(registry, false)
	toolset := resolver.Resolve(ctx, "growth", sessionID)

	require.Contains(t, toolset, "shopify_get_orders")
	require.Contains(t, toolset, "google_ads_get_campaigns")
	require.NotContains(t, toolset, "klaviyo_get_campaigns", "disconnected bundle is excluded")
	require.NotContains(t, toolset, "analytics_get_traffic_report", "never-connected bundle is excluded")
}

func TestResolve_RoleScopesCandidates(t *testing.T) {
	registry := testRegistry(t)
	ctx := context.Background()
	sessionID := storage.SessionIDForRole("analyst")

	// google-ads is connected but not a candidate for the analyst role.
	_, err := registry.Connect(ctx, sessionID, "google-ads", nil)
	require.NoError(t, err)
	_, err = registry.Connect(ctx, sessionID, "shopify", nil)
	require.NoError(t, err)

	toolset := NewResolver(registry, false).Resolve(ctx, "analyst", sessionID)
	require.Contains(t, toolset, "shopify_get_orders")
	require.NotContains(t, toolset, "google_ads_get_campaigns")
}

func TestResolve_NoSession(t *testing.T) {
	registry := testRegistry(t)
	ctx := context.Background()

	require.Empty(t, NewResolver(registry, false).Resolve(ctx, "growth", ""),
		"default-closed excludes everything without session context")
	require.NotEmpty(t, NewResolver(registry, true).Resolve(ctx, "growth", ""),
		"default-open includes every candidate without session context")
}

func TestResolve_RegistryFailure(t *testing.T) {
	// A registry over never-acquired storage fails every lookup.
	broken := integration.NewRegistry(storage.Open(filepath.Join(t.TempDir(), "test.db")))
	ctx := context.Background()
	sessionID := storage.SessionIDForRole("growth")

	require.Empty(t, NewResolver(broken, false).Resolve(ctx, "growth", sessionID),
		"default-closed excludes bundles on lookup failure")

	open := NewResolver(broken, true).Resolve(ctx, "growth", sessionID)
	require.Contains(t, open, "shopify_get_orders", "default-open keeps chat continuity on lookup failure")
}
