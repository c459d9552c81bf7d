package agent

import (
	"context"

	"github.com/growthmate/agent-server/internal/integration"
	"github.com/growthmate/agent-server/internal/logger"
	"github.com/growthmate/agent-server/pkg/tools"
)

// Resolver computes the set of callable tools for a role/session pair from
// the integration registry's connection state.
type Resolver struct {
	registry *integration.Registry

	// defaultOpen includes an integration's tools when the registry lookup
	// fails or no session context is supplied. Off by default: a failed
	// lookup excludes the bundle rather than silently granting it.
	defaultOpen bool
}

// NewResolver creates a resolver over the registry.
func NewResolver(registry *integration.Registry, defaultOpen bool) *Resolver {
	return &Resolver{registry: registry, defaultOpen: defaultOpen}
}

// Resolve returns a name-keyed mapping of the tools available to the agent
// role in this session. An integration's bundle is included iff its
// connection status is connected.
func (r *Resolver) Resolve(ctx context.Context, agentRole, sessionID string) map[string]tools.Tool {
	out := make(map[string]tools.Tool)
	for _, candidate := range integration.CandidatesForRole(agentRole) {
		if !r.include(ctx, sessionID, candidate.Name) {
			continue
		}
		for _, t := range candidate.Tools {
			out[t.Name()] = t
		}
	}
	return out
}

func (r *Resolver) include(ctx context.Context, sessionID, name string) bool {
	if sessionID == "" {
		return r.defaultOpen
	}
	conn, err := r.registry.Status(ctx, sessionID, name)
	if err != nil {
		logger.L.Warn("integration status lookup failed", "integration", name, "default_open", r.defaultOpen, "error", err)
		return r.defaultOpen
	}
	return conn != nil && conn.Status == integration.StatusConnected
}
