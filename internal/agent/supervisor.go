package agent

import (
	"context"
	"sync"

	"github.com/growthmate/agent-server/internal/config"
	"github.com/growthmate/agent-server/internal/llm"
	"github.com/growthmate/agent-server/internal/logger"
)

// Supervisor hands out at most one live controller per agent role. Several
// physical connections for the same role share one instance; the instance is
// torn down when the last of them goes away.
type Supervisor struct {
	cfg       config.Config
	llmClient llm.Client

	mu        sync.Mutex
	instances map[string]*instance
}

type instance struct {
	controller *Controller
	refs       int
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor(cfg config.Config, llmClient llm.Client) *Supervisor {
	return &Supervisor{
		cfg:       cfg,
		llmClient: llmClient,
		instances: make(map[string]*instance),
	}
}

// Acquire returns the controller for a role, creating a fresh instance when
// none is live, and takes a reference on it.
func (s *Supervisor) Acquire(role string) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[role]
	if !ok || inst.controller.State() == StateClosed {
		inst = &instance{controller: NewController(s.cfg, role, s.llmClient)}
		s.instances[role] = inst
		logger.L.Info("agent instance created", "agent_role", role)
	}
	inst.refs++
	return inst.controller
}

// Release drops one reference; the last release closes the instance.
func (s *Supervisor) Release(ctx context.Context, role string) {
	s.mu.Lock()
	inst, ok := s.instances[role]
	if !ok {
		s.mu.Unlock()
		return
	}
	inst.refs--
	if inst.refs > 0 {
		s.mu.Unlock()
		return
	}
	delete(s.instances, role)
	s.mu.Unlock()

	if err := inst.controller.Close(ctx); err != nil {
		logger.L.Warn("agent instance close", "agent_role", role, "error", err)
	}
}

// CloseAll tears down every live instance; used on server shutdown.
func (s *Supervisor) CloseAll(ctx context.Context) {
	s.mu.Lock()
	instances := s.instances
	s.instances = make(map[string]*instance)
	s.mu.Unlock()

	for role, inst := range instances {
		if err := inst.controller.Close(ctx); err != nil {
			logger.L.Warn("agent instance close", "agent_role", role, "error", err)
		}
	}
}
