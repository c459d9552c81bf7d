// Package agent implements the per-instance connection lifecycle and the
// tool capability resolution that feeds each chat turn.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/qmuntal/stateless"
	"github.com/sashabaranov/go-openai"

	"github.com/growthmate/agent-server/internal/config"
	"github.com/growthmate/agent-server/internal/history"
	"github.com/growthmate/agent-server/internal/integration"
	"github.com/growthmate/agent-server/internal/llm"
	"github.com/growthmate/agent-server/internal/logger"
	"github.com/growthmate/agent-server/internal/storage"
	"github.com/growthmate/agent-server/pkg/tools"
)

// Lifecycle states
type LifecycleState stateless.State

var (
	StateUninitialized  LifecycleState = "Uninitialized"
	StateConnecting     LifecycleState = "Connecting"
	StateActive         LifecycleState = "Active"
	StateActiveDegraded LifecycleState = "ActiveDegraded"
	StateClosing        LifecycleState = "Closing"
	StateClosed         LifecycleState = "Closed"
)

// Lifecycle triggers
type LifecycleTrigger stateless.Trigger

var (
	TriggerConnect            LifecycleTrigger = "Connect"
	TriggerRestoreCompleted   LifecycleTrigger = "RestoreCompleted"
	TriggerStorageUnavailable LifecycleTrigger = "StorageUnavailable"
	TriggerCloseRequested     LifecycleTrigger = "CloseRequested"
	TriggerCloseCompleted     LifecycleTrigger = "CloseCompleted"
)

var (
	// ErrNotReady rejects chat turns that arrive before the transcript
	// restore has completed.
	ErrNotReady = errors.New("agent instance not ready")
	// ErrInstanceClosed rejects any use of a closed instance.
	ErrInstanceClosed = errors.New("agent instance closed")
)

const defaultSystemPrompt = "You are a growth marketing assistant. Use the connected integration tools to answer with concrete data, and say so when an integration is not connected."

// TurnHooks receives streaming callbacks while a chat turn runs. Nil
// functions are skipped.
type TurnHooks struct {
	TextDelta func(text string)
	ToolEvent func(name, status string)
}

func (h TurnHooks) toolEvent(name, status string) {
	if h.ToolEvent != nil {
		h.ToolEvent(name, status)
	}
}

// Controller ties storage, history, capability resolution and the generation
// provider together around one durable agent instance. The platform delivers
// at most one logical request at a time; the mutex enforces that boundary for
// callers sharing the instance.
type Controller struct {
	mu sync.Mutex

	agentRole string
	agentName string
	sessionID string

	cfg       config.Config
	llmClient llm.Client

	db       *storage.DB
	sessions *storage.SessionStore
	hist     *history.Manager
	execLog  *storage.ExecutionLog
	resolver *Resolver

	fsm      *stateless.StateMachine
	degraded bool
}

// NewController creates an uninitialized controller for one agent role. Each
// controller owns its single storage connection; no I/O happens until
// Connect.
func NewController(cfg config.Config, agentRole string, llmClient llm.Client) *Controller {
	db := storage.Open(cfg.Storage.Path)
	sessionID := storage.SessionIDForRole(agentRole)

	c := &Controller{
		agentRole: agentRole,
		agentName: agentRole + " agent",
		sessionID: sessionID,
		cfg:       cfg,
		llmClient: llmClient,
		db:        db,
		sessions:  storage.NewSessionStore(db),
		hist:      history.NewManager(db, agentRole, sessionID),
		execLog:   storage.NewExecutionLog(db),
		resolver:  NewResolver(integration.NewRegistry(db), cfg.Agent.DefaultOpen),
	}

	fsm := stateless.NewStateMachine(StateUninitialized)
	fsm.Configure(StateUninitialized).
		Permit(TriggerConnect, StateConnecting).
		Permit(TriggerCloseRequested, StateClosing)
	fsm.Configure(StateConnecting).
		Permit(TriggerRestoreCompleted, StateActive).
		Permit(TriggerStorageUnavailable, StateActiveDegraded).
		Permit(TriggerCloseRequested, StateClosing)
	fsm.Configure(StateActive).
		OnEntry(func(_ context.Context, _ ...any) error {
			logger.L.Info("agent instance active", "agent_role", agentRole, "session_id", sessionID)
			return nil
		}).
		Permit(TriggerCloseRequested, StateClosing)
	fsm.Configure(StateActiveDegraded).
		OnEntry(func(_ context.Context, _ ...any) error {
			logger.L.Warn("agent instance active without persistence", "agent_role", agentRole)
			return nil
		}).
		Permit(TriggerCloseRequested, StateClosing)
	fsm.Configure(StateClosing).
		Permit(TriggerCloseCompleted, StateClosed)
	c.fsm = fsm

	return c
}

// SessionID returns the deterministic session id for this instance's role.
func (c *Controller) SessionID() string { return c.sessionID }

// State returns the current lifecycle state.
func (c *Controller) State() LifecycleState {
	return LifecycleState(c.fsm.MustState())
}

// Connect handles an inbound client connection. The first connection
// acquires storage, upserts the session and restores the transcript; later
// connections for the same role share the already-initialized instance. No
// chat turn is accepted until the restore has completed.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StateActive, StateActiveDegraded:
		return nil
	case StateClosing, StateClosed:
		return ErrInstanceClosed
	case StateConnecting:
		return ErrNotReady
	}

	if err := c.fsm.Fire(TriggerConnect); err != nil {
		return err
	}

	if _, err := c.db.Acquire(ctx); err != nil {
		// Storage trouble at startup is non-fatal: chat runs without
		// persistence for the life of this instance.
		logger.L.Warn("storage unavailable at startup", "agent_role", c.agentRole, "error", err)
		c.degraded = true
		return c.fsm.Fire(TriggerStorageUnavailable)
	}

	c.sessions.Upsert(ctx, c.sessionID, c.agentRole, c.agentName, map[string]any{
		"connected_at": time.Now().UTC().Format(time.RFC3339),
	})
	c.hist.Restore(ctx, c.cfg.Agent.HistoryLimit)

	return c.fsm.Fire(TriggerRestoreCompleted)
}

// ProcessTurn runs one chat turn: persist the inbound message under the
// threshold gate, resolve the tool set, invoke generation with transcript
// and tools, then persist the reply and refresh session metadata. Generation
// failures are recorded best-effort as a system message and propagated
// unchanged; persistence failures never abort the turn.
func (c *Controller) ProcessTurn(ctx context.Context, input string, hooks TurnHooks) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StateActive, StateActiveDegraded:
	case StateUninitialized, StateConnecting:
		return "", ErrNotReady
	default:
		return "", ErrInstanceClosed
	}

	c.append(ctx, history.NewMessage(c.agentRole, c.sessionID, history.RoleUser, input))

	toolset := c.resolver.Resolve(ctx, c.agentRole, c.sessionID)

	reply, err := c.generate(ctx, toolset, hooks)
	if err != nil {
		if ctx.Err() != nil {
			// An external abort is not a terminal application error; leave
			// no system record behind.
			return "", err
		}
		c.append(ctx, history.NewMessage(c.agentRole, c.sessionID, history.RoleSystem,
			"generation failed: "+err.Error()))
		return "", err
	}

	c.append(ctx, history.NewMessage(c.agentRole, c.sessionID, history.RoleAssistant, reply))
	c.refreshSessionMetadata(ctx)
	return reply, nil
}

// Close flushes the transcript unconditionally and releases the storage
// connection exactly once. A second close is a no-op.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StateClosing, StateClosed:
		return nil
	}
	if err := c.fsm.Fire(TriggerCloseRequested); err != nil {
		return err
	}

	if !c.degraded {
		if _, err := c.db.Conn(); err == nil {
			c.hist.FlushOnClose(ctx)
		}
	}
	err := c.db.Close()
	if fireErr := c.fsm.Fire(TriggerCloseCompleted); fireErr != nil {
		logger.L.Warn("lifecycle close transition", "error", fireErr)
	}
	logger.L.Info("agent instance closed", "agent_role", c.agentRole)
	return err
}

// append records a message in the transcript, writing through to storage
// under the threshold gate unless the instance runs degraded.
func (c *Controller) append(ctx context.Context, msg history.Message) {
	if c.degraded {
		c.hist.AppendLocal(msg)
		return
	}
	c.hist.Append(ctx, msg)
}

func (c *Controller) refreshSessionMetadata(ctx context.Context) {
	if c.degraded {
		return
	}
	c.sessions.UpdateMetadata(ctx, c.sessionID, map[string]any{
		"last_activity": time.Now().UTC().Format(time.RFC3339),
		"message_count": c.hist.Len(),
	})
}

// generate drives the LLM/tool interaction loop for one turn.
func (c *Controller) generate(ctx context.Context, toolset map[string]tools.Tool, hooks TurnHooks) (string, error) {
	systemPrompt := c.cfg.LLM.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	}}
	for _, m := range c.hist.Transcript() {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	llmTools := toOpenAITools(toolset)

	maxTurns := c.cfg.Agent.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}

	for turn := 0; turn < maxTurns; turn++ {
		resp, err := c.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    c.cfg.LLM.Model,
			Messages: messages,
			Tools:    llmTools,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("generation returned no choices")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			result := c.invokeTool(ctx, toolset, call, hooks)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
	}
	return "", errors.New("exceeded maximum interaction turns")
}

// invokeTool executes one requested capability, logging its lifecycle as a
// tool execution record (pending, then exactly one terminal update).
func (c *Controller) invokeTool(ctx context.Context, toolset map[string]tools.Tool, call openai.ToolCall, hooks TurnHooks) string {
	name := call.Function.Name

	var execID string
	if !c.degraded {
		execID = c.execLog.Begin(ctx, c.sessionID, name, call.Function.Arguments)
	}
	hooks.toolEvent(name, "started")

	tool, ok := toolset[name]
	if !ok {
		c.execLog.Complete(ctx, execID, "tool not available", storage.ExecutionError)
		hooks.toolEvent(name, "error")
		return "Error: tool not available: " + name
	}

	var args map[string]any
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			c.execLog.Complete(ctx, execID, "invalid arguments", storage.ExecutionError)
			hooks.toolEvent(name, "error")
			return "Error: could not parse arguments for tool " + name
		}
	}

	output, err := tool.Run(ctx, args)
	if err != nil {
		if ctx.Err() != nil {
			c.execLog.Complete(context.WithoutCancel(ctx), execID, "", storage.ExecutionCancelled)
			hooks.toolEvent(name, "cancelled")
			return "Error: tool execution cancelled"
		}
		c.execLog.Complete(ctx, execID, err.Error(), storage.ExecutionError)
		hooks.toolEvent(name, "error")
		return fmt.Sprintf("Error: tool %s failed: %v", name, err)
	}

	c.execLog.Complete(ctx, execID, output, storage.ExecutionSuccess)
	hooks.toolEvent(name, "success")
	logger.L.Debug("tool executed", "tool", name, "exec_id", execID)
	return output
}

func toOpenAITools(toolset map[string]tools.Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(toolset))
	for _, t := range toolset {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.InputSchema(),
			},
		})
	}
	return out
}
