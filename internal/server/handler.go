// Package server provides the HTTP surface: integration management
// endpoints, the generation-key probe and the websocket chat channel.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/growthmate/agent-server/internal/agent"
	"github.com/growthmate/agent-server/internal/config"
	"github.com/growthmate/agent-server/internal/integration"
	"github.com/growthmate/agent-server/internal/llm"
	"github.com/growthmate/agent-server/internal/logger"
)

// Handler carries the dependencies shared by all HTTP endpoints.
type Handler struct {
	cfg        config.Config
	registry   *integration.Registry
	supervisor *agent.Supervisor
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(cfg config.Config, registry *integration.Registry, supervisor *agent.Supervisor) *Handler {
	return &Handler{cfg: cfg, registry: registry, supervisor: supervisor}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Warn("response encode failed", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// integrationView is one entry of the GET /api/integrations response.
type integrationView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tools       []string `json:"tools"`
	Connected   bool     `json:"connected"`
	LastSync    *string  `json:"lastSync"`
	ToolsCount  int      `json:"toolsCount"`
}

// ListIntegrations handles GET /api/integrations?sessionId=S.
func (h *Handler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")

	connected := map[string]integration.Connection{}
	if sessionID != "" {
		conns, err := h.registry.List(r.Context(), sessionID)
		if err != nil {
			JSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "failed to list integrations",
				"details": err.Error(),
			})
			return
		}
		for _, c := range conns {
			connected[c.IntegrationName] = c
		}
	}

	var views []integrationView
	for _, in := range integration.All() {
		names := make([]string, 0, len(in.Tools))
		for _, t := range in.Tools {
			names = append(names, t.Name())
		}
		v := integrationView{
			ID:          in.Name,
			Name:        in.Name,
			Description: in.Description,
			Category:    in.Category,
			Tools:       names,
			ToolsCount:  len(names),
		}
		if c, ok := connected[in.Name]; ok && c.Status == integration.StatusConnected {
			v.Connected = true
			if c.LastSyncAt != nil {
				s := c.LastSyncAt.UTC().Format(time.RFC3339Nano)
				v.LastSync = &s
			}
		}
		views = append(views, v)
	}

	JSON(w, http.StatusOK, map[string]any{"integrations": views})
}

// ConnectIntegration handles POST /api/integrations/{name}?sessionId=S.
func (h *Handler) ConnectIntegration(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sessionID := r.URL.Query().Get("sessionId")

	if _, ok := integration.Lookup(name); !ok {
		Error(w, http.StatusNotFound, "unknown integration: "+name)
		return
	}
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	if _, err := h.registry.Connect(r.Context(), sessionID, name, nil); err != nil {
		JSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "failed to connect integration",
			"details": err.Error(),
		})
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"integration": name,
		"status":      integration.StatusConnected,
		"message":     name + " connected",
	})
}

// DisconnectIntegration handles DELETE /api/integrations/{name}?sessionId=S.
func (h *Handler) DisconnectIntegration(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sessionID := r.URL.Query().Get("sessionId")

	if _, ok := integration.Lookup(name); !ok {
		Error(w, http.StatusNotFound, "unknown integration: "+name)
		return
	}
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	if _, err := h.registry.Disconnect(r.Context(), sessionID, name); err != nil {
		JSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "failed to disconnect integration",
			"details": err.Error(),
		})
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"integration": name,
		"status":      integration.StatusDisconnected,
		"message":     name + " disconnected",
	})
}

// CheckGenerationKey handles GET /check-generation-key.
func (h *Handler) CheckGenerationKey(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]bool{"success": llm.KeyConfigured(h.cfg.LLM)})
}
