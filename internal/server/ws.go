package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/growthmate/agent-server/internal/agent"
	"github.com/growthmate/agent-server/internal/logger"
)

// deltaChunkSize is how many runes of a reply go into one outbound delta
// frame.
const deltaChunkSize = 48

// inboundFrame is a client message on the chat channel.
type inboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// outboundFrame is a server message on the chat channel.
type outboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Chat handles GET /agents/{role}/chat: the duplex conversational channel
// for one agent role. Inbound frames carry chat turns; outbound frames carry
// text deltas and tool-invocation events.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	if role == "" {
		Error(w, http.StatusBadRequest, "missing agent role")
		return
	}
	log := logger.With("chat").With("agent_role", role)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.Server.AllowedOrigins,
	})
	if err != nil {
		log.Error("websocket accept failed", "error", err)
		return
	}
	defer func() {
		if cerr := ws.Close(websocket.StatusNormalClosure, "session ended"); cerr != nil {
			log.Debug("websocket close", "error", cerr)
		}
	}()

	ctx := r.Context()

	controller := h.supervisor.Acquire(role)
	defer h.supervisor.Release(context.WithoutCancel(ctx), role)

	if err := controller.Connect(ctx); err != nil {
		writeFrame(ctx, ws, outboundFrame{Type: "error", Error: err.Error()})
		return
	}
	writeFrame(ctx, ws, outboundFrame{Type: "ready", Content: controller.SessionID()})

	for {
		frame, err := readFrame(ctx, ws)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debug("websocket read", "error", err)
			}
			return
		}
		if frame.Type != "chat" {
			writeFrame(ctx, ws, outboundFrame{Type: "error", Error: "unsupported frame type: " + frame.Type})
			continue
		}

		hooks := agent.TurnHooks{
			ToolEvent: func(name, status string) {
				writeFrame(ctx, ws, outboundFrame{Type: "tool_invocation", Tool: name, Status: status})
			},
		}
		reply, err := controller.ProcessTurn(ctx, frame.Content, hooks)
		if err != nil {
			writeFrame(ctx, ws, outboundFrame{Type: "error", Error: err.Error()})
			continue
		}

		for _, chunk := range chunks(reply, deltaChunkSize) {
			writeFrame(ctx, ws, outboundFrame{Type: "delta", Content: chunk})
		}
		writeFrame(ctx, ws, outboundFrame{Type: "done"})
	}
}

func readFrame(ctx context.Context, ws *websocket.Conn) (inboundFrame, error) {
	var frame inboundFrame
	_, data, err := ws.Read(ctx)
	if err != nil {
		return frame, err
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		return frame, err
	}
	return frame, nil
}

func writeFrame(ctx context.Context, ws *websocket.Conn, frame outboundFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		logger.L.Warn("frame marshal failed", "error", err)
		return
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		logger.L.Debug("websocket write", "error", err)
	}
}

func chunks(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > 0 {
		n := size
		if n > len(runes) {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
