package websocket

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kandev/kandev/internal/common/logger"
	"github.com/kandev/kandev/internal/core/view"
	"github.com/kandev/kandev/internal/hostapi"
	ws "github.com/kandev/kandev/pkg/websocket"
)

// Gateway is the unified WebSocket gateway: it dispatches client commands
// through internal/hostapi.Dispatch and pushes internal/core/view.Frame
// updates to subscribed clients.
type Gateway struct {
	Hub        *Hub
	Dispatcher *ws.Dispatcher
	Handler    *Handler
	logger     *logger.Logger
}

// NewGateway creates a new WebSocket gateway with all components initialized.
func NewGateway(log *logger.Logger) *Gateway {
	dispatcher := ws.NewDispatcher()
	hub := NewHub(dispatcher, log)
	handler := NewHandler(hub, log)

	RegisterHealthHandler(dispatcher)

	return &Gateway{
		Hub:        hub,
		Dispatcher: dispatcher,
		Handler:    handler,
		logger:     log,
	}
}

// commandPayload is the generic shape accepted by every command action:
// either a raw command line, or a structured role/name/agent/format set
// that gets assembled into one.
type commandPayload struct {
	Command string `json:"command,omitempty"`
	Role    string `json:"role,omitempty"`
	Name    string `json:"name,omitempty"`
	Agent   string `json:"agent,omitempty"`
	Format  string `json:"format,omitempty"`
}

// BindDeps wires the hostapi.Deps used by this process into the
// dispatcher, registering one handler per command action. Must be called
// before SetupRoutes so the /ws route serves live commands.
func (g *Gateway) BindDeps(deps hostapi.Deps) {
	register := func(action string, build func(commandPayload) string) {
		g.Dispatcher.RegisterFunc(action, func(_ context.Context, msg *ws.Message) (*ws.Message, error) {
			var p commandPayload
			if err := msg.ParsePayload(&p); err != nil {
				return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "invalid payload: "+err.Error(), nil)
			}
			cmd := p.Command
			if cmd == "" {
				cmd = build(p)
			}
			out, err := hostapi.Dispatch(cmd, deps)
			if err != nil {
				return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, err.Error(), nil)
			}
			return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{"output": out})
		})
	}

	register(ws.ActionStatus, func(commandPayload) string { return "status" })
	register(ws.ActionConfigList, func(commandPayload) string { return "config.list" })
	register(ws.ActionAgentList, func(p commandPayload) string {
		return strings.TrimSpace("agent.list " + p.Format)
	})
	register(ws.ActionAgentNew, func(p commandPayload) string {
		return strings.TrimSpace(fmt.Sprintf("agent.new %s %s", p.Role, p.Name))
	})
	register(ws.ActionAgentKill, func(p commandPayload) string {
		name := p.Name
		if name == "" {
			name = p.Agent
		}
		return "agent.kill " + name
	})
	register(ws.ActionTaskList, func(p commandPayload) string {
		return strings.TrimSpace("task.list " + p.Format)
	})
	register(ws.ActionProjectList, func(p commandPayload) string {
		return strings.TrimSpace("project.list " + p.Format)
	})
	register(ws.ActionCommand, func(p commandPayload) string { return p.Command })
}

// PushFrame marshals one view.Frame as a notification and pushes it to
// every client subscribed to its agent (or to every agent).
func (g *Gateway) PushFrame(frame view.Frame) {
	msg, err := ws.NewNotification(ws.ActionFramePush, frame)
	if err != nil {
		g.logger.Error("failed to build frame notification")
		return
	}
	g.Hub.PushFrame(frame.Agent, msg)
}

// SetupRoutes adds the WebSocket route to the Gin engine.
func (g *Gateway) SetupRoutes(router *gin.Engine) {
	router.GET("/ws", g.Handler.HandleConnection)
}
