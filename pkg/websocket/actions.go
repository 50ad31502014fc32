package websocket

// Action constants for WebSocket messages. These mirror the CLI-like
// command surface of spec.md §6 (internal/hostapi.Dispatch) plus the
// subscribe/push actions a connected view client needs on top of it.
const (
	// Health
	ActionHealthCheck = "health.check"

	// Command dispatch: Payload carries the raw command string, handed
	// straight to hostapi.Dispatch.
	ActionCommand = "command.run"

	// Agent actions
	ActionAgentList = "agent.list"
	ActionAgentNew  = "agent.new"
	ActionAgentKill = "agent.kill"

	// Task actions
	ActionTaskList = "task.list"

	// Project / config actions
	ActionProjectList = "project.list"
	ActionConfigList  = "config.list"

	// Status
	ActionStatus = "status"

	// Subscription actions: a client subscribes to push Frames for one
	// agent, or "*" for every agent (internal/core/view.Frame).
	ActionAgentSubscribe   = "agent.subscribe"
	ActionAgentUnsubscribe = "agent.unsubscribe"

	// Push notifications (server -> client)
	ActionFramePush        = "frame.push"
	ActionNotificationPush = "notification.push"
)

// Error codes
const (
	ErrorCodeBadRequest    = "BAD_REQUEST"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeInternalError = "INTERNAL_ERROR"
	ErrorCodeUnauthorized  = "UNAUTHORIZED"
	ErrorCodeForbidden     = "FORBIDDEN"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeUnknownAction = "UNKNOWN_ACTION"
)
