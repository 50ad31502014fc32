package journal

import "fmt"

// OperationKind discriminates the journal's tagged union of mutating
// operations (spec.md §3 "Journal"). The discriminator's on-disk tag is
// the snake_case string returned by String (spec.md §6 "Journal file").
type OperationKind int

const (
	AgentRegistered OperationKind = iota
	AgentTransitioned
	AgentRemoved
	TaskCreated
	TaskStatusChanged
	TaskCompleted
	MessageSent
	MessageDelivered
	SessionCreated
	SessionKilled
	ConfigChanged
)

func (k OperationKind) String() string {
	switch k {
	case AgentRegistered:
		return "agent_registered"
	case AgentTransitioned:
		return "agent_transitioned"
	case AgentRemoved:
		return "agent_removed"
	case TaskCreated:
		return "task_created"
	case TaskStatusChanged:
		return "task_status_changed"
	case TaskCompleted:
		return "task_completed"
	case MessageSent:
		return "message_sent"
	case MessageDelivered:
		return "message_delivered"
	case SessionCreated:
		return "session_created"
	case SessionKilled:
		return "session_killed"
	case ConfigChanged:
		return "config_changed"
	default:
		return "unknown"
	}
}

// Operation is one journalled mutation. Only the fields relevant to Kind
// are populated; the rest are left zero.
type Operation struct {
	Kind OperationKind

	AgentName string
	Reason    string

	TaskID   string
	From     string
	To       string
	Result   string

	MessageID string
	Recipient string

	SessionName string

	ConfigKey   string
	ConfigValue string
}

// Serialize renders a deterministic, order-stable representation of the
// operation for checksum input. It is not the on-disk JSON form (see
// MarshalJSON) but must vary with every field the checksum protects.
func (op Operation) Serialize() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s",
		op.Kind, op.AgentName, op.Reason, op.TaskID, op.From, op.To, op.Result,
		op.MessageID, op.Recipient, op.SessionName, op.ConfigKey, op.ConfigValue)
}
