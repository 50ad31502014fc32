// Package agentstate implements the pure agent lifecycle transition
// function described in spec.md §4.1. States and transitions are closed
// tagged unions, never an open type hierarchy (spec.md §9): Kind fields
// select the variant, and the variant-specific payload lives alongside it.
package agentstate

import (
	"fmt"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// Kind identifies one of the eight lifecycle states.
type Kind int

const (
	Spawning Kind = iota
	Ready
	Busy
	Idle
	Stalled
	Recovering
	Stopping
	Dead
)

func (k Kind) String() string {
	switch k {
	case Spawning:
		return "spawning"
	case Ready:
		return "ready"
	case Busy:
		return "busy"
	case Idle:
		return "idle"
	case Stalled:
		return "stalled"
	case Recovering:
		return "recovering"
	case Stopping:
		return "stopping"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// State is the full tagged union: Kind selects the active variant, and
// only the fields relevant to that variant are meaningful.
type State struct {
	Kind Kind

	// Busy
	TaskID string

	// Stalled
	StalledSinceMs int64
	StalledReason  string

	// Recovering
	Attempt int

	// Dead
	DeadReason string
}

// IsTerminal reports whether no outgoing transition can ever leave this state.
func (s State) IsTerminal() bool {
	return s.Kind == Dead
}

// IsAvailable reports whether the agent can accept a new task assignment.
func (s State) IsAvailable() bool {
	return s.Kind == Ready || s.Kind == Idle
}

// TransitionKind identifies a transition request.
type TransitionKind int

const (
	SpawnComplete TransitionKind = iota
	ErrorDetected
	Killed
	TaskAssigned
	StopRequested
	HeartbeatTimeout
	TaskCompleted
	RecoveryStarted
	RecoverySucceeded
	RecoveryFailed
)

// Transition carries a TransitionKind plus whatever payload that kind needs.
type Transition struct {
	Kind TransitionKind

	// ErrorDetected / RecoveryFailed
	Message string

	// TaskAssigned
	TaskID string

	// HeartbeatTimeout
	AgeMs int64
}

func invalid(from State, t Transition) error {
	return fmt.Errorf("%w: cannot apply %s to agent in state %s", coreerr.ErrInvalidState, transitionName(t.Kind), from.Kind)
}

func transitionName(k TransitionKind) string {
	switch k {
	case SpawnComplete:
		return "SpawnComplete"
	case ErrorDetected:
		return "ErrorDetected"
	case Killed:
		return "Killed"
	case TaskAssigned:
		return "TaskAssigned"
	case StopRequested:
		return "StopRequested"
	case HeartbeatTimeout:
		return "HeartbeatTimeout"
	case TaskCompleted:
		return "TaskCompleted"
	case RecoveryStarted:
		return "RecoveryStarted"
	case RecoverySucceeded:
		return "RecoverySucceeded"
	case RecoveryFailed:
		return "RecoveryFailed"
	default:
		return "Unknown"
	}
}

// Apply is the pure transition function of spec.md §4.1. It never mutates
// its argument and records no side effects: the caller (lifecycle.Manager)
// is responsible for appending the resulting lifecycle event.
func Apply(from State, t Transition) (State, error) {
	if from.Kind == Dead {
		return State{}, invalid(from, t)
	}

	switch from.Kind {
	case Spawning:
		switch t.Kind {
		case SpawnComplete:
			return State{Kind: Ready}, nil
		case ErrorDetected:
			return State{Kind: Dead, DeadReason: "spawn failed: " + t.Message}, nil
		case Killed:
			return State{Kind: Dead, DeadReason: "killed during spawn"}, nil
		}

	case Ready:
		switch t.Kind {
		case TaskAssigned:
			return State{Kind: Busy, TaskID: t.TaskID}, nil
		case StopRequested:
			return State{Kind: Stopping}, nil
		case Killed:
			return State{Kind: Dead, DeadReason: "killed while ready"}, nil
		case HeartbeatTimeout:
			return State{Kind: Stalled, StalledSinceMs: t.AgeMs, StalledReason: fmt.Sprintf("heartbeat timeout after %dms", t.AgeMs)}, nil
		}

	case Busy:
		switch t.Kind {
		case TaskCompleted:
			return State{Kind: Idle}, nil
		case HeartbeatTimeout:
			return State{Kind: Stalled, StalledSinceMs: t.AgeMs, StalledReason: fmt.Sprintf("heartbeat timeout after %dms while busy", t.AgeMs)}, nil
		case ErrorDetected:
			return State{Kind: Stalled, StalledSinceMs: 0, StalledReason: "error detected: " + t.Message}, nil
		case StopRequested:
			return State{Kind: Stopping}, nil
		case Killed:
			return State{Kind: Dead, DeadReason: "killed while busy"}, nil
		}

	case Idle:
		switch t.Kind {
		case TaskAssigned:
			return State{Kind: Busy, TaskID: t.TaskID}, nil
		case StopRequested:
			return State{Kind: Stopping}, nil
		case Killed:
			return State{Kind: Dead, DeadReason: "killed while idle"}, nil
		case HeartbeatTimeout:
			return State{Kind: Stalled, StalledSinceMs: t.AgeMs, StalledReason: fmt.Sprintf("heartbeat timeout after %dms while idle", t.AgeMs)}, nil
		}

	case Stalled:
		switch t.Kind {
		case RecoveryStarted:
			return State{Kind: Recovering, Attempt: 1}, nil
		case Killed:
			return State{Kind: Dead, DeadReason: "killed while stalled"}, nil
		case StopRequested:
			return State{Kind: Dead, DeadReason: "stopped while stalled: " + from.StalledReason}, nil
		}

	case Recovering:
		switch t.Kind {
		case RecoverySucceeded:
			return State{Kind: Ready}, nil
		case RecoveryFailed:
			return State{Kind: Dead, DeadReason: fmt.Sprintf("recovery failed after %d attempt(s): %s", from.Attempt, t.Message)}, nil
		case RecoveryStarted:
			return State{Kind: Recovering, Attempt: from.Attempt + 1}, nil
		case Killed:
			return State{Kind: Dead, DeadReason: "killed while recovering"}, nil
		}

	case Stopping:
		switch t.Kind {
		case Killed:
			return State{Kind: Dead, DeadReason: "killed while stopping"}, nil
		case StopRequested:
			return from, nil // idempotent
		}
	}

	return State{}, invalid(from, t)
}
