// Package lifecycle owns the fleet of agents: registration, transition
// application, stall sweeps, bounded recovery attempts, and the
// append-only lifecycle event history (spec.md §4.2).
package lifecycle

import (
	"fmt"

	"github.com/kandev/kandev/internal/core/agentstate"
)

// Agent is the data-model entity of spec.md §3. Role/Type/WorkingPath are
// free-form tags the host assigns meaning to; the manager only enforces
// name uniqueness and the state invariants.
type Agent struct {
	Name          string
	Role          string
	Type          string
	WorkingPath   string
	State         agentstate.State
	Health        string
	LastHeartbeat int64
	SessionName   string
}

// Event is one append-only lifecycle record (spec.md §3 "Lifecycle events").
type Event struct {
	Agent        string
	FromKind     agentstate.Kind
	ToKind       agentstate.Kind
	Transition   agentstate.TransitionKind
	TimestampMs  int64
}

func (e Event) String() string {
	return fmt.Sprintf("%s: %s -> %s @%d", e.Agent, e.FromKind, e.ToKind, e.TimestampMs)
}
