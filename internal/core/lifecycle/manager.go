package lifecycle

import (
	"fmt"
	"sort"

	"github.com/kandev/kandev/internal/core/agentstate"
	"github.com/kandev/kandev/internal/core/coreerr"
)

// Config holds the tunable thresholds the diagnosis engine (internal/core/diagnosis)
// adjusts at runtime; the host supplies the initial values from internal/common/config.
type Config struct {
	StallTimeoutMs      int64
	MaxRecoveryAttempts int
}

// Manager owns the fleet of agents and their lifecycle event history. It
// is the single owner of both (spec.md §3 "Ownership and lifecycle"):
// nothing else in the core mutates an Agent directly.
type Manager struct {
	cfg    Config
	agents map[string]*Agent
	// order preserves registration order for deterministic listing.
	order   []string
	history []Event
}

// NewManager creates an empty fleet manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:    cfg,
		agents: make(map[string]*Agent),
	}
}

// SetConfig replaces the tunable thresholds. Nothing in this repository
// calls it; the diagnosis engine does not feed adjusted timeouts back here.
func (m *Manager) SetConfig(cfg Config) {
	m.cfg = cfg
}

// Config returns the manager's current thresholds.
func (m *Manager) Config() Config {
	return m.cfg
}

// Register enters a new agent in the Spawning state and appends a
// registration event to the history. Fails if the name is already
// registered.
func (m *Manager) Register(name, role, typeTag, workingPath string, now int64) (*Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: agent name must not be empty", coreerr.ErrInvalidInput)
	}
	if _, exists := m.agents[name]; exists {
		return nil, fmt.Errorf("%w: agent %q already registered", coreerr.ErrAlreadyExists, name)
	}
	a := &Agent{
		Name:          name,
		Role:          role,
		Type:          typeTag,
		WorkingPath:   workingPath,
		State:         agentstate.State{Kind: agentstate.Spawning},
		LastHeartbeat: now,
	}
	m.agents[name] = a
	m.order = append(m.order, name)
	// Registration is not an agentstate transition, so its event carries an
	// out-of-range TransitionKind.
	m.history = append(m.history, Event{
		Agent:       name,
		FromKind:    agentstate.Spawning,
		ToKind:      agentstate.Spawning,
		Transition:  agentstate.TransitionKind(-1),
		TimestampMs: now,
	})
	return a, nil
}

// Remove forgets the agent's current state but preserves its history for
// audit (spec.md §3 "Lifecycle events... preserved across agent removal").
func (m *Manager) Remove(name string) error {
	if _, exists := m.agents[name]; !exists {
		return fmt.Errorf("%w: agent %q", coreerr.ErrNotFound, name)
	}
	delete(m.agents, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get looks up a registered agent by name.
func (m *Manager) Get(name string) (*Agent, error) {
	a, exists := m.agents[name]
	if !exists {
		return nil, fmt.Errorf("%w: agent %q", coreerr.ErrNotFound, name)
	}
	return a, nil
}

// Transition applies the agentstate transition table (spec.md §4.1) to the
// named agent and appends the resulting lifecycle event.
func (m *Manager) Transition(name string, t agentstate.Transition, now int64) (agentstate.State, error) {
	a, exists := m.agents[name]
	if !exists {
		return agentstate.State{}, fmt.Errorf("%w: agent %q", coreerr.ErrNotFound, name)
	}
	from := a.State
	to, err := agentstate.Apply(from, t)
	if err != nil {
		return agentstate.State{}, err
	}
	a.State = to
	if to.Kind == agentstate.Busy {
		// invariant: task_id present iff Busy.
	}
	m.history = append(m.history, Event{
		Agent:       name,
		FromKind:    from.Kind,
		ToKind:      to.Kind,
		Transition:  t.Kind,
		TimestampMs: now,
	})
	return to, nil
}

// HistoryAll returns the complete, append-only lifecycle event log.
func (m *Manager) HistoryAll() []Event {
	out := make([]Event, len(m.history))
	copy(out, m.history)
	return out
}

// HistoryFor returns the lifecycle events for a single agent, in order.
func (m *Manager) HistoryFor(agent string) []Event {
	var out []Event
	for _, e := range m.history {
		if e.Agent == agent {
			out = append(out, e)
		}
	}
	return out
}

// latestEventTimestamp returns the timestamp of the agent's most recent
// lifecycle event, or 0 if it has none (used by the stall sweep).
func (m *Manager) latestEventTimestamp(agent string) int64 {
	var latest int64
	for _, e := range m.history {
		if e.Agent == agent && e.TimestampMs > latest {
			latest = e.TimestampMs
		}
	}
	return latest
}

// ByPredicate returns the names of agents whose state matches pred,
// sorted for deterministic output.
func (m *Manager) ByPredicate(pred func(agentstate.State) bool) []string {
	var names []string
	for name, a := range m.agents {
		if pred(a.State) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Stalled returns agents currently Stalled.
func (m *Manager) Stalled() []string {
	return m.ByPredicate(func(s agentstate.State) bool { return s.Kind == agentstate.Stalled })
}

// Available returns agents that can accept a task assignment (Ready or Idle).
func (m *Manager) Available() []string {
	return m.ByPredicate(agentstate.State.IsAvailable)
}

// Dead returns agents in the terminal Dead state.
func (m *Manager) Dead() []string {
	return m.ByPredicate(func(s agentstate.State) bool { return s.Kind == agentstate.Dead })
}

// Busy returns agents currently executing a task.
func (m *Manager) Busy() []string {
	return m.ByPredicate(func(s agentstate.State) bool { return s.Kind == agentstate.Busy })
}

// Summary is a point-in-time count of agents per lifecycle state.
type Summary struct {
	Spawning, Ready, Busy, Idle, Stalled, Recovering, Stopping, Dead int
}

// Summary returns the current per-state agent counts.
func (m *Manager) Summary() Summary {
	var s Summary
	for _, a := range m.agents {
		switch a.State.Kind {
		case agentstate.Spawning:
			s.Spawning++
		case agentstate.Ready:
			s.Ready++
		case agentstate.Busy:
			s.Busy++
		case agentstate.Idle:
			s.Idle++
		case agentstate.Stalled:
			s.Stalled++
		case agentstate.Recovering:
			s.Recovering++
		case agentstate.Stopping:
			s.Stopping++
		case agentstate.Dead:
			s.Dead++
		}
	}
	return s
}

// StallSweep checks every Busy/Ready/Idle agent's age since its last
// lifecycle event and transitions any that have exceeded StallTimeoutMs
// into Stalled. It returns the names newly stalled (spec.md §4.2).
func (m *Manager) StallSweep(now int64) []string {
	var newlyStalled []string
	for _, name := range m.order {
		a, ok := m.agents[name]
		if !ok {
			continue
		}
		switch a.State.Kind {
		case agentstate.Busy, agentstate.Ready, agentstate.Idle:
		default:
			continue
		}
		age := now - m.latestEventTimestamp(name)
		if age < m.cfg.StallTimeoutMs {
			continue
		}
		if _, err := m.Transition(name, agentstate.Transition{Kind: agentstate.HeartbeatTimeout, AgeMs: age}, now); err == nil {
			newlyStalled = append(newlyStalled, name)
		}
	}
	return newlyStalled
}

// AttemptRecovery drives the Stalled/Recovering(n) agent one step forward
// per spec.md §4.2: Stalled -> Recovering(1); Recovering(n) -> Recovering(n+1)
// unless the attempt cap is reached, in which case it fails to Dead.
func (m *Manager) AttemptRecovery(name string, now int64) (agentstate.State, error) {
	a, err := m.Get(name)
	if err != nil {
		return agentstate.State{}, err
	}
	switch a.State.Kind {
	case agentstate.Stalled:
		return m.Transition(name, agentstate.Transition{Kind: agentstate.RecoveryStarted}, now)
	case agentstate.Recovering:
		if a.State.Attempt >= m.cfg.MaxRecoveryAttempts {
			return m.Transition(name, agentstate.Transition{Kind: agentstate.RecoveryFailed, Message: "max attempts reached"}, now)
		}
		return m.Transition(name, agentstate.Transition{Kind: agentstate.RecoveryStarted}, now)
	default:
		return agentstate.State{}, fmt.Errorf("%w: agent %q is not stalled or recovering", coreerr.ErrInvalidState, name)
	}
}
