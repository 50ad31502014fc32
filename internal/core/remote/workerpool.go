package remote

import (
	"fmt"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// WorkerStatus tags a remote worker's lifecycle (spec.md §4.9
// "WorkerPool").
type WorkerStatus int

const (
	Provisioning WorkerStatus = iota
	Syncing
	Ready
	Executing
	CollectingResults
	WorkerIdle
	Decommissioned
)

func (s WorkerStatus) terminal() bool { return s == Decommissioned }

// countsAgainstCap reports whether a worker in this status counts
// against its remote's capacity cap.
func (s WorkerStatus) countsAgainstCap() bool { return s != Decommissioned }

// Worker is one named remote worker.
type Worker struct {
	Name      string
	Remote    string
	Status    WorkerStatus
	CommandID string
	TaskID    string
	AgentName string
}

var workerTransitions = map[WorkerStatus][]WorkerStatus{
	Provisioning:      {Syncing},
	Syncing:           {Ready},
	Ready:             {Executing},
	Executing:         {CollectingResults},
	CollectingResults: {WorkerIdle},
	WorkerIdle:        {Executing},
}

func canTransition(from, to WorkerStatus) bool {
	if to == Decommissioned {
		return from != Decommissioned
	}
	for _, allowed := range workerTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Pool enforces a per-remote worker cap across the Provisioning →
// Syncing → Ready → Executing{command_id} → CollectingResults → Idle
// (→ Executing again) → Decommissioned lifecycle.
type Pool struct {
	workers      map[string]*Worker
	maxPerRemote int
}

// NewPool creates a Pool capped at maxPerRemote non-terminal workers per
// remote.
func NewPool(maxPerRemote int) *Pool {
	return &Pool{workers: make(map[string]*Worker), maxPerRemote: maxPerRemote}
}

func (p *Pool) activeCountForRemote(remote string) int {
	n := 0
	for _, w := range p.workers {
		if w.Remote == remote && w.Status.countsAgainstCap() {
			n++
		}
	}
	return n
}

// Provision registers a new worker against remote's cap
// (spec.md §4.9, §7 "per-remote worker cap").
func (p *Pool) Provision(name, remote string) error {
	if _, exists := p.workers[name]; exists {
		return fmt.Errorf("%w: worker %q", coreerr.ErrAlreadyExists, name)
	}
	if p.maxPerRemote > 0 && p.activeCountForRemote(remote) >= p.maxPerRemote {
		return fmt.Errorf("%w: remote %q is at its worker cap", coreerr.ErrCapacity, remote)
	}
	p.workers[name] = &Worker{Name: name, Remote: remote, Status: Provisioning}
	return nil
}

func (p *Pool) get(name string) (*Worker, error) {
	w, ok := p.workers[name]
	if !ok {
		return nil, fmt.Errorf("%w: worker %q", coreerr.ErrNotFound, name)
	}
	return w, nil
}

// Transition moves a worker to a new status if the lifecycle allows it.
func (p *Pool) Transition(name string, to WorkerStatus) error {
	w, err := p.get(name)
	if err != nil {
		return err
	}
	if w.Status.terminal() {
		return fmt.Errorf("%w: worker %q is decommissioned", coreerr.ErrInvalidState, name)
	}
	if !canTransition(w.Status, to) {
		return fmt.Errorf("%w: worker %q cannot move from %v to %v", coreerr.ErrInvalidState, name, w.Status, to)
	}
	w.Status = to
	return nil
}

// AssignTask assigns a task+agent to a worker that is Ready or Idle
// (spec.md §4.9 "assign_task"), moving it to Executing.
func (p *Pool) AssignTask(name, taskID, agent, commandID string) error {
	w, err := p.get(name)
	if err != nil {
		return err
	}
	if w.Status != Ready && w.Status != WorkerIdle {
		return fmt.Errorf("%w: worker %q is not Ready or Idle", coreerr.ErrInvalidState, name)
	}
	w.TaskID = taskID
	w.AgentName = agent
	w.CommandID = commandID
	w.Status = Executing
	return nil
}

// CompleteTask clears the assignment and transitions the worker to Idle
// (spec.md §4.9 "complete_task").
func (p *Pool) CompleteTask(name string) error {
	w, err := p.get(name)
	if err != nil {
		return err
	}
	if w.Status != Executing && w.Status != CollectingResults {
		return fmt.Errorf("%w: worker %q has no task to complete", coreerr.ErrInvalidState, name)
	}
	w.TaskID = ""
	w.AgentName = ""
	w.CommandID = ""
	w.Status = WorkerIdle
	return nil
}

// Decommission moves a worker to the terminal Decommissioned state,
// freeing its slot in the remote's cap.
func (p *Pool) Decommission(name string) error {
	w, err := p.get(name)
	if err != nil {
		return err
	}
	if w.Status.terminal() {
		return fmt.Errorf("%w: worker %q is already decommissioned", coreerr.ErrInvalidState, name)
	}
	w.Status = Decommissioned
	return nil
}

// Get returns a copy of a worker's current state.
func (p *Pool) Get(name string) (Worker, error) {
	w, err := p.get(name)
	if err != nil {
		return Worker{}, err
	}
	return *w, nil
}
