// Package taskgraph owns the TaskNode arena of spec.md §3 "Tasks": tasks
// are stored by id key in a flat map, never as owning pointer graphs
// (spec.md §9 "prefer arena-style task storage with id keys and
// string-key edges"). Child references are forward-only and validated
// by snapshot consistency (internal/core/journal), not by this package.
package taskgraph

import (
	"fmt"
	"sort"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// Status is the TaskNode lifecycle (spec.md §3 "Tasks").
type Status int

const (
	Pending Status = iota
	InProgress
	Completed
	Failed
	Paused
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Paused:
		return "paused"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Node is one TaskNode (spec.md §3).
type Node struct {
	ID       string
	Title    string
	Source   string
	Status   Status
	AgentID  string
	Result   string
	ChildIDs []string
	SpecPath string
}

// Graph is the exclusive owner of every TaskNode, keyed by id
// (spec.md §3 "Ownership and lifecycle").
type Graph struct {
	nodes map[string]*Node
	order []string
}

// New creates an empty task arena.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Create registers a new task. Fails if id is empty or already used
// (spec.md §3 "ids unique").
func (g *Graph) Create(id, title, source, specPath string) (*Node, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: task id must not be empty", coreerr.ErrInvalidInput)
	}
	if _, exists := g.nodes[id]; exists {
		return nil, fmt.Errorf("%w: task %q already exists", coreerr.ErrAlreadyExists, id)
	}
	n := &Node{ID: id, Title: title, Source: source, Status: Pending, SpecPath: specPath}
	g.nodes[id] = n
	g.order = append(g.order, id)
	return n, nil
}

// Get looks up a task by id.
func (g *Graph) Get(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %q", coreerr.ErrNotFound, id)
	}
	return n, nil
}

// AddChild appends childID to parentID's ordered child list. The
// reference is a plain string; existence is checked at snapshot time,
// not here (spec.md §9 "Cyclic task graphs do not exist... children are
// forward references, validated by snapshot consistency").
func (g *Graph) AddChild(parentID, childID string) error {
	p, err := g.Get(parentID)
	if err != nil {
		return err
	}
	p.ChildIDs = append(p.ChildIDs, childID)
	return nil
}

// Assign sets the task's agent reference, used alongside
// AgentStatusChanged(TaskAssigned) in the lifecycle manager.
func (g *Graph) Assign(id, agentID string) error {
	n, err := g.Get(id)
	if err != nil {
		return err
	}
	n.AgentID = agentID
	n.Status = InProgress
	return nil
}

// SetStatus transitions a task's status and, for Completed/Failed, its
// result text. Emitting the corresponding journal operation
// (TaskStatusChanged / TaskCompleted) is the caller's responsibility
// (spec.md §8 scenario D).
func (g *Graph) SetStatus(id string, status Status, result string) (Status, error) {
	n, err := g.Get(id)
	if err != nil {
		return 0, err
	}
	n.Status = status
	if result != "" {
		n.Result = result
	}
	return status, nil
}

// Remove forgets a task. Lifecycle events referencing it in the journal
// are unaffected; this only drops the live node.
func (g *Graph) Remove(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: task %q", coreerr.ErrNotFound, id)
	}
	delete(g.nodes, id)
	for i, n := range g.order {
		if n == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// ByPredicate returns task ids matching pred, sorted for deterministic
// output.
func (g *Graph) ByPredicate(pred func(*Node) bool) []string {
	var out []string
	for id, n := range g.nodes {
		if pred(n) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// All returns every task id in registration order.
func (g *Graph) All() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of live tasks.
func (g *Graph) Len() int { return len(g.nodes) }
