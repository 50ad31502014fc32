// Package view builds line-oriented and frame-oriented view models from
// core state (spec.md §4 "View builder"). Every function here is pure:
// it reads the arguments given and returns a value, never touching a
// clock or performing I/O (spec.md §1 "produces... rendered view data
// for external consumers to execute, persist, or display").
package view

import (
	"fmt"
	"sort"

	"github.com/kandev/kandev/internal/common/stringutil"
	"github.com/kandev/kandev/internal/core/agentstate"
	"github.com/kandev/kandev/internal/core/lifecycle"
	"github.com/kandev/kandev/internal/core/notify"
	"github.com/kandev/kandev/internal/core/scheduler"
	"github.com/kandev/kandev/internal/core/taskgraph"
)

// taskTitleColumnWidth bounds TaskLine.Line's title column so a long
// task title can't push the status/agent columns out of alignment.
const taskTitleColumnWidth = 30

// AgentLine is one row of the agent listing.
type AgentLine struct {
	Name    string
	Role    string
	Status  string
	TaskID  string
	Healthy bool
}

// AgentLines renders a snapshot of the fleet's agents as lines, sorted by
// name for deterministic output (spec.md §6 "agent.list").
func AgentLines(m *lifecycle.Manager, names []string) []AgentLine {
	sort.Strings(names)
	out := make([]AgentLine, 0, len(names))
	for _, name := range names {
		a, err := m.Get(name)
		if err != nil {
			continue
		}
		out = append(out, AgentLine{
			Name:    a.Name,
			Role:    a.Role,
			Status:  a.State.Kind.String(),
			TaskID:  a.State.TaskID,
			Healthy: a.State.Kind != agentstate.Stalled && a.State.Kind != agentstate.Dead,
		})
	}
	return out
}

// TaskLine is one row of the task listing.
type TaskLine struct {
	ID      string
	Title   string
	Status  string
	AgentID string
}

// TaskLines renders the given task ids as lines, sorted by id.
func TaskLines(g *taskgraph.Graph, ids []string) []TaskLine {
	sort.Strings(ids)
	out := make([]TaskLine, 0, len(ids))
	for _, id := range ids {
		n, err := g.Get(id)
		if err != nil {
			continue
		}
		out = append(out, TaskLine{ID: n.ID, Title: n.Title, Status: n.Status.String(), AgentID: n.AgentID})
	}
	return out
}

// StatusSummary is the top-level "status" command's view model
// (spec.md §6 "CLI-like command strings").
type StatusSummary struct {
	Agents        lifecycle.Summary
	PendingWork   int
	Unread        int
	SchedulerUtil float64
}

// BuildStatusSummary assembles the point-in-time fleet/queue/notification
// rollup shown by the "status" command.
func BuildStatusSummary(m *lifecycle.Manager, sched *scheduler.Scheduler, center *notify.Center, now int64, windowMs int64) StatusSummary {
	metrics := sched.ComputeMetrics(now, windowMs, len(m.ByPredicate(func(agentstate.State) bool { return true })))
	return StatusSummary{
		Agents:        m.Summary(),
		PendingWork:   sched.Pending(),
		Unread:        len(center.Unread()),
		SchedulerUtil: metrics.UtilisationPct,
	}
}

// Line renders one human-readable row, matching the fixed-width style a
// terminal TUI or line-oriented log consumer expects.
func (a AgentLine) Line() string {
	task := a.TaskID
	if task == "" {
		task = "-"
	}
	return fmt.Sprintf("%-16s %-10s %-12s %s", a.Name, a.Role, a.Status, task)
}

// Line renders one task row.
func (t TaskLine) Line() string {
	agent := t.AgentID
	if agent == "" {
		agent = "-"
	}
	title := stringutil.TruncateStringWithEllipsis(t.Title, taskTitleColumnWidth)
	return fmt.Sprintf("%-10s %-30s %-12s %s", t.ID, title, t.Status, agent)
}

// Frame is a push-oriented view model for connected clients (spec.md §1
// "rendered view data for external consumers...to display"). Unlike the
// line renderers above, a Frame is addressed to one agent and carries the
// lifecycle event or notification it describes, so a client can render an
// incremental update instead of re-fetching the whole fleet. The websocket
// gateway's PushFrame sends a Frame to subscribed clients; no host code
// calls it, so no Frames are sent.
type Frame struct {
	Agent  string
	Kind   string // "lifecycle", "notification", "task"
	Event  *lifecycle.Event
	Item   *notify.Item
	Lines  []AgentLine
}

// FrameForTransition builds the Frame describing one lifecycle event.
func FrameForTransition(ev lifecycle.Event) Frame {
	return Frame{Agent: ev.Agent, Kind: "lifecycle", Event: &ev}
}

// FrameForNotification builds the Frame describing one notification item.
func FrameForNotification(agent string, item notify.Item) Frame {
	return Frame{Agent: agent, Kind: "notification", Item: &item}
}
