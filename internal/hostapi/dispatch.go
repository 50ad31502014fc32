// Package hostapi exposes the CLI-like command surface of spec.md §6 as
// an in-process, I/O-free Dispatch function: "status", "help [topic]",
// "agent.list [fmt]", "agent.new <role> [name]", "agent.kill <name>",
// "task.list [fmt]", "project.list [fmt]", "config.list", and an unknown
// single-word token treated as a view lookup. It is core-adjacent, not
// core itself: it reads and mutates the managers it is given but performs
// no process spawning or socket I/O of its own (spec.md §1 Non-goals).
// cmd/orchestrator wires thin Gin HTTP handlers and WebSocket actions on
// top of Dispatch (SPEC_FULL.md "DOMAIN STACK").
package hostapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kandev/kandev/internal/core/agentstate"
	"github.com/kandev/kandev/internal/core/lifecycle"
	"github.com/kandev/kandev/internal/core/notify"
	"github.com/kandev/kandev/internal/core/scheduler"
	"github.com/kandev/kandev/internal/core/spawnqueue"
	"github.com/kandev/kandev/internal/core/taskgraph"
	"github.com/kandev/kandev/internal/core/view"
)

// Deps bundles the managers Dispatch reads and mutates. The host
// constructs one per process and passes it to every Dispatch call; Deps
// holds no state of its own.
type Deps struct {
	Lifecycle *lifecycle.Manager
	Tasks     *taskgraph.Graph
	Scheduler *scheduler.Scheduler
	Notify    *notify.Center
	Spawn     *spawnqueue.Queue
	Settings  map[string]string
	Now       func() int64
}

var helpTopics = map[string]string{
	"agent":  "agent.list [fmt] | agent.new <role> [name] | agent.kill <name>",
	"task":   "task.list [fmt]",
	"config": "config.list",
}

// Dispatch parses and executes one command string, returning the
// rendered output or an error (spec.md §7 "command responses").
func Dispatch(cmd string, d Deps) (string, error) {
	fields := strings.Fields(strings.TrimSpace(cmd))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty command")
	}
	head, rest := fields[0], fields[1:]

	switch head {
	case "status":
		return dispatchStatus(d), nil
	case "help":
		return dispatchHelp(rest), nil
	case "agent.list":
		return dispatchAgentList(d, rest), nil
	case "agent.new":
		return dispatchAgentNew(d, rest)
	case "agent.kill":
		return dispatchAgentKill(d, rest)
	case "task.list":
		return dispatchTaskList(d, rest), nil
	case "project.list":
		return dispatchProjectList(d, rest), nil
	case "config.list":
		return dispatchConfigList(d), nil
	default:
		if len(fields) == 1 {
			return dispatchViewLookup(d, head)
		}
		return "", fmt.Errorf("unknown command: %s", head)
	}
}

func dispatchStatus(d Deps) string {
	now := d.Now()
	s := view.BuildStatusSummary(d.Lifecycle, d.Scheduler, d.Notify, now, 60000)
	return fmt.Sprintf(
		"agents: spawning=%d ready=%d busy=%d idle=%d stalled=%d recovering=%d stopping=%d dead=%d\npending_work=%d unread=%d scheduler_util=%.1f%%",
		s.Agents.Spawning, s.Agents.Ready, s.Agents.Busy, s.Agents.Idle,
		s.Agents.Stalled, s.Agents.Recovering, s.Agents.Stopping, s.Agents.Dead,
		s.PendingWork, s.Unread, s.SchedulerUtil,
	)
}

func dispatchHelp(rest []string) string {
	if len(rest) == 0 {
		topics := make([]string, 0, len(helpTopics))
		for t := range helpTopics {
			topics = append(topics, t)
		}
		sort.Strings(topics)
		return "topics: " + strings.Join(topics, ", ")
	}
	topic := rest[0]
	if msg, ok := helpTopics[topic]; ok {
		return msg
	}
	return fmt.Sprintf("no help for topic %q", topic)
}

func dispatchAgentList(d Deps, rest []string) string {
	all := d.Lifecycle.ByPredicate(func(agentstate.State) bool { return true })
	lines := view.AgentLines(d.Lifecycle, all)
	return renderLines(rest, len(lines), func(i int) string { return lines[i].Line() })
}

func dispatchAgentNew(d Deps, rest []string) (string, error) {
	if len(rest) == 0 {
		return "", fmt.Errorf("agent.new requires a role")
	}
	role := rest[0]
	name := role + "-agent"
	if len(rest) > 1 {
		name = rest[1]
	}
	now := d.Now()
	if _, err := d.Spawn.Enqueue(name, role, "", now); err != nil {
		return "", err
	}
	return fmt.Sprintf("queued spawn request %s (%s)", name, role), nil
}

func dispatchAgentKill(d Deps, rest []string) (string, error) {
	if len(rest) == 0 {
		return "", fmt.Errorf("agent.kill requires a name")
	}
	name := rest[0]
	now := d.Now()
	if _, err := d.Lifecycle.Transition(name, agentstate.Transition{Kind: agentstate.Killed}, now); err != nil {
		return "", err
	}
	return fmt.Sprintf("killed %s", name), nil
}

func dispatchTaskList(d Deps, rest []string) string {
	all := d.Tasks.All()
	lines := view.TaskLines(d.Tasks, all)
	return renderLines(rest, len(lines), func(i int) string { return lines[i].Line() })
}

// dispatchProjectList has no first-class "project" entity in the core
// (spec.md §1 treats on-disk directory layout as an external collaborator);
// it renders the set of distinct agent working paths instead, which is the
// closest thing the core owns to a project list.
func dispatchProjectList(d Deps, rest []string) string {
	seen := map[string]bool{}
	var paths []string
	for _, name := range d.Lifecycle.ByPredicate(func(agentstate.State) bool { return true }) {
		a, err := d.Lifecycle.Get(name)
		if err != nil || a.WorkingPath == "" || seen[a.WorkingPath] {
			continue
		}
		seen[a.WorkingPath] = true
		paths = append(paths, a.WorkingPath)
	}
	sort.Strings(paths)
	return renderLines(rest, len(paths), func(i int) string { return paths[i] })
}

func dispatchConfigList(d Deps) string {
	keys := make([]string, 0, len(d.Settings))
	for k := range d.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%s\n", k, d.Settings[k])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func dispatchViewLookup(d Deps, token string) (string, error) {
	if a, err := d.Lifecycle.Get(token); err == nil {
		return view.AgentLines(d.Lifecycle, []string{a.Name})[0].Line(), nil
	}
	if t, err := d.Tasks.Get(token); err == nil {
		return view.TaskLines(d.Tasks, []string{t.ID})[0].Line(), nil
	}
	return "", fmt.Errorf("no view for %q", token)
}

func renderLines(rest []string, n int, line func(i int) string) string {
	format := "text"
	if len(rest) > 0 {
		format = rest[0]
	}
	var rows []string
	for i := 0; i < n; i++ {
		rows = append(rows, line(i))
	}
	if format == "count" {
		return fmt.Sprintf("%d", n)
	}
	return strings.Join(rows, "\n")
}
