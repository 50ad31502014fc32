package view

import (
	"testing"

	"github.com/kandev/kandev/internal/core/agentstate"
	"github.com/kandev/kandev/internal/core/lifecycle"
	"github.com/kandev/kandev/internal/core/taskgraph"
)

func TestAgentLinesSortedAndFiltered(t *testing.T) {
	m := lifecycle.NewManager(lifecycle.Config{StallTimeoutMs: 1000, MaxRecoveryAttempts: 1})
	if _, err := m.Register("zebra", "worker", "generic", "/tmp", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Register("alpha", "worker", "generic", "/tmp", 0); err != nil {
		t.Fatal(err)
	}
	lines := AgentLines(m, []string{"zebra", "alpha", "missing"})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Name != "alpha" || lines[1].Name != "zebra" {
		t.Fatalf("expected sorted order, got %+v", lines)
	}
	if lines[0].Status != agentstate.Spawning.String() {
		t.Fatalf("expected spawning status, got %s", lines[0].Status)
	}
}

func TestTaskLinesRendersLine(t *testing.T) {
	g := taskgraph.New()
	if _, err := g.Create("T1", "do the thing", "manual", ""); err != nil {
		t.Fatal(err)
	}
	lines := TaskLines(g, []string{"T1"})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Line() == "" {
		t.Fatal("expected non-empty rendered line")
	}
}
