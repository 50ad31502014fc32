package hostapi

import (
	"strings"
	"testing"

	"github.com/kandev/kandev/internal/core/lifecycle"
	"github.com/kandev/kandev/internal/core/notify"
	"github.com/kandev/kandev/internal/core/scheduler"
	"github.com/kandev/kandev/internal/core/spawnqueue"
	"github.com/kandev/kandev/internal/core/taskgraph"
)

func deps() Deps {
	return Deps{
		Lifecycle: lifecycle.NewManager(lifecycle.Config{StallTimeoutMs: 10000, MaxRecoveryAttempts: 2}),
		Tasks:     taskgraph.New(),
		Scheduler: scheduler.New(scheduler.Policy{Kind: scheduler.Fifo}),
		Notify:    notify.New(100),
		Spawn:     spawnqueue.New(2),
		Settings:  map[string]string{"stall_timeout_ms": "10000"},
		Now:       func() int64 { return 1000 },
	}
}

func TestDispatchStatus(t *testing.T) {
	out, err := Dispatch("status", deps())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "agents:") {
		t.Fatalf("expected agents summary, got %q", out)
	}
}

func TestDispatchAgentNewQueuesSpawn(t *testing.T) {
	d := deps()
	out, err := Dispatch("agent.new worker w1", d)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "w1") {
		t.Fatalf("expected queued message, got %q", out)
	}
	if r := d.Spawn.StartNext(1000); r == nil || r.Name != "w1" {
		t.Fatalf("expected w1 to start, got %+v", r)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	if _, err := Dispatch("bogus.command here", deps()); err == nil {
		t.Fatal("expected error for unknown multi-word command")
	}
}

func TestDispatchConfigList(t *testing.T) {
	out, err := Dispatch("config.list", deps())
	if err != nil {
		t.Fatal(err)
	}
	if out != "stall_timeout_ms=10000" {
		t.Fatalf("unexpected config.list output: %q", out)
	}
}
