package remote

import (
	"errors"
	"testing"

	"github.com/kandev/kandev/internal/core/coreerr"
)

func TestProvisionEnforcesPerRemoteCap(t *testing.T) {
	p := NewPool(1)
	if err := p.Provision("w1", "host1"); err != nil {
		t.Fatal(err)
	}
	if err := p.Provision("w2", "host1"); !errors.Is(err, coreerr.ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
	if err := p.Provision("w3", "host2"); err != nil {
		t.Fatalf("expected a different remote to have its own cap, got %v", err)
	}
}

func TestProvisionDuplicateNameFails(t *testing.T) {
	p := NewPool(2)
	p.Provision("w1", "host1")
	if err := p.Provision("w1", "host1"); !errors.Is(err, coreerr.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestFullLifecycleToDecommissioned(t *testing.T) {
	p := NewPool(2)
	p.Provision("w1", "host1")
	steps := []WorkerStatus{Syncing, Ready}
	for _, s := range steps {
		if err := p.Transition("w1", s); err != nil {
			t.Fatalf("transition to %v failed: %v", s, err)
		}
	}
	if err := p.AssignTask("w1", "T1", "agent-a", "cmd-1"); err != nil {
		t.Fatal(err)
	}
	w, _ := p.Get("w1")
	if w.Status != Executing || w.TaskID != "T1" {
		t.Fatalf("expected Executing with task T1, got %+v", w)
	}
	if err := p.Transition("w1", CollectingResults); err != nil {
		t.Fatal(err)
	}
	if err := p.CompleteTask("w1"); err != nil {
		t.Fatal(err)
	}
	w, _ = p.Get("w1")
	if w.Status != WorkerIdle || w.TaskID != "" {
		t.Fatalf("expected Idle with cleared assignment, got %+v", w)
	}
	if err := p.AssignTask("w1", "T2", "agent-b", "cmd-2"); err != nil {
		t.Fatal(err)
	}
	if err := p.Transition("w1", CollectingResults); err != nil {
		t.Fatal(err)
	}
	if err := p.CompleteTask("w1"); err != nil {
		t.Fatal(err)
	}
	if err := p.Decommission("w1"); err != nil {
		t.Fatal(err)
	}
	w, _ = p.Get("w1")
	if w.Status != Decommissioned {
		t.Fatalf("expected Decommissioned, got %v", w.Status)
	}
}

func TestDecommissionedWorkerFreesCapAndRejectsTransitions(t *testing.T) {
	p := NewPool(1)
	p.Provision("w1", "host1")
	p.Decommission("w1")

	if err := p.Provision("w2", "host1"); err != nil {
		t.Fatalf("expected a decommissioned worker not to count against cap, got %v", err)
	}
	if err := p.Transition("w1", Syncing); !errors.Is(err, coreerr.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState transitioning out of Decommissioned, got %v", err)
	}
}

func TestAssignTaskRequiresReadyOrIdle(t *testing.T) {
	p := NewPool(1)
	p.Provision("w1", "host1")
	if err := p.AssignTask("w1", "T1", "agent-a", "cmd-1"); !errors.Is(err, coreerr.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState assigning to a Provisioning worker, got %v", err)
	}
}

func TestCompleteTaskRequiresActiveAssignment(t *testing.T) {
	p := NewPool(1)
	p.Provision("w1", "host1")
	if err := p.CompleteTask("w1"); !errors.Is(err, coreerr.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState completing a task on an unassigned worker, got %v", err)
	}
}

func TestUnknownWorkerOperationsFail(t *testing.T) {
	p := NewPool(1)
	if err := p.Transition("ghost", Ready); !errors.Is(err, coreerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := p.Get("ghost"); !errors.Is(err, coreerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
