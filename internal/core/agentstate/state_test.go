package agentstate

import "testing"

func TestApply_TableDriven(t *testing.T) {
	tests := []struct {
		name     string
		from     State
		t        Transition
		wantKind Kind
		wantErr  bool
	}{
		{"spawn complete", State{Kind: Spawning}, Transition{Kind: SpawnComplete}, Ready, false},
		{"spawn error", State{Kind: Spawning}, Transition{Kind: ErrorDetected, Message: "boom"}, Dead, false},
		{"ready assign", State{Kind: Ready}, Transition{Kind: TaskAssigned, TaskID: "t1"}, Busy, false},
		{"ready stall", State{Kind: Ready}, Transition{Kind: HeartbeatTimeout, AgeMs: 9000}, Stalled, false},
		{"busy complete", State{Kind: Busy, TaskID: "t1"}, Transition{Kind: TaskCompleted}, Idle, false},
		{"busy error", State{Kind: Busy, TaskID: "t1"}, Transition{Kind: ErrorDetected, Message: "x"}, Stalled, false},
		{"idle assign", State{Kind: Idle}, Transition{Kind: TaskAssigned, TaskID: "t2"}, Busy, false},
		{"stalled recover", State{Kind: Stalled}, Transition{Kind: RecoveryStarted}, Recovering, false},
		{"stalled stop", State{Kind: Stalled, StalledReason: "r"}, Transition{Kind: StopRequested}, Dead, false},
		{"recovering succeed", State{Kind: Recovering, Attempt: 1}, Transition{Kind: RecoverySucceeded}, Ready, false},
		{"recovering again", State{Kind: Recovering, Attempt: 1}, Transition{Kind: RecoveryStarted}, Recovering, false},
		{"recovering fail", State{Kind: Recovering, Attempt: 2}, Transition{Kind: RecoveryFailed, Message: "nope"}, Dead, false},
		{"stopping killed", State{Kind: Stopping}, Transition{Kind: Killed}, Dead, false},
		{"stopping idempotent", State{Kind: Stopping}, Transition{Kind: StopRequested}, Stopping, false},
		{"dead rejects all", State{Kind: Dead}, Transition{Kind: SpawnComplete}, 0, true},
		{"ready rejects task completed", State{Kind: Ready}, Transition{Kind: TaskCompleted}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.from, tt.t)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got state %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, got.Kind)
			}
		})
	}
}

func TestApply_RecoveringAttemptIncrements(t *testing.T) {
	s := State{Kind: Stalled}
	s, err := Apply(s, Transition{Kind: RecoveryStarted})
	if err != nil || s.Attempt != 1 {
		t.Fatalf("expected attempt 1, got %+v err=%v", s, err)
	}
	s, err = Apply(s, Transition{Kind: RecoveryStarted})
	if err != nil || s.Attempt != 2 {
		t.Fatalf("expected attempt 2, got %+v err=%v", s, err)
	}
}

func TestApply_DeadIsTerminal(t *testing.T) {
	s := State{Kind: Dead}
	if !s.IsTerminal() {
		t.Fatal("expected dead to be terminal")
	}
	for _, k := range []TransitionKind{SpawnComplete, TaskAssigned, Killed, StopRequested} {
		if _, err := Apply(s, Transition{Kind: k}); err == nil {
			t.Errorf("expected transition %v from Dead to fail", k)
		}
	}
}
