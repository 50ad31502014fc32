package diagnosis

import "testing"

// TestReliabilityLearningScenario implements scenario F of spec.md §8.
func TestReliabilityLearningScenario(t *testing.T) {
	e := New(0)
	for i := 0; i < 8; i++ {
		id := e.RecordSignal("w1", "HeartbeatStale", "stale", int64(i*1000))
		if err := e.RecordOutcome(id, "restart", Resolved, "", int64(i*1000+500)); err != nil {
			t.Fatal(err)
		}
	}
	for i := 8; i < 10; i++ {
		id := e.RecordSignal("w1", "HeartbeatStale", "stale", int64(i*1000))
		if err := e.RecordOutcome(id, "restart", SelfResolved, "", int64(i*1000+500)); err != nil {
			t.Fatal(err)
		}
	}
	rel := e.SignalReliability("HeartbeatStale")
	if rel.ReliabilityScore != 0.8 {
		t.Fatalf("expected reliability 0.8, got %v", rel.ReliabilityScore)
	}

	other := New(0)
	for i := 0; i < 10; i++ {
		id := other.RecordSignal("w1", "FlakySignal", "x", int64(i*1000))
		other.RecordOutcome(id, "ignore", SelfResolved, "", int64(i*1000+10))
	}

	adjusted := e.AdjustedTimeout("HeartbeatStale", 60000)
	if adjusted >= 60000 {
		t.Fatalf("expected reliable signal to shrink timeout below base, got %d", adjusted)
	}
	adjustedOther := other.AdjustedTimeout("FlakySignal", 60000)
	if adjustedOther <= 60000 {
		t.Fatalf("expected unreliable signal to grow timeout above base, got %d", adjustedOther)
	}
}

func TestRecordOutcomeTwiceFails(t *testing.T) {
	e := New(0)
	id := e.RecordSignal("w1", "ErrorPattern", "boom", 0)
	if err := e.RecordOutcome(id, "retry", Resolved, "", 10); err != nil {
		t.Fatal(err)
	}
	if err := e.RecordOutcome(id, "retry", Resolved, "", 20); err == nil {
		t.Fatal("expected double-outcome to fail")
	}
}

func TestRecordOutcomeUnknownIDFails(t *testing.T) {
	e := New(0)
	if err := e.RecordOutcome(999, "retry", Resolved, "", 0); err == nil {
		t.Fatal("expected unknown id to fail")
	}
}

func TestFailureModeDerivation(t *testing.T) {
	cases := []struct {
		outcome Outcome
		want    FailureMode
	}{
		{Resolved, FailureNone},
		{StillBroken, FailureAgent},
		{DifferentError, FailureStrategic},
		{SelfResolved, FailureNone},
		{Timeout, FailureUnknown},
	}
	for _, c := range cases {
		e := New(0)
		id := e.RecordSignal("w1", "sig", "", 0)
		e.RecordOutcome(id, "act", c.outcome, "", 10)
		got := e.Events()[0].FailureMode
		if got != c.want {
			t.Fatalf("outcome %v: expected failure mode %v, got %v", c.outcome, c.want, got)
		}
	}
}

func TestBestActionPicksHighestRateAboveMinAttempts(t *testing.T) {
	e := New(0)
	// "restart" succeeds 1/1, below min_attempts threshold of 2 -> excluded.
	id := e.RecordSignal("w1", "sig", "", 0)
	e.RecordOutcome(id, "restart", Resolved, "", 10)
	// "retry" succeeds 2/3.
	for i, outcome := range []Outcome{Resolved, Resolved, StillBroken} {
		id := e.RecordSignal("w1", "sig", "", int64(i))
		e.RecordOutcome(id, "retry", outcome, "", int64(i)+10)
	}
	best, ok := e.BestAction("sig", 2)
	if !ok || best.Action != "retry" {
		t.Fatalf("expected retry to win with attempts>=2, got %+v ok=%v", best, ok)
	}
}

func TestHistoryBoundedByMaxEvents(t *testing.T) {
	e := New(3)
	for i := 0; i < 5; i++ {
		e.RecordSignal("w1", "sig", "", int64(i))
	}
	if len(e.Events()) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(e.Events()))
	}
}
