package journal

import "testing"

// TestSequenceMonotonicity implements spec.md §8 invariant 5.
func TestSequenceMonotonicity(t *testing.T) {
	j := New(0)
	var prev uint64
	for i := 0; i < 5; i++ {
		e := j.Append(Operation{Kind: TaskCreated, TaskID: "t"}, int64(i))
		if i > 0 && e.Sequence <= prev {
			t.Fatalf("expected strictly increasing sequence, got %d after %d", e.Sequence, prev)
		}
		prev = e.Sequence
	}
}

// TestChecksumIntegrity implements spec.md §8 invariant 6.
func TestChecksumIntegrity(t *testing.T) {
	j := New(0)
	e := j.Append(Operation{Kind: AgentRegistered, AgentName: "w1"}, 100)
	if !e.VerifyChecksum() {
		t.Fatal("expected fresh entry to verify")
	}
	mutated := e
	mutated.Sequence++
	if mutated.VerifyChecksum() {
		t.Fatal("expected mutated sequence to fail checksum")
	}
	mutated = e
	mutated.TimestampMs++
	if mutated.VerifyChecksum() {
		t.Fatal("expected mutated timestamp to fail checksum")
	}
	mutated = e
	mutated.Operation.AgentName = "w2"
	if mutated.VerifyChecksum() {
		t.Fatal("expected mutated operation to fail checksum")
	}
}

// TestJSONLinesRoundTrip implements spec.md §8 invariant 7 (journal half).
func TestJSONLinesRoundTrip(t *testing.T) {
	j := New(0)
	j.Append(Operation{Kind: AgentRegistered, AgentName: "w1"}, 100)
	j.Append(Operation{Kind: TaskStatusChanged, TaskID: "t1", From: "pending", To: "in_progress"}, 200)

	text, err := ToJSONLines(j.Entries())
	if err != nil {
		t.Fatal(err)
	}
	roundTripped, err := FromJSONLines(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(roundTripped) != j.Len() {
		t.Fatalf("expected %d entries back, got %d", j.Len(), len(roundTripped))
	}
	for i, e := range j.Entries() {
		if roundTripped[i] != e {
			t.Fatalf("entry %d mismatch: got %+v want %+v", i, roundTripped[i], e)
		}
	}
}

// TestJSONLinesToleratesBlankLines covers spec.md §6's tolerance rule.
func TestJSONLinesToleratesBlankLines(t *testing.T) {
	j := New(0)
	j.Append(Operation{Kind: AgentRegistered, AgentName: "w1"}, 100)
	text, _ := ToJSONLines(j.Entries())
	withBlanks := "\n" + text + "\n\n"
	entries, err := FromJSONLines(withBlanks)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

// TestSnapshotJSONRoundTrip implements spec.md §8 invariant 7 (snapshot half).
func TestSnapshotJSONRoundTrip(t *testing.T) {
	s := SystemSnapshot{
		Version: "v1", TimestampMs: 1000,
		Agents:   []AgentSnap{{Name: "w1", TaskID: "t1"}},
		Tasks:    []TaskSnap{{ID: "t1"}},
		Sessions: []string{"s1"},
	}
	text, err := ToJSON(s)
	if err != nil {
		t.Fatal(err)
	}
	back, err := FromJSON(text)
	if err != nil {
		t.Fatal(err)
	}
	if back.Version != s.Version || len(back.Agents) != len(s.Agents) || back.Agents[0].Name != "w1" {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

// TestCompactionScenario implements scenario D of spec.md §8.
func TestCompactionScenario(t *testing.T) {
	j := New(0)
	j.Append(Operation{Kind: TaskStatusChanged, TaskID: "T1", From: "pending", To: "in_progress"}, 1)
	j.Append(Operation{Kind: TaskStatusChanged, TaskID: "T1", From: "in_progress", To: "completed"}, 2)
	j.Append(Operation{Kind: TaskCompleted, TaskID: "T1", Result: "done"}, 3)

	j.Compact()
	if j.Len() != 2 {
		t.Fatalf("expected compaction to length 2, got %d", j.Len())
	}
	if j.Entries()[0].Operation.To != "completed" {
		t.Fatalf("expected first entry's to=completed, got %q", j.Entries()[0].Operation.To)
	}
}

// TestRecoveryPlanScenario implements scenario E of spec.md §8.
func TestRecoveryPlanScenario(t *testing.T) {
	j := New(0)
	for i := 1; i <= 9; i++ {
		j.Append(Operation{Kind: TaskCreated, TaskID: "t"}, int64(i))
	}
	consistent := SystemSnapshot{Version: "v1"}
	cp1 := Checkpoint{ID: "cp1", Snapshot: consistent, JournalSequence: 3}
	cp2 := Checkpoint{ID: "cp2", Snapshot: consistent, JournalSequence: 7}

	plan := NewRecoveryEngine().Plan([]Checkpoint{cp1, cp2}, j)
	if plan.Checkpoint == nil || plan.Checkpoint.ID != "cp2" {
		t.Fatalf("expected newest consistent checkpoint selected, got %+v", plan.Checkpoint)
	}
	if len(plan.EntriesToReplay) != 1 {
		t.Fatalf("expected 1 entry to replay (seq 8), got %d", len(plan.EntriesToReplay))
	}
	if plan.EstimatedRecoveryMs != 51 {
		t.Fatalf("expected 50+1=51ms estimate, got %d", plan.EstimatedRecoveryMs)
	}
}

func TestRecoveryPlanFallsBackWhenNoConsistentCheckpoint(t *testing.T) {
	j := New(0)
	j.Append(Operation{Kind: TaskCreated, TaskID: "t"}, 1)
	inconsistent := SystemSnapshot{Version: "v1", Agents: []AgentSnap{{Name: "dup"}, {Name: "dup"}}}
	cp := Checkpoint{ID: "bad", Snapshot: inconsistent, JournalSequence: 0}

	plan := NewRecoveryEngine().Plan([]Checkpoint{cp}, j)
	if plan.Checkpoint != nil {
		t.Fatalf("expected no checkpoint selected, got %+v", plan.Checkpoint)
	}
	if len(plan.EntriesToReplay) != 1 {
		t.Fatalf("expected full journal replay, got %d entries", len(plan.EntriesToReplay))
	}
}

func TestValidateJournalEntriesDetectsTamper(t *testing.T) {
	j := New(0)
	j.Append(Operation{Kind: AgentRegistered, AgentName: "w1"}, 100)
	j.Append(Operation{Kind: AgentRegistered, AgentName: "w2"}, 200)

	entries := j.Entries()
	entries[1].Operation.AgentName = "tampered"
	j2 := NewFromEntries(entries, 0)
	bad := j2.ValidateEntries()
	if len(bad) != 1 || bad[0] != 1 {
		t.Fatalf("expected index 1 flagged, got %v", bad)
	}
}

func TestValidateCheckpointReportsViolations(t *testing.T) {
	cp := Checkpoint{Snapshot: SystemSnapshot{
		Agents: []AgentSnap{{Name: "w1", TaskID: "missing"}},
	}}
	violations := ValidateCheckpoint(cp)
	if len(violations) < 2 {
		t.Fatalf("expected empty_version and missing-task violations, got %+v", violations)
	}
}
