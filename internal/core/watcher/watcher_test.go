package watcher

import "testing"

func TestLastMatchWinsAcrossLinesAndPatterns(t *testing.T) {
	w := New([]OutputPattern{
		{Name: "error", Pattern: "ERROR"},
		{Name: "done", Pattern: "DONE"},
	}, nil, 1000)

	r := w.AnalyzeOutput("a1", "ERROR: boom\nDONE: ok\nERROR: again", 0)
	if r.Status.Kind != Matched || r.Status.Name != "error" {
		t.Fatalf("expected last match (error on final line) to win, got %+v", r.Status)
	}
}

func TestUnresponsiveOnEmptyUnmatchedOutput(t *testing.T) {
	w := New([]OutputPattern{{Name: "x", Pattern: "NOPE"}}, nil, 1000)
	r := w.AnalyzeOutput("a1", "", 0)
	if r.Status.Kind != Unresponsive {
		t.Fatalf("expected Unresponsive, got %+v", r.Status)
	}
}

func TestActiveOnUnmatchedNonEmptyOutput(t *testing.T) {
	w := New([]OutputPattern{{Name: "x", Pattern: "NOPE"}}, nil, 1000)
	r := w.AnalyzeOutput("a1", "some random output", 0)
	if r.Status.Kind != Active || r.Status.Activity != "output detected" {
		t.Fatalf("expected Active, got %+v", r.Status)
	}
}

func TestProgressPercentageParsedAndClamped(t *testing.T) {
	w := New(nil, []ProgressPattern{{Prefix: "progress:", IsPercentage: true}}, 1000)
	r := w.AnalyzeOutput("a1", "progress: 150%", 0)
	if r.Progress == nil || *r.Progress != 1.0 {
		t.Fatalf("expected clamped 1.0, got %v", r.Progress)
	}
}

func TestProgressFractionNotPercentage(t *testing.T) {
	w := New(nil, []ProgressPattern{{Prefix: "done:", IsPercentage: false}}, 1000)
	r := w.AnalyzeOutput("a1", "done: 0.42", 0)
	if r.Progress == nil || *r.Progress != 0.42 {
		t.Fatalf("expected 0.42, got %v", r.Progress)
	}
}

func TestProgressLastMatchWins(t *testing.T) {
	w := New(nil, []ProgressPattern{{Prefix: "pct:", IsPercentage: true}}, 1000)
	r := w.AnalyzeOutput("a1", "pct: 10\npct: 90", 0)
	if r.Progress == nil || *r.Progress != 0.9 {
		t.Fatalf("expected last match 0.9, got %v", r.Progress)
	}
}

func TestAgentsNeedingWatch(t *testing.T) {
	w := New([]OutputPattern{{Name: "x", Pattern: "y"}}, nil, 1000)
	w.AnalyzeOutput("a1", "something", 0)
	needing := w.AgentsNeedingWatch(500, []string{"a1", "a2"})
	if len(needing) != 1 || needing[0] != "a2" {
		t.Fatalf("expected only a2 (never watched), got %v", needing)
	}
	needing = w.AgentsNeedingWatch(2000, []string{"a1", "a2"})
	if len(needing) != 2 {
		t.Fatalf("expected both stale, got %v", needing)
	}
}
