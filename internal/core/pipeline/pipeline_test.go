package pipeline

import "testing"

func TestPipelineHappyPath(t *testing.T) {
	p := New("build", []Step{{Name: "compile"}, {Name: "test"}})
	if err := p.Start(0); err != nil {
		t.Fatal(err)
	}
	if err := p.CompleteStep(0, 10, nil, 10); err != nil {
		t.Fatal(err)
	}
	if err := p.CompleteStep(0, 10, nil, 20); err != nil {
		t.Fatal(err)
	}
	if p.Status != Completed {
		t.Fatalf("expected Completed, got %v", p.Status)
	}
	if !p.OverallSuccess() {
		t.Fatal("expected overall success")
	}
	if len(p.Results) != len(p.Steps) || p.CurrentIndex != len(p.Steps) {
		t.Fatalf("invariant violated: results=%d steps=%d index=%d", len(p.Results), len(p.Steps), p.CurrentIndex)
	}
}

func TestFailureWithoutContinueSkipsRemaining(t *testing.T) {
	p := New("build", []Step{{Name: "a"}, {Name: "b"}, {Name: "c"}})
	p.Start(0)
	p.CompleteStep(1, 10, nil, 10)
	if p.Status != Failed_ {
		t.Fatalf("expected Failed, got %v", p.Status)
	}
	if len(p.Results) != 3 {
		t.Fatalf("expected all 3 steps visited, got %d", len(p.Results))
	}
	if p.Results[1].Status != Skipped || p.Results[2].Status != Skipped {
		t.Fatalf("expected remaining steps skipped, got %+v", p.Results)
	}
}

func TestContinueOnErrorKeepsRunning(t *testing.T) {
	p := New("build", []Step{{Name: "a", ContinueOnError: true}, {Name: "b"}})
	p.Start(0)
	p.CompleteStep(1, 10, nil, 10)
	if p.Status != Running {
		t.Fatalf("expected still Running after continue-on-error failure, got %v", p.Status)
	}
	p.CompleteStep(0, 10, nil, 20)
	if p.Status != Completed {
		t.Fatalf("expected Completed, got %v", p.Status)
	}
	if p.OverallSuccess() {
		t.Fatal("expected overall success false: one step Failed")
	}
}

func TestFailureBeforeConditionalStepFailsPipeline(t *testing.T) {
	onSuccess := Condition{Kind: OnSuccess}
	p := New("build", []Step{
		{Name: "a"},
		{Name: "b-only-on-success", Condition: &onSuccess},
		{Name: "c"},
	})
	p.Start(0)
	p.CompleteStep(1, 10, nil, 10) // a fails, continue_on_error false by default -> Failed, all skipped
	if p.Status != Failed_ {
		t.Fatalf("expected Failed, got %v", p.Status)
	}
}

func TestAutoSkipAdvancesPastUnsatisfiedToCompletion(t *testing.T) {
	onFailure := Condition{Kind: OnFailure}
	p := New("build", []Step{
		{Name: "a", ContinueOnError: true},
		{Name: "b-only-on-failure", Condition: &onFailure},
	})
	p.Start(0)
	p.CompleteStep(0, 10, nil, 10) // a succeeds; b requires OnFailure -> should be skipped, pipeline completes
	if p.Status != Completed {
		t.Fatalf("expected Completed via auto-skip to end, got %v", p.Status)
	}
	if p.Results[1].Status != Skipped {
		t.Fatalf("expected step b auto-skipped, got %+v", p.Results[1])
	}
}

func TestCancelSkipsRemaining(t *testing.T) {
	p := New("build", []Step{{Name: "a"}, {Name: "b"}})
	p.Start(0)
	if err := p.Cancel(); err != nil {
		t.Fatal(err)
	}
	if p.Status != Cancelled {
		t.Fatalf("expected Cancelled, got %v", p.Status)
	}
	if len(p.Results) != 2 {
		t.Fatalf("expected both steps recorded Skipped, got %d", len(p.Results))
	}
}

func TestAddStepFailsAfterStart(t *testing.T) {
	p := New("build", []Step{{Name: "a"}})
	p.Start(0)
	if err := p.AddStep(Step{Name: "late"}); err == nil {
		t.Fatal("expected error adding a step to a running pipeline")
	}
}

func TestStartFailsOnEmptyOrNonPending(t *testing.T) {
	empty := New("empty", nil)
	if err := empty.Start(0); err == nil {
		t.Fatal("expected error starting an empty pipeline")
	}
	p := New("build", []Step{{Name: "a"}})
	p.Start(0)
	if err := p.Start(0); err == nil {
		t.Fatal("expected error starting an already-running pipeline")
	}
}
