// Package pipeline executes an ordered step sequence with per-step
// condition, continue-on-error, and auto-skip semantics (spec.md §4.8).
package pipeline

import (
	"fmt"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// ConditionKind tags a step's gating condition, evaluated against the
// previous step's exit code.
type ConditionKind int

const (
	Always ConditionKind = iota
	OnSuccess
	OnFailure
	ExitCodeNonZero
	ExitCodeEquals
)

// Condition gates whether a step runs. Value is only meaningful for
// ExitCodeEquals.
type Condition struct {
	Kind  ConditionKind
	Value int
}

// Satisfied evaluates the condition against the previous exit code; prev
// is nil for the first step (spec.md §4.8).
func (c Condition) Satisfied(prev *int) bool {
	switch c.Kind {
	case Always:
		return true
	case OnSuccess:
		return prev != nil && *prev == 0
	case OnFailure, ExitCodeNonZero:
		return prev != nil && *prev != 0
	case ExitCodeEquals:
		return prev != nil && *prev == c.Value
	default:
		return false
	}
}

// Step is one unit of a pipeline.
type Step struct {
	Name            string
	Command         string
	WorkingDir      string
	TimeoutMs       int64
	ContinueOnError bool
	Condition       *Condition
}

// ResultStatus tags the outcome of a step.
type ResultStatus int

const (
	Succeeded ResultStatus = iota
	Failed
	Skipped
)

// Result records one step's outcome.
type Result struct {
	StepName    string
	ExitCode    *int
	DurationMs  int64
	OutputLines []string
	Status      ResultStatus
}

// Status is the overall pipeline status.
type Status int

const (
	Pending Status = iota
	Running
	Completed
	Failed_
	Cancelled
)

// Pipeline is an ordered step sequence and its execution results.
type Pipeline struct {
	Name         string
	Steps        []Step
	Results      []Result
	Status       Status
	CurrentIndex int
	StartedMs    int64
}

// New creates a Pending pipeline.
func New(name string, steps []Step) *Pipeline {
	return &Pipeline{Name: name, Steps: steps, Status: Pending}
}

// Start transitions Pending → Running (spec.md §4.8 "start").
func (p *Pipeline) Start(now int64) error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: pipeline %q has no steps", coreerr.ErrInvalidInput, p.Name)
	}
	if p.Status != Pending {
		return fmt.Errorf("%w: pipeline %q is not Pending", coreerr.ErrInvalidState, p.Name)
	}
	p.Status = Running
	p.CurrentIndex = 0
	p.StartedMs = now
	return nil
}

func (p *Pipeline) lastExitCode() *int {
	for i := len(p.Results) - 1; i >= 0; i-- {
		if p.Results[i].Status != Skipped {
			return p.Results[i].ExitCode
		}
	}
	return nil
}

// CompleteStep records the just-finished step's outcome, advances the
// index, and runs the auto-skip forward pass (spec.md §4.8 "complete_step").
func (p *Pipeline) CompleteStep(exitCode int, durationMs int64, outputLines []string, now int64) error {
	if p.Status != Running {
		return fmt.Errorf("%w: pipeline %q is not Running", coreerr.ErrInvalidState, p.Name)
	}
	if p.CurrentIndex >= len(p.Steps) {
		return fmt.Errorf("%w: pipeline %q has no step at index %d", coreerr.ErrInvalidState, p.Name, p.CurrentIndex)
	}
	step := p.Steps[p.CurrentIndex]
	status := Succeeded
	if exitCode != 0 {
		status = Failed
	}
	ec := exitCode
	p.Results = append(p.Results, Result{StepName: step.Name, ExitCode: &ec, DurationMs: durationMs, OutputLines: outputLines, Status: status})
	p.CurrentIndex++

	if status == Failed && !step.ContinueOnError {
		p.Status = Failed_
		p.skipRemaining()
		return nil
	}

	p.autoSkipForward()
	if p.CurrentIndex >= len(p.Steps) {
		p.Status = Completed
	}
	return nil
}

func (p *Pipeline) autoSkipForward() {
	for p.CurrentIndex < len(p.Steps) {
		step := p.Steps[p.CurrentIndex]
		if step.Condition == nil {
			return
		}
		prev := p.lastExitCode()
		if step.Condition.Satisfied(prev) {
			return
		}
		p.Results = append(p.Results, Result{StepName: step.Name, Status: Skipped})
		p.CurrentIndex++
	}
}

func (p *Pipeline) skipRemaining() {
	for p.CurrentIndex < len(p.Steps) {
		p.Results = append(p.Results, Result{StepName: p.Steps[p.CurrentIndex].Name, Status: Skipped})
		p.CurrentIndex++
	}
}

// Cancel transitions Running or Pending to Cancelled, skipping all
// remaining steps (spec.md §4.8 "cancel").
func (p *Pipeline) Cancel() error {
	if p.Status != Running && p.Status != Pending {
		return fmt.Errorf("%w: pipeline %q is not cancellable from its current status", coreerr.ErrInvalidState, p.Name)
	}
	p.Status = Cancelled
	p.skipRemaining()
	return nil
}

// OverallSuccess is true iff the pipeline Completed and every result is
// Succeeded or Skipped.
func (p *Pipeline) OverallSuccess() bool {
	if p.Status != Completed {
		return false
	}
	for _, r := range p.Results {
		if r.Status == Failed {
			return false
		}
	}
	return true
}

// AddStep appends a step; fails once the pipeline has left Pending
// (spec.md §7 "capacity / wrong phase").
func (p *Pipeline) AddStep(s Step) error {
	if p.Status != Pending {
		return fmt.Errorf("%w: cannot add a step to a %v pipeline", coreerr.ErrCapacity, p.Status)
	}
	p.Steps = append(p.Steps, s)
	return nil
}

// IsComplete reports whether the pipeline has reached a terminal status.
func (p *Pipeline) IsComplete() bool {
	return p.Status == Completed || p.Status == Failed_ || p.Status == Cancelled
}
