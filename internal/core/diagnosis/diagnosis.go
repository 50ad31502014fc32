// Package diagnosis records every intervention (signal observed, action
// taken, outcome), computes per-signal reliability and per-(signal,
// action) effectiveness, and derives adjusted timeouts (spec.md §4.11).
package diagnosis

import (
	"fmt"
	"sort"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// Outcome tags how an intervention resolved.
type Outcome int

const (
	Resolved Outcome = iota
	StillBroken
	DifferentError
	SelfResolved
	Timeout
	Pending
)

// FailureMode is derived from Outcome per the table in spec.md §4.11.
type FailureMode int

const (
	FailureNone FailureMode = iota
	FailureAgent
	FailureStrategic
	FailureUnknown
)

func failureModeFor(o Outcome) FailureMode {
	switch o {
	case StillBroken:
		return FailureAgent
	case DifferentError:
		return FailureStrategic
	case Timeout:
		return FailureUnknown
	default:
		return FailureNone
	}
}

// Event is one recorded intervention (spec.md §3 "Intervention event").
type Event struct {
	ID            int
	TimestampMs   int64
	Agent         string
	Signal        string
	SignalDetail  string
	Action        string
	Outcome       Outcome
	OutcomeDetail string
	DurationMs    int64
	FailureMode   FailureMode
	hasOutcome    bool
}

// Engine holds the append-only intervention history and the max_events
// cap (spec.md §4.11 "History is bounded").
type Engine struct {
	events    []Event
	nextID    int
	maxEvents int
}

// New creates an Engine bounded at maxEvents (0 = unbounded).
func New(maxEvents int) *Engine {
	return &Engine{maxEvents: maxEvents}
}

// RecordSignal registers a pending intervention event and returns its id.
func (e *Engine) RecordSignal(agent, signal, detail string, now int64) int {
	e.nextID++
	ev := Event{ID: e.nextID, TimestampMs: now, Agent: agent, Signal: signal, SignalDetail: detail, Outcome: Pending}
	e.events = append(e.events, ev)
	e.evictIfNeeded()
	return ev.ID
}

func (e *Engine) evictIfNeeded() {
	if e.maxEvents > 0 && len(e.events) > e.maxEvents {
		e.events = e.events[len(e.events)-e.maxEvents:]
	}
}

func (e *Engine) find(id int) (*Event, error) {
	for i := range e.events {
		if e.events[i].ID == id {
			return &e.events[i], nil
		}
	}
	return nil, fmt.Errorf("%w: intervention event %d", coreerr.ErrNotFound, id)
}

// RecordOutcome writes the action/outcome/duration for a pending event
// and derives its failure mode (spec.md §4.11). Recording an outcome
// twice is an error.
func (e *Engine) RecordOutcome(id int, action string, outcome Outcome, detail string, now int64) error {
	ev, err := e.find(id)
	if err != nil {
		return err
	}
	if ev.hasOutcome {
		return fmt.Errorf("%w: intervention event %d already has an outcome", coreerr.ErrCapacity, id)
	}
	ev.Action = action
	ev.Outcome = outcome
	ev.OutcomeDetail = detail
	ev.DurationMs = now - ev.TimestampMs
	ev.FailureMode = failureModeFor(outcome)
	ev.hasOutcome = true
	return nil
}

// Events returns the full event history.
func (e *Engine) Events() []Event {
	out := make([]Event, len(e.events))
	copy(out, e.events)
	return out
}

// Reliability is a signal's empirical true-positive fraction.
type Reliability struct {
	Signal           string
	TruePositives    int
	TotalFires       int
	ReliabilityScore float64
}

// SignalReliability recomputes reliability for signal from scratch
// (spec.md §4.11 "Signal reliability"): true positives are Resolved or
// StillBroken outcomes; SelfResolved is a false positive; Pending events
// are excluded entirely.
func (e *Engine) SignalReliability(signal string) Reliability {
	var truePos, total int
	for _, ev := range e.events {
		if ev.Signal != signal || ev.Outcome == Pending || !ev.hasOutcome {
			continue
		}
		total++
		if ev.Outcome == Resolved || ev.Outcome == StillBroken {
			truePos++
		}
	}
	score := 0.0
	if total > 0 {
		score = float64(truePos) / float64(total)
	}
	return Reliability{Signal: signal, TruePositives: truePos, TotalFires: total, ReliabilityScore: score}
}

// Effectiveness is a (signal, action) pair's success rate.
type Effectiveness struct {
	Signal       string
	Action       string
	Successes    int
	Attempts     int
	SuccessRate  float64
}

// ActionEffectiveness recomputes the success rate of (signal, action)
// from scratch; success is an outcome of Resolved (spec.md §4.11).
func (e *Engine) ActionEffectiveness(signal, action string) Effectiveness {
	var successes, attempts int
	for _, ev := range e.events {
		if ev.Signal != signal || ev.Action != action || !ev.hasOutcome {
			continue
		}
		attempts++
		if ev.Outcome == Resolved {
			successes++
		}
	}
	rate := 0.0
	if attempts > 0 {
		rate = float64(successes) / float64(attempts)
	}
	return Effectiveness{Signal: signal, Action: action, Successes: successes, Attempts: attempts, SuccessRate: rate}
}

// BestAction returns the highest success-rate action for signal among
// those with at least minAttempts attempts, breaking ties
// lexicographically by action name for determinism (spec.md §4.11,
// §9 open question).
func (e *Engine) BestAction(signal string, minAttempts int) (Effectiveness, bool) {
	actions := map[string]bool{}
	for _, ev := range e.events {
		if ev.Signal == signal && ev.hasOutcome {
			actions[ev.Action] = true
		}
	}
	var names []string
	for a := range actions {
		names = append(names, a)
	}
	sort.Strings(names)

	var best Effectiveness
	found := false
	for _, name := range names {
		eff := e.ActionEffectiveness(signal, name)
		if eff.Attempts < minAttempts {
			continue
		}
		if !found || eff.SuccessRate > best.SuccessRate {
			best = eff
			found = true
		}
	}
	return best, found
}

// AdjustedTimeout implements spec.md §4.11's adaptive threshold: a
// reliable signal (high score) shrinks the base timeout; an unreliable
// one grows it. The scaling factor ranges linearly from 1.5x at
// reliability 0 to 0.5x at reliability 1.
func (e *Engine) AdjustedTimeout(signal string, baseMs int64) int64 {
	rel := e.SignalReliability(signal)
	factor := 1.5 - rel.ReliabilityScore
	adjusted := float64(baseMs) * factor
	if adjusted < 0 {
		adjusted = 0
	}
	return int64(adjusted)
}
