// Package scheduler orders schedule entries for dispatch under a
// pluggable policy (spec.md §4.7) and tracks wait-time and throughput
// metrics. It owns no agents or tasks; entries are keyed by execution_id
// and reference tasks/agents only by stable string key.
package scheduler

import (
	"fmt"
	"sort"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// Priority is ordered Normal < High < Urgent, matching the messenger's
// priority rank (spec.md §4.3).
type Priority int

const (
	Normal Priority = iota
	High
	Urgent
)

// Entry is a unit of work queued for dispatch (spec.md §3 "Schedule entries").
type Entry struct {
	ExecutionID        string
	TaskID             string
	Priority           Priority
	SubmittedMs        int64
	AgentAffinity      string
	EstimatedDurationMs int64
}

// PolicyKind tags the active ordering policy.
type PolicyKind int

const (
	Fifo PolicyKind = iota
	PriorityPolicy
	RoundRobin
	Affinity
)

// Policy configures ordering. Agents is used by RoundRobin; Preferred by
// Affinity.
type Policy struct {
	Kind      PolicyKind
	Agents    []string
	Preferred string
}

type dequeueRecord struct {
	executionID string
	submitted   int64
	dequeued    int64
}

// maxHistory bounds the dequeue-record ring so long-lived schedulers
// don't grow history without limit; oldest records are evicted first,
// matching the journal's and notification center's eviction style.
const maxHistory = 10000

// Scheduler holds the pending queue, the active policy, and dequeue history
// for metrics.
type Scheduler struct {
	policy    Policy
	pending   []Entry
	rrIndex   int
	history   []dequeueRecord
}

// New creates a Scheduler under the given initial policy.
func New(policy Policy) *Scheduler {
	return &Scheduler{policy: policy}
}

// Submit enqueues a new entry.
func (s *Scheduler) Submit(e Entry) {
	s.pending = append(s.pending, e)
}

// Reorder replaces the active policy, resets the round-robin index, and
// re-sorts the pending queue under the new policy (spec.md §4.7 "reorder").
func (s *Scheduler) Reorder(p Policy) {
	s.policy = p
	s.rrIndex = 0
	s.sortPending()
}

func (s *Scheduler) sortPending() {
	switch s.policy.Kind {
	case Fifo, RoundRobin:
		sort.SliceStable(s.pending, func(i, j int) bool {
			return s.pending[i].SubmittedMs < s.pending[j].SubmittedMs
		})
	case PriorityPolicy:
		sort.SliceStable(s.pending, func(i, j int) bool {
			if s.pending[i].Priority != s.pending[j].Priority {
				return s.pending[i].Priority > s.pending[j].Priority
			}
			return s.pending[i].SubmittedMs < s.pending[j].SubmittedMs
		})
	case Affinity:
		pref := s.policy.Preferred
		sort.SliceStable(s.pending, func(i, j int) bool {
			ai := s.pending[i].AgentAffinity == pref
			aj := s.pending[j].AgentAffinity == pref
			if ai != aj {
				return ai
			}
			if s.pending[i].Priority != s.pending[j].Priority {
				return s.pending[i].Priority > s.pending[j].Priority
			}
			return s.pending[i].SubmittedMs < s.pending[j].SubmittedMs
		})
	}
}

// Pending returns the number of entries awaiting dispatch.
func (s *Scheduler) Pending() int { return len(s.pending) }

func (s *Scheduler) record(idx int, now int64) Entry {
	e := s.pending[idx]
	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
	s.history = append(s.history, dequeueRecord{executionID: e.ExecutionID, submitted: e.SubmittedMs, dequeued: now})
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
	return e
}

// Dequeue removes and returns the first entry per the current policy
// ordering (spec.md §4.7 "dequeue").
func (s *Scheduler) Dequeue(now int64) (Entry, bool) {
	if len(s.pending) == 0 {
		return Entry{}, false
	}
	s.sortPending()
	switch s.policy.Kind {
	case RoundRobin:
		agents := s.policy.Agents
		if len(agents) == 0 {
			return s.record(0, now), true
		}
		want := agents[s.rrIndex%len(agents)]
		s.rrIndex++
		for i, e := range s.pending {
			if e.AgentAffinity == want {
				return s.record(i, now), true
			}
		}
		return s.record(0, now), true
	default:
		return s.record(0, now), true
	}
}

// DequeueForAgent prefers an entry affine to agent, then an entry with no
// affinity, then the first entry (spec.md §4.7 "dequeue_for_agent").
func (s *Scheduler) DequeueForAgent(agent string, now int64) (Entry, bool) {
	if len(s.pending) == 0 {
		return Entry{}, false
	}
	s.sortPending()
	for i, e := range s.pending {
		if e.AgentAffinity == agent {
			return s.record(i, now), true
		}
	}
	for i, e := range s.pending {
		if e.AgentAffinity == "" {
			return s.record(i, now), true
		}
	}
	return s.record(0, now), true
}

// Metrics summarises historical dequeue behaviour.
type Metrics struct {
	AvgWaitMs   float64
	MaxWaitMs   int64
	ThroughputPerSec float64
	UtilisationPct   float64
}

// ComputeMetrics implements spec.md §4.7 "metrics".
func (s *Scheduler) ComputeMetrics(now, windowMs int64, totalAgents int) Metrics {
	if len(s.history) == 0 {
		util := 0.0
		if totalAgents > 0 {
			util = minF(100, 100*float64(len(s.pending))/float64(totalAgents))
		}
		return Metrics{UtilisationPct: util}
	}
	var sum, max int64
	windowCount := 0
	for _, h := range s.history {
		wait := h.dequeued - h.submitted
		sum += wait
		if wait > max {
			max = wait
		}
		if now-h.dequeued < windowMs {
			windowCount++
		}
	}
	avg := float64(sum) / float64(len(s.history))
	throughput := 0.0
	if windowMs > 0 {
		throughput = float64(windowCount) / (float64(windowMs) / 1000.0)
	}
	util := 0.0
	if totalAgents > 0 {
		util = minF(100, 100*float64(len(s.pending))/float64(totalAgents))
	}
	return Metrics{AvgWaitMs: avg, MaxWaitMs: max, ThroughputPerSec: throughput, UtilisationPct: util}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Remove drops a still-pending entry by execution id, e.g. on cancellation.
func (s *Scheduler) Remove(executionID string) error {
	for i, e := range s.pending {
		if e.ExecutionID == executionID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: execution %q", coreerr.ErrNotFound, executionID)
}
