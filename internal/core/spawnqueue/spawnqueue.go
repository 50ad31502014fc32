// Package spawnqueue implements the validated spawn-request queue with a
// concurrency cap and completion recording (spec.md §4, "Spawn queue").
package spawnqueue

import (
	"fmt"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// Status is the lifecycle of one spawn request.
type Status int

const (
	Queued Status = iota
	Spawning
	Completed
	Failed
	Cancelled
)

// Request is one entry in the spawn queue.
type Request struct {
	Name        string
	Role        string
	WorkingPath string
	Status      Status
	QueuedMs    int64
	StartedMs   *int64
	FinishedMs  *int64
	Error       string
}

// Queue holds pending and active spawn requests under a concurrency cap.
type Queue struct {
	maxConcurrent int
	pending       []*Request
	active        map[string]*Request
	byName        map[string]*Request
	completed     []*Request
}

// New creates a spawn queue with the given concurrency cap, floored at 1
// (spec.md §5, "Spawn queue: max_concurrent (floor 1)").
func New(maxConcurrent int) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Queue{
		maxConcurrent: maxConcurrent,
		active:        make(map[string]*Request),
		byName:        make(map[string]*Request),
	}
}

// Enqueue validates and queues a spawn request. Fails if name is empty or
// already pending or active. A name whose request has finished
// (completed, failed or cancelled) may be queued again.
func (q *Queue) Enqueue(name, role, workingPath string, now int64) (*Request, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: spawn request name must not be empty", coreerr.ErrInvalidInput)
	}
	if _, exists := q.byName[name]; exists {
		return nil, fmt.Errorf("%w: spawn request %q already queued", coreerr.ErrAlreadyExists, name)
	}
	r := &Request{Name: name, Role: role, WorkingPath: workingPath, Status: Queued, QueuedMs: now}
	q.pending = append(q.pending, r)
	q.byName[name] = r
	return r, nil
}

// ActiveCount reports how many requests are currently Spawning.
func (q *Queue) ActiveCount() int {
	return len(q.active)
}

// CanStart reports whether the queue has spare concurrency capacity.
func (q *Queue) CanStart() bool {
	return len(q.active) < q.maxConcurrent
}

// StartNext moves the oldest pending request into the active (Spawning) set,
// if capacity allows. Returns nil if there is no capacity or nothing queued.
func (q *Queue) StartNext(now int64) *Request {
	if !q.CanStart() || len(q.pending) == 0 {
		return nil
	}
	r := q.pending[0]
	q.pending = q.pending[1:]
	r.Status = Spawning
	r.StartedMs = &now
	q.active[r.Name] = r
	return r
}

// Complete records a successful spawn completion and frees the slot.
func (q *Queue) Complete(name string, now int64) error {
	return q.finish(name, Completed, "", now)
}

// Fail records a failed spawn and frees the slot.
func (q *Queue) Fail(name, reason string, now int64) error {
	return q.finish(name, Failed, reason, now)
}

func (q *Queue) finish(name string, status Status, reason string, now int64) error {
	r, exists := q.active[name]
	if !exists {
		return fmt.Errorf("%w: spawn request %q is not active", coreerr.ErrInvalidState, name)
	}
	r.Status = status
	r.FinishedMs = &now
	r.Error = reason
	delete(q.active, name)
	delete(q.byName, name)
	q.completed = append(q.completed, r)
	return nil
}

// Cancel removes a pending (not yet started) request. Fails if the request
// is already active or unknown.
func (q *Queue) Cancel(name string, now int64) error {
	for i, r := range q.pending {
		if r.Name != name {
			continue
		}
		r.Status = Cancelled
		r.FinishedMs = &now
		q.pending = append(q.pending[:i], q.pending[i+1:]...)
		delete(q.byName, name)
		q.completed = append(q.completed, r)
		return nil
	}
	if _, active := q.active[name]; active {
		return fmt.Errorf("%w: spawn request %q is already spawning", coreerr.ErrInvalidState, name)
	}
	return fmt.Errorf("%w: spawn request %q", coreerr.ErrNotFound, name)
}

// Completed returns the history of finished (completed/failed/cancelled)
// spawn requests.
func (q *Queue) Completed() []*Request {
	out := make([]*Request, len(q.completed))
	copy(out, q.completed)
	return out
}

// Pending returns the requests still waiting to start, oldest first.
func (q *Queue) Pending() []*Request {
	out := make([]*Request, len(q.pending))
	copy(out, q.pending)
	return out
}
