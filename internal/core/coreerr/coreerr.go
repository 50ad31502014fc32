// Package coreerr defines the closed error taxonomy shared by every
// core component. Components wrap one of these sentinels with
// fmt.Errorf("%w: ...") so callers can classify a failure with
// errors.Is while still getting a descriptive message.
package coreerr

import "errors"

var (
	// ErrInvalidInput covers unknown dates, empty names, malformed rules,
	// empty spawn fields and similar caller mistakes.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState covers rejected state transitions and lifecycle
	// preconditions (recovery from a non-stalled agent, completing a task
	// on a non-busy agent, starting an already-running pipeline).
	ErrInvalidState = errors.New("invalid state transition")

	// ErrNotFound covers unknown agents, tasks, executions, copilots and
	// missing journal entries.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists covers duplicate agent registration and duplicate
	// spawn-queue names.
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrCapacity covers worker-pool caps, concurrent-spawn caps,
	// double-acknowledge, outcome-already-recorded, and adding a step to
	// a running pipeline.
	ErrCapacity = errors.New("capacity or phase violation")

	// ErrIO covers file-system errors from the journal, snapshot writer
	// and conversation-log tailer.
	ErrIO = errors.New("i/o error")

	// ErrIntegrity covers journal checksum mismatches and snapshot
	// cross-reference violations.
	ErrIntegrity = errors.New("integrity violation")
)
