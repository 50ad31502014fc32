// Package remote implements the timeout-bounded remote command queue,
// the push/pull file-sync queue, and the worker-pool lifecycle of
// spec.md §4.9.
package remote

import (
	"fmt"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// ExecStatus tags a remote execution's lifecycle.
type ExecStatus int

const (
	Queued ExecStatus = iota
	Active
	Completed
	TimedOut
	Failed
)

// Execution is one remote command run.
type Execution struct {
	ID        string
	Remote    string
	Command   string
	TimeoutMs int64
	Status    ExecStatus

	QueuedMs  int64
	StartedMs int64
	EndedMs   int64

	ExitCode *int
	Stdout   string
	Stderr   string
	Error    string
}

// Executor holds queued, active, and historical executions.
type Executor struct {
	queue   []Execution
	active  map[string]*Execution
	history []Execution
	nextID  int
}

// NewExecutor creates an empty Executor.
func NewExecutor() *Executor {
	return &Executor{active: make(map[string]*Execution)}
}

// Queue enqueues a new remote command, returning its id
// (spec.md §4.9 "queue").
func (e *Executor) Queue(remote, command string, timeoutMs int64, now int64) string {
	e.nextID++
	id := fmt.Sprintf("exec-%d", e.nextID)
	e.queue = append(e.queue, Execution{ID: id, Remote: remote, Command: command, TimeoutMs: timeoutMs, Status: Queued, QueuedMs: now})
	return id
}

// Start moves a queued execution to active, stamping started_ms
// (spec.md §4.9 "start").
func (e *Executor) Start(id string, now int64) error {
	for i, ex := range e.queue {
		if ex.ID == id {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			ex.Status = Active
			ex.StartedMs = now
			e.active[id] = &ex
			return nil
		}
	}
	return fmt.Errorf("%w: queued execution %q", coreerr.ErrNotFound, id)
}

func (e *Executor) takeActive(id string) (*Execution, error) {
	ex, ok := e.active[id]
	if !ok {
		return nil, fmt.Errorf("%w: active execution %q", coreerr.ErrNotFound, id)
	}
	delete(e.active, id)
	return ex, nil
}

// Complete moves an active execution to history as Completed
// (spec.md §4.9 "complete").
func (e *Executor) Complete(id string, exitCode int, stdout, stderr string, now int64) error {
	ex, err := e.takeActive(id)
	if err != nil {
		return err
	}
	ex.Status = Completed
	ex.ExitCode = &exitCode
	ex.Stdout = stdout
	ex.Stderr = stderr
	ex.EndedMs = now
	e.history = append(e.history, *ex)
	return nil
}

// Timeout moves an active execution to history as TimedOut
// (spec.md §4.9 "timeout").
func (e *Executor) Timeout(id string, now int64) error {
	ex, err := e.takeActive(id)
	if err != nil {
		return err
	}
	ex.Status = TimedOut
	ex.EndedMs = now
	e.history = append(e.history, *ex)
	return nil
}

// Fail moves an active execution to history as Failed
// (spec.md §4.9 "fail").
func (e *Executor) Fail(id, errMsg string, now int64) error {
	ex, err := e.takeActive(id)
	if err != nil {
		return err
	}
	ex.Status = Failed
	ex.Error = errMsg
	ex.EndedMs = now
	e.history = append(e.history, *ex)
	return nil
}

// CheckTimeouts returns every active execution whose elapsed time has
// reached its timeout (spec.md §4.9 "check_timeouts").
func (e *Executor) CheckTimeouts(now int64) []Execution {
	var out []Execution
	for _, ex := range e.active {
		if ex.TimeoutMs > 0 && now-ex.StartedMs >= ex.TimeoutMs {
			out = append(out, *ex)
		}
	}
	return out
}

// History returns every completed/timed-out/failed execution.
func (e *Executor) History() []Execution {
	out := make([]Execution, len(e.history))
	copy(out, e.history)
	return out
}

// RemoteConfig names the connection parameters for one remote host.
type RemoteConfig struct {
	Host string
	Port int
	User string
	Key  string
}

// BuildSSHCommand returns the argv for running exec.Command over ssh: an
// optional `-i <key>`, `-p <port>`, `user@host`, and the command as one
// unquoted argv element so the remote shell parses pipes and redirects
// (spec.md §4.9 "build_ssh_command").
func BuildSSHCommand(exec Execution, cfg RemoteConfig) []string {
	var argv []string
	if cfg.Key != "" {
		argv = append(argv, "-i", cfg.Key)
	}
	argv = append(argv, "-p", fmt.Sprintf("%d", cfg.Port))
	argv = append(argv, fmt.Sprintf("%s@%s", cfg.User, cfg.Host))
	argv = append(argv, exec.Command)
	return argv
}
