// Package dockerbackend implements sessionbackend.Backend by running each
// Action as a `docker exec` into one long-lived container. It is the
// concrete adapter named in SPEC_FULL.md's DOMAIN STACK: the core only
// ever sees the sessionbackend.Backend interface, never the Docker SDK
// directly (spec.md §9 "core has no goroutines, no network or disk I/O").
package dockerbackend

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"go.uber.org/zap"

	"github.com/kandev/kandev/internal/common/config"
	"github.com/kandev/kandev/internal/common/logger"
	"github.com/kandev/kandev/internal/core/sessionbackend"
)

// Backend runs tmux-flavoured Actions inside one target container via
// `docker exec`, mirroring the command strings sessionbackend.BuildCommand
// renders for a bare-metal tmux host.
type Backend struct {
	cli         *client.Client
	log         *logger.Logger
	containerID string
}

// New creates a Backend bound to an already-running container, using the
// same client construction the teacher's docker package does.
func New(cfg config.DockerConfig, log *logger.Logger, containerID string) (*Backend, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, client.WithVersion(cfg.APIVersion))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("dockerbackend: create client: %w", err)
	}
	return &Backend{cli: cli, log: log, containerID: containerID}, nil
}

// Close releases the underlying Docker client.
func (b *Backend) Close() error {
	return b.cli.Close()
}

// ExecuteAction runs the Action's canonical command string inside the
// bound container and returns its combined stdout/stderr and exit code.
func (b *Backend) ExecuteAction(a sessionbackend.Action) (sessionbackend.Result, error) {
	cmd := sessionbackend.BuildCommand(a)
	if cmd == "" {
		return sessionbackend.Result{}, fmt.Errorf("dockerbackend: unsupported action kind %d", a.Kind)
	}
	return b.runShell(context.Background(), cmd)
}

// SessionExists reports whether a named tmux session is present inside
// the container.
func (b *Backend) SessionExists(name string) (bool, error) {
	res, err := b.runShell(context.Background(), fmt.Sprintf("tmux has-session -t %s", sessionbackend.ShellQuote(name)))
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// ListSessions lists every tmux session name inside the container.
func (b *Backend) ListSessions() ([]string, error) {
	res, err := b.runShell(context.Background(), "tmux list-sessions -F '#{session_name}'")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, nil
	}
	return sessionbackend.ParseSessions(res.Output), nil
}

// CapturePane returns the rendered contents of one tmux pane.
func (b *Backend) CapturePane(target string) (string, error) {
	res, err := b.runShell(context.Background(), fmt.Sprintf("tmux capture-pane -t %s -p", sessionbackend.ShellQuote(target)))
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// runShell execs "sh -c <cmd>" in the container and drains its output.
func (b *Backend) runShell(ctx context.Context, cmd string) (sessionbackend.Result, error) {
	b.log.Debug("dockerbackend exec", zap.String("container_id", b.containerID), zap.String("cmd", cmd))

	execCfg := container.ExecOptions{
		Cmd:          []string{"sh", "-c", cmd},
		AttachStdout: true,
		AttachStderr: true,
	}
	created, err := b.cli.ContainerExecCreate(ctx, b.containerID, execCfg)
	if err != nil {
		return sessionbackend.Result{}, fmt.Errorf("dockerbackend: exec create: %w", err)
	}

	attach, err := b.cli.ContainerExecAttach(ctx, created.ID, container.ExecStartOptions{})
	if err != nil {
		return sessionbackend.Result{}, fmt.Errorf("dockerbackend: exec attach: %w", err)
	}
	defer attach.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(attach.Reader); err != nil {
		return sessionbackend.Result{}, fmt.Errorf("dockerbackend: read exec output: %w", err)
	}

	inspect, err := b.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return sessionbackend.Result{}, fmt.Errorf("dockerbackend: exec inspect: %w", err)
	}

	return sessionbackend.Result{
		Output:   strings.TrimRight(buf.String(), "\n"),
		ExitCode: inspect.ExitCode,
	}, nil
}
