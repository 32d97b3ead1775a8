package client

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/zjrosen/headless/internal/log"
)

// CommandFactoryFunc creates an exec.Cmd. Tests inject a factory that
// substitutes a fixture script for the real binary.
type CommandFactoryFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// SpawnBuilder configures and launches a provider subprocess, wiring its
// pipes into a BaseProcess.
type SpawnBuilder struct {
	ctx            context.Context
	binary         string
	args           []string
	workDir        string
	provider       string
	timeout        time.Duration
	env            []string
	decoder        EventDecoder
	commandFactory CommandFactoryFunc
}

// NewSpawnBuilder creates a builder for the given provider binary.
func NewSpawnBuilder(ctx context.Context, provider, binary string) *SpawnBuilder {
	return &SpawnBuilder{
		ctx:            ctx,
		provider:       provider,
		binary:         binary,
		commandFactory: exec.CommandContext,
	}
}

// WithArgs sets the command line arguments.
func (b *SpawnBuilder) WithArgs(args []string) *SpawnBuilder {
	b.args = args
	return b
}

// WithWorkDir sets the working directory for the subprocess.
func (b *SpawnBuilder) WithWorkDir(dir string) *SpawnBuilder {
	b.workDir = dir
	return b
}

// WithTimeout applies a deadline to the process context.
// Zero means no timeout.
func (b *SpawnBuilder) WithTimeout(d time.Duration) *SpawnBuilder {
	b.timeout = d
	return b
}

// WithEnv appends environment variables in KEY=VALUE form.
// The subprocess always inherits the parent environment.
func (b *SpawnBuilder) WithEnv(env []string) *SpawnBuilder {
	b.env = env
	return b
}

// WithDecoder sets the event decoder for the provider's stream vocabulary.
func (b *SpawnBuilder) WithDecoder(d EventDecoder) *SpawnBuilder {
	b.decoder = d
	return b
}

// WithCommandFactory overrides how the exec.Cmd is constructed.
func (b *SpawnBuilder) WithCommandFactory(f CommandFactoryFunc) *SpawnBuilder {
	if f != nil {
		b.commandFactory = f
	}
	return b
}

// Build starts the subprocess and returns a BaseProcess with its output
// goroutines running.
func (b *SpawnBuilder) Build() (*BaseProcess, error) {
	if b.decoder == nil {
		return nil, fmt.Errorf("spawn %s: no event decoder configured", b.provider)
	}

	ctx := b.ctx
	var cancel context.CancelFunc
	if b.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	cleanup := func(err error) (*BaseProcess, error) {
		cancel()
		return nil, err
	}

	cmd := b.commandFactory(ctx, b.binary, b.args...)
	cmd.Dir = b.workDir
	cmd.Env = append(os.Environ(), b.env...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return cleanup(fmt.Errorf("failed to create stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return cleanup(fmt.Errorf("failed to create stderr pipe: %w", err))
	}

	log.Debug(log.CatAgent, "spawning process",
		"provider", b.provider, "binary", b.binary, "args", fmt.Sprintf("%v", b.args), "workDir", b.workDir)

	if err := cmd.Start(); err != nil {
		return cleanup(fmt.Errorf("failed to start %s: %w", b.provider, err))
	}

	bp := NewBaseProcess(ctx, cancel, cmd, stdout, stderr, b.workDir, b.provider, b.decoder)
	bp.SetStatus(StatusRunning)
	bp.StartGoroutines()
	return bp, nil
}
