package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/headless/internal/log"
)

// ErrTimeout is returned when a process exceeds its configured timeout.
var ErrTimeout = fmt.Errorf("process timed out")

// BaseProcess provides common process lifecycle management for all providers.
// It owns three goroutines: the stdout decoder, the stderr reader, and the
// exit waiter. Providers embed this struct.
type BaseProcess struct {
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	stderr     io.ReadCloser
	decoder    EventDecoder
	sessionRef string
	workDir    string
	provider   string
	status     ProcessStatus
	events     chan OutputEvent
	errors     chan error
	cancelFunc context.CancelFunc
	ctx        context.Context

	stderrLines []string

	mu sync.RWMutex
	wg sync.WaitGroup
}

// NewBaseProcess creates a BaseProcess over an already-piped exec.Cmd.
// Callers normally go through SpawnBuilder instead.
func NewBaseProcess(
	ctx context.Context,
	cancelFunc context.CancelFunc,
	cmd *exec.Cmd,
	stdout io.ReadCloser,
	stderr io.ReadCloser,
	workDir string,
	provider string,
	decoder EventDecoder,
) *BaseProcess {
	return &BaseProcess{
		cmd:        cmd,
		stdout:     stdout,
		stderr:     stderr,
		decoder:    decoder,
		workDir:    workDir,
		provider:   provider,
		status:     StatusPending,
		events:     make(chan OutputEvent, 100),
		errors:     make(chan error, 10),
		cancelFunc: cancelFunc,
		ctx:        ctx,
	}
}

// Events returns the channel of decoded output events.
// The channel is closed when the process output ends.
func (bp *BaseProcess) Events() <-chan OutputEvent {
	return bp.events
}

// Errors returns the channel of process errors.
func (bp *BaseProcess) Errors() <-chan error {
	return bp.errors
}

// Status returns the current process status. Thread-safe.
func (bp *BaseProcess) Status() ProcessStatus {
	bp.mu.RLock()
	defer bp.mu.RUnlock()
	return bp.status
}

// IsRunning returns true if the process is actively running.
func (bp *BaseProcess) IsRunning() bool {
	return bp.Status() == StatusRunning
}

// WorkDir returns the working directory of the process.
func (bp *BaseProcess) WorkDir() string {
	return bp.workDir
}

// PID returns the OS process ID, or -1 if not running.
func (bp *BaseProcess) PID() int {
	bp.mu.RLock()
	defer bp.mu.RUnlock()
	if bp.cmd == nil || bp.cmd.Process == nil {
		return -1
	}
	return bp.cmd.Process.Pid
}

// SessionRef returns the conversation identifier.
// May be empty until the init event is received. Thread-safe.
func (bp *BaseProcess) SessionRef() string {
	bp.mu.RLock()
	defer bp.mu.RUnlock()
	return bp.sessionRef
}

// SetSessionRef sets the conversation identifier. Thread-safe.
func (bp *BaseProcess) SetSessionRef(ref string) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.sessionRef = ref
}

// StderrLines returns captured stderr output. Thread-safe.
func (bp *BaseProcess) StderrLines() []string {
	bp.mu.RLock()
	defer bp.mu.RUnlock()
	result := make([]string, len(bp.stderrLines))
	copy(result, bp.stderrLines)
	return result
}

// SetStatus updates the process status. Thread-safe.
func (bp *BaseProcess) SetStatus(s ProcessStatus) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.status = s
}

// SendError attempts to send an error to the errors channel.
// If the channel is full, the error is logged but not sent to avoid blocking.
func (bp *BaseProcess) SendError(err error) {
	select {
	case bp.errors <- err:
	default:
		log.Debug(log.CatAgent, "error channel full, dropping error",
			"provider", bp.provider, "error", err)
	}
}

// Cancel terminates the process. It sets the status to Cancelled before
// calling cancelFunc to prevent a race with waitForCompletion.
// Cancel is a no-op if the process is already in a terminal status.
func (bp *BaseProcess) Cancel() error {
	bp.mu.Lock()
	if bp.status.IsTerminal() {
		bp.mu.Unlock()
		return nil
	}
	bp.status = StatusCancelled
	bp.mu.Unlock()
	bp.cancelFunc()
	return nil
}

// Wait blocks until all process goroutines complete.
func (bp *BaseProcess) Wait() error {
	bp.wg.Wait()
	return nil
}

// StartGoroutines launches the goroutines that handle output decoding,
// stderr capture, and process completion. Call after the process started.
func (bp *BaseProcess) StartGoroutines() {
	bp.wg.Add(3)
	go bp.decodeOutput()
	go bp.readStderr()
	go bp.waitForCompletion()
}

// decodeOutput reads stdout and decodes stream-json events.
// The first event carrying a conversation identifier sets the session ref.
func (bp *BaseProcess) decodeOutput() {
	defer bp.wg.Done()
	defer close(bp.events)

	scanner := bufio.NewScanner(bp.stdout)
	// Large tool outputs can exceed the default token size (64KB initial, 1MB max)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		event, ok := Decode(bp.decoder, scanner.Bytes())
		if !ok {
			continue
		}
		event.Timestamp = time.Now()

		if event.SessionID != "" {
			bp.mu.Lock()
			if bp.sessionRef == "" {
				bp.sessionRef = event.SessionID
				log.Debug(log.CatAgent, "got session ref",
					"provider", bp.provider, "sessionRef", event.SessionID)
			}
			bp.mu.Unlock()
		}

		select {
		case bp.events <- event:
		case <-bp.ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil {
		log.Debug(log.CatAgent, "scanner error", "provider", bp.provider, "error", err)
		bp.SendError(fmt.Errorf("stdout scanner error: %w", err))
	}
}

// readStderr captures stderr lines for inclusion in exit errors.
func (bp *BaseProcess) readStderr() {
	defer bp.wg.Done()

	scanner := bufio.NewScanner(bp.stderr)
	for scanner.Scan() {
		line := scanner.Text()
		log.Debug(log.CatAgent, "STDERR", "provider", bp.provider, "line", line)

		bp.mu.Lock()
		bp.stderrLines = append(bp.stderrLines, line)
		bp.mu.Unlock()
	}
}

// waitForCompletion waits for the process to exit and updates status.
// It closes the errors channel when done to signal completion to consumers.
func (bp *BaseProcess) waitForCompletion() {
	defer bp.wg.Done()
	defer close(bp.errors)

	err := bp.cmd.Wait()

	bp.mu.Lock()
	defer bp.mu.Unlock()

	// If already cancelled, don't override status
	if bp.status == StatusCancelled {
		log.Debug(log.CatAgent, "process was cancelled", "provider", bp.provider)
		return
	}

	if errors.Is(bp.ctx.Err(), context.DeadlineExceeded) {
		bp.status = StatusFailed
		log.Debug(log.CatAgent, "process timed out", "provider", bp.provider)
		bp.SendError(ErrTimeout)
		return
	}

	if err != nil {
		bp.status = StatusFailed
		if len(bp.stderrLines) > 0 {
			stderrMsg := strings.Join(bp.stderrLines, "\n")
			bp.SendError(fmt.Errorf("%s process failed: %s (exit: %w)", bp.provider, stderrMsg, err))
		} else {
			bp.SendError(fmt.Errorf("%s process exited: %w", bp.provider, err))
		}
	} else {
		bp.status = StatusCompleted
	}
}
