// Package mock provides in-memory implementations of the agent client
// interfaces for testing without spawning real CLI processes.
package mock

import (
	"sync"

	"github.com/zjrosen/headless/internal/agent/client"
)

// Process is a scriptable client.Process. Tests drive it by sending
// events and then calling Complete or Fail.
type Process struct {
	sessionRef string
	workDir    string
	status     client.ProcessStatus
	events     chan client.OutputEvent
	errors     chan error

	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewProcess creates a mock process in the Running state.
func NewProcess(sessionRef, workDir string) *Process {
	return &Process{
		sessionRef: sessionRef,
		workDir:    workDir,
		status:     client.StatusRunning,
		events:     make(chan client.OutputEvent, 100),
		errors:     make(chan error, 10),
	}
}

// Events returns the event channel.
func (p *Process) Events() <-chan client.OutputEvent { return p.events }

// Errors returns the error channel.
func (p *Process) Errors() <-chan error { return p.errors }

// SessionRef returns the scripted conversation identifier.
func (p *Process) SessionRef() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sessionRef
}

// Status returns the current status.
func (p *Process) Status() client.ProcessStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// IsRunning returns true while the mock is running.
func (p *Process) IsRunning() bool { return p.Status() == client.StatusRunning }

// WorkDir returns the scripted working directory.
func (p *Process) WorkDir() string { return p.workDir }

// PID returns a fake process ID.
func (p *Process) PID() int { return 4242 }

// Cancel transitions the mock to Cancelled and closes its channels.
func (p *Process) Cancel() error {
	p.setStatus(client.StatusCancelled)
	p.close()
	return nil
}

// Wait returns immediately; the mock has no goroutines.
func (p *Process) Wait() error { return nil }

// SendEvent queues an event for consumers.
func (p *Process) SendEvent(ev client.OutputEvent) {
	p.events <- ev
}

// SendInitEvent queues a system init event carrying the session ref.
func (p *Process) SendInitEvent() {
	p.SendEvent(client.OutputEvent{
		Type:      client.EventSystem,
		SubType:   "init",
		SessionID: p.SessionRef(),
	})
}

// SendTextEvent queues an assistant text event.
func (p *Process) SendTextEvent(text string) {
	p.SendEvent(client.OutputEvent{
		Type:      client.EventAssistant,
		SessionID: p.SessionRef(),
		Message: &client.MessageContent{
			Role:    "assistant",
			Content: []client.ContentBlock{{Type: "text", Text: text}},
		},
	})
}

// SendToolUseEvent queues a tool invocation event.
func (p *Process) SendToolUseEvent(name string, input []byte) {
	p.SendEvent(client.OutputEvent{
		Type: client.EventToolUse,
		Tool: &client.ToolContent{Name: name, Input: input},
	})
}

// SendResultEvent queues a terminal result event.
func (p *Process) SendResultEvent(result string, costUSD float64, isError bool) {
	p.SendEvent(client.OutputEvent{
		Type:          client.EventResult,
		SubType:       "success",
		SessionID:     p.SessionRef(),
		Result:        result,
		TotalCostUSD:  costUSD,
		DurationMs:    100,
		NumTurns:      1,
		IsErrorResult: isError,
	})
}

// Complete transitions the mock to Completed and closes its channels.
func (p *Process) Complete() {
	p.setStatus(client.StatusCompleted)
	p.close()
}

// Fail queues a process error, transitions to Failed, and closes.
func (p *Process) Fail(err error) {
	p.errors <- err
	p.setStatus(client.StatusFailed)
	p.close()
}

func (p *Process) setStatus(s client.ProcessStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

func (p *Process) close() {
	p.closeOnce.Do(func() {
		close(p.events)
		close(p.errors)
	})
}
