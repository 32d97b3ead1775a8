// Package service drives batches of prompts through a headless agent
// with retry, cost accounting, and raw event archiving. It is the
// unattended counterpart of the interactive runner: tasks come from
// queue files, failures back off exponentially, and a shutdown request
// is honored between tasks, never mid-task.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zjrosen/headless/internal/agent/client"
	"github.com/zjrosen/headless/internal/agent/runner"
	"github.com/zjrosen/headless/internal/log"
)

// TaskStatus is the lifecycle state of one task.
type TaskStatus string

const (
	StatusPending  TaskStatus = "pending"
	StatusRunning  TaskStatus = "running"
	StatusRetrying TaskStatus = "retrying"
	StatusSuccess  TaskStatus = "success"
	StatusFailed   TaskStatus = "failed"
)

// TaskResult is the outcome of one task after all attempts.
type TaskResult struct {
	ID          string
	Prompt      string
	Status      TaskStatus
	Attempts    int
	Output      string
	CostUSD     float64
	DurationMs  int64
	Error       string
	ArchivePath string
}

// Stats accumulates across all tasks a service has run.
type Stats struct {
	Total        int
	Succeeded    int
	Failed       int
	Retries      int
	TotalCostUSD float64
}

// SleepFunc waits for the given duration unless the context ends first.
type SleepFunc func(ctx context.Context, d time.Duration)

func defaultSleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Options configures a Service. The zero value of each field selects
// the documented default.
type Options struct {
	// MaxAttempts is the total number of tries per task, first run
	// included. Defaults to 3.
	MaxAttempts int

	// BackoffUnit scales the retry delay: attempt n waits
	// 2^(n-1) * BackoffUnit before retrying. Defaults to one second.
	BackoffUnit time.Duration

	// BudgetUSD is an advisory cost ceiling. Once cumulative cost
	// crosses it, remaining tasks still run but each completion logs
	// a warning. Zero disables the check.
	BudgetUSD float64

	// ArchiveDir receives one raw event file per task. Empty disables
	// archiving.
	ArchiveDir string

	// Sleep is the retry delay function. Tests inject a recorder.
	Sleep SleepFunc
}

// Service runs tasks against one provider client.
type Service struct {
	client client.AgentClient
	base   client.Config
	opts   Options

	shutdown atomic.Bool

	mu    sync.Mutex
	stats Stats
}

// New creates a Service.
func New(c client.AgentClient, base client.Config, opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BackoffUnit <= 0 {
		opts.BackoffUnit = time.Second
	}
	if opts.Sleep == nil {
		opts.Sleep = defaultSleep
	}
	return &Service{client: c, base: base, opts: opts}
}

// Shutdown requests a graceful stop. The current task finishes; queued
// tasks after it are left unprocessed. Safe from any goroutine.
func (s *Service) Shutdown() {
	s.shutdown.Store(true)
}

// ShutdownRequested reports whether a graceful stop was requested.
func (s *Service) ShutdownRequested() bool {
	return s.shutdown.Load()
}

// Stats returns a snapshot of the accumulated statistics.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// RunTask executes one task, retrying transport and protocol errors with
// exponential backoff. Retries resume the conversation the first attempt
// opened, so the agent keeps its context across attempts. A turn the
// agent itself marks as failed is terminal and never retried.
func (s *Service) RunTask(ctx context.Context, id, prompt string) TaskResult {
	result := TaskResult{ID: id, Prompt: prompt, Status: StatusRunning}

	var archive *eventArchive
	if s.opts.ArchiveDir != "" {
		a, err := newEventArchive(s.opts.ArchiveDir, id)
		if err != nil {
			log.ErrorErr(log.CatQueue, "open event archive", err, "task", id)
		} else {
			archive = a
			result.ArchivePath = a.Path()
			defer archive.Close()
		}
	}

	r := runner.New(s.client, runner.WithBaseConfig(s.base))
	opts := runner.RunOptions{}
	if archive != nil {
		opts.OnEvent = archive.Record
	}

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		result.Attempts = attempt
		log.Info(log.CatQueue, "task attempt", "task", id, "attempt", attempt)

		res, err := r.Run(ctx, prompt, opts)
		if err == nil {
			result.Output = res.Text
			result.CostUSD += res.Stats.CostUSD
			result.DurationMs += res.Stats.DurationMs
			if res.IsError() {
				// A turn the agent marked as failed is terminal; only
				// transport and protocol errors retry.
				result.Status = StatusFailed
				result.Error = res.Text
				log.Warn(log.CatQueue, "task failed", "task", id, "error", result.Error)
			} else {
				result.Status = StatusSuccess
			}
			break
		}

		result.Error = err.Error()
		if attempt == s.opts.MaxAttempts || ctx.Err() != nil {
			result.Status = StatusFailed
			break
		}

		result.Status = StatusRetrying
		s.recordRetry()
		// The upcoming attempt is attempt+1, so it waits 2^attempt units.
		delay := s.opts.BackoffUnit * (1 << attempt)
		log.Warn(log.CatQueue, "task failed, backing off",
			"task", id, "attempt", attempt, "delay", delay.String(), "error", result.Error)
		s.opts.Sleep(ctx, delay)
	}

	s.recordResult(result)
	return result
}

func (s *Service) recordRetry() {
	s.mu.Lock()
	s.stats.Retries++
	s.mu.Unlock()
}

func (s *Service) recordResult(result TaskResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Total++
	s.stats.TotalCostUSD += result.CostUSD
	switch result.Status {
	case StatusSuccess:
		s.stats.Succeeded++
	default:
		s.stats.Failed++
	}

	if s.opts.BudgetUSD > 0 && s.stats.TotalCostUSD > s.opts.BudgetUSD {
		log.Warn(log.CatQueue, "cost budget exceeded",
			"spent", fmt.Sprintf("%.4f", s.stats.TotalCostUSD),
			"budget", fmt.Sprintf("%.4f", s.opts.BudgetUSD))
	}
}

// eventArchive writes one raw event per line to a task's jsonl file.
type eventArchive struct {
	path string
	f    *os.File
}

func newEventArchive(dir, taskID string) (*eventArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, taskID+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &eventArchive{path: path, f: f}, nil
}

func (a *eventArchive) Path() string { return a.path }

func (a *eventArchive) Record(ev client.OutputEvent) {
	if len(ev.Raw) == 0 {
		return
	}
	if _, err := a.f.Write(append(ev.Raw, '\n')); err != nil {
		log.ErrorErr(log.CatQueue, "write event archive", err, "path", a.path)
	}
}

func (a *eventArchive) Close() {
	_ = a.f.Close()
}
