// Package runner provides a synchronous, conversation-keeping wrapper
// around a headless agent client. A Runner owns one current conversation:
// the first Run lazily establishes it, later Runs resume it, and Reset
// discards it so the next Run starts fresh.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/headless/internal/agent/client"
	"github.com/zjrosen/headless/internal/log"
)

// initPrompt establishes a conversation without doing real work.
const initPrompt = "Initialize agent session. Respond with exactly: ready"

// ErrNoResult is returned when a process stream ends without a terminal
// result event. This is a protocol violation, distinct from the agent
// reporting a failed turn.
var ErrNoResult = errors.New("stream ended without a result event")

// Result is the outcome of one completed turn.
type Result struct {
	// Text is the accumulated assistant text.
	Text string

	// Stats carries cost, duration, token, and error information.
	Stats client.Stats
}

// IsError reports whether the agent marked the turn as failed.
func (r *Result) IsError() bool {
	return r.Stats.IsError
}

// RunOptions configures a single Run call.
type RunOptions struct {
	// SessionID overrides the runner's current conversation for this call.
	SessionID string

	// Fork branches a new conversation from SessionID instead of
	// continuing it. The runner does not adopt the forked conversation.
	Fork bool

	// OnText receives assistant text as it streams.
	OnText func(text string)

	// OnToolUse receives tool invocations as they stream.
	OnToolUse func(name string, input json.RawMessage)

	// OnEvent receives every decoded event. For archiving and debugging.
	OnEvent func(ev client.OutputEvent)
}

// Runner runs prompts against one provider, keeping the current
// conversation identifier across calls and optionally persisting it
// to a session file.
type Runner struct {
	client      client.AgentClient
	base        client.Config
	sessionFile string
	sessionID   string
	tracer      trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithBaseConfig sets default spawn configuration applied to every run.
// Prompt and session fields of the base config are ignored.
func WithBaseConfig(cfg client.Config) Option {
	return func(r *Runner) { r.base = cfg }
}

// WithSessionFile persists the conversation identifier at the given path
// so it survives across invocations of the wrapping command.
func WithSessionFile(path string) Option {
	return func(r *Runner) { r.sessionFile = path }
}

// WithSessionID seeds the runner with an existing conversation.
func WithSessionID(id string) Option {
	return func(r *Runner) { r.sessionID = id }
}

// New creates a Runner over the given client. If a session file is
// configured and exists, the stored conversation identifier is loaded.
func New(c client.AgentClient, opts ...Option) *Runner {
	r := &Runner{
		client: c,
		tracer: otel.Tracer("headless/runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sessionID == "" && r.sessionFile != "" {
		if data, err := os.ReadFile(r.sessionFile); err == nil {
			r.sessionID = strings.TrimSpace(string(data))
		}
	}
	return r
}

// SessionID returns the current conversation identifier, establishing a
// conversation with an initialization turn if none exists yet.
func (r *Runner) SessionID(ctx context.Context) (string, error) {
	if r.sessionID != "" {
		return r.sessionID, nil
	}

	log.Info(log.CatSession, "initializing conversation", "provider", r.client.Type())
	res, err := r.run(ctx, initPrompt, RunOptions{})
	if err != nil {
		return "", fmt.Errorf("initialize conversation: %w", err)
	}
	if res.Stats.SessionID == "" {
		return "", fmt.Errorf("initialize conversation: no identifier in stream")
	}
	return r.sessionID, nil
}

// CurrentSessionID returns the conversation identifier without
// establishing one. Empty if no conversation exists.
func (r *Runner) CurrentSessionID() string {
	return r.sessionID
}

// Reset discards the current conversation. The next Run starts a new one.
func (r *Runner) Reset() error {
	r.sessionID = ""
	if r.sessionFile == "" {
		return nil
	}
	if err := os.Remove(r.sessionFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	log.Info(log.CatSession, "conversation reset", "provider", r.client.Type())
	return nil
}

// Run executes one prompt and blocks until the turn completes. With no
// current conversation, an initialization turn establishes and persists
// one first, so the substantive prompt always runs against a known
// identifier. A turn the agent marks as failed returns a Result with
// IsError set and a nil error; a nil Result is only returned alongside
// a non-nil error.
func (r *Runner) Run(ctx context.Context, prompt string, opts RunOptions) (*Result, error) {
	if opts.SessionID == "" && !opts.Fork {
		if _, err := r.SessionID(ctx); err != nil {
			return nil, err
		}
	}
	return r.run(ctx, prompt, opts)
}

func (r *Runner) run(ctx context.Context, prompt string, opts RunOptions) (*Result, error) {
	cfg := r.base
	cfg.Prompt = prompt
	cfg.SessionID = opts.SessionID
	cfg.ForkSession = opts.Fork
	if cfg.SessionID == "" && !opts.Fork {
		cfg.SessionID = r.sessionID
	}

	ctx, span := r.tracer.Start(ctx, "runner.run", trace.WithAttributes(
		attribute.String("agent.provider", string(r.client.Type())),
		attribute.String("agent.session_id", cfg.SessionID),
		attribute.Bool("agent.fork", opts.Fork),
	))
	defer span.End()

	proc, err := r.client.Spawn(ctx, cfg)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("spawn %s: %w", r.client.Type(), err)
	}

	agg := client.NewAggregator(client.Callbacks{
		OnText:    opts.OnText,
		OnToolUse: opts.OnToolUse,
	})

	if opts.OnEvent != nil {
		// Tap the stream so raw events are observable alongside aggregation.
		stats := r.consumeWithTap(ctx, proc, agg, opts.OnEvent)
		return r.finish(span, agg, stats, opts)
	}

	stats := agg.Consume(ctx, proc)
	return r.finish(span, agg, stats, opts)
}

// Stream spawns one turn and returns the live process without draining
// it. The caller owns the event and error channels and sees the raw
// decoded events as they arrive. A streamed turn resumes the current
// conversation, establishing one first if needed; the runner does not
// adopt an identifier from the streamed turn itself.
func (r *Runner) Stream(ctx context.Context, prompt string) (client.Process, error) {
	if _, err := r.SessionID(ctx); err != nil {
		return nil, err
	}

	cfg := r.base
	cfg.Prompt = prompt
	cfg.SessionID = r.sessionID

	proc, err := r.client.Spawn(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", r.client.Type(), err)
	}
	return proc, nil
}

func (r *Runner) consumeWithTap(ctx context.Context, proc client.Process, agg *client.Aggregator, tap func(client.OutputEvent)) client.Stats {
	events := proc.Events()
	errs := proc.Errors()
	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			tap(ev)
			agg.Observe(ev)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			stats := agg.Stats()
			stats.IsError = true
			stats.Err = err
			return stats
		case <-ctx.Done():
			stats := agg.Stats()
			stats.IsError = true
			stats.Err = ctx.Err()
			return stats
		}
	}
	return agg.Stats()
}

func (r *Runner) finish(span trace.Span, agg *client.Aggregator, stats client.Stats, opts RunOptions) (*Result, error) {
	span.SetAttributes(
		attribute.Float64("agent.cost_usd", stats.CostUSD),
		attribute.Int64("agent.duration_ms", stats.DurationMs),
		attribute.Int("agent.tokens", stats.TotalTokens),
	)

	// A fork's identifier belongs to the branched conversation, never to
	// the runner's own. A failed run that got far enough to open a
	// conversation still pins it, so a later run resumes rather than
	// starting over.
	if !opts.Fork && stats.SessionID != "" && stats.SessionID != r.sessionID {
		r.sessionID = stats.SessionID
		if err := r.saveSession(); err != nil {
			log.ErrorErr(log.CatSession, "persist session file", err)
		}
	}

	if stats.Err != nil {
		span.SetStatus(codes.Error, stats.Err.Error())
		return nil, stats.Err
	}
	if !agg.SawResult() {
		span.SetStatus(codes.Error, ErrNoResult.Error())
		return nil, ErrNoResult
	}

	if stats.IsError {
		span.SetStatus(codes.Error, "agent reported failed turn")
	}
	return &Result{Text: agg.Text(), Stats: stats}, nil
}

func (r *Runner) saveSession() error {
	if r.sessionFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.sessionFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(r.sessionFile, []byte(r.sessionID+"\n"), 0o644)
}
