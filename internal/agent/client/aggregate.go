package client

import (
	"context"
	"encoding/json"
	"strings"
)

// Callbacks are invoked synchronously as the aggregator consumes events.
// Any field may be nil.
type Callbacks struct {
	OnText       func(text string)
	OnToolUse    func(name string, input json.RawMessage)
	OnToolResult func(output string)
	OnThinking   func(text string)
	OnError      func(message string)
}

// Stats summarizes one consumed event stream.
type Stats struct {
	TextChunks  int
	ToolUses    int
	TotalTokens int
	CostUSD     float64
	DurationMs  int64
	NumTurns    int
	SessionID   string
	IsError     bool
	Err         error
}

// Aggregator consumes a process event stream, accumulating assistant text
// and summary statistics. One Aggregator serves one stream.
type Aggregator struct {
	callbacks Callbacks
	text      strings.Builder
	stats     Stats
	sawResult bool
}

// NewAggregator creates an aggregator with the given callbacks.
func NewAggregator(callbacks Callbacks) *Aggregator {
	return &Aggregator{callbacks: callbacks}
}

// Consume drains the process's events and errors channels until both close
// or the context is cancelled, feeding each event through Observe.
// Process-level errors are recorded in Stats.Err; the last one wins.
func (a *Aggregator) Consume(ctx context.Context, proc Process) Stats {
	events := proc.Events()
	errs := proc.Errors()
	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			a.Observe(ev)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			a.stats.IsError = true
			a.stats.Err = err
			if a.callbacks.OnError != nil {
				a.callbacks.OnError(err.Error())
			}
		case <-ctx.Done():
			a.stats.IsError = true
			a.stats.Err = ctx.Err()
			return a.Stats()
		}
	}
	return a.Stats()
}

// Observe feeds a single event into the aggregator.
func (a *Aggregator) Observe(ev OutputEvent) {
	if ev.SessionID != "" && a.stats.SessionID == "" {
		a.stats.SessionID = ev.SessionID
	}

	switch ev.Type {
	case EventAssistant:
		if ev.Message == nil {
			return
		}
		for _, block := range ev.Message.Content {
			switch block.Type {
			case "text":
				if block.Text == "" {
					continue
				}
				a.stats.TextChunks++
				a.text.WriteString(block.Text)
				if a.callbacks.OnText != nil {
					a.callbacks.OnText(block.Text)
				}
			case "thinking":
				if a.callbacks.OnThinking != nil {
					a.callbacks.OnThinking(block.Thinking)
				}
			case "tool_use":
				a.stats.ToolUses++
				if a.callbacks.OnToolUse != nil {
					a.callbacks.OnToolUse(block.Name, block.Input)
				}
			}
		}
	case EventToolUse:
		a.stats.ToolUses++
		if a.callbacks.OnToolUse != nil {
			var name string
			var input json.RawMessage
			if ev.Tool != nil {
				name = ev.Tool.Name
				input = ev.Tool.Input
			}
			a.callbacks.OnToolUse(name, input)
		}
	case EventToolResult:
		if a.callbacks.OnToolResult != nil {
			var output string
			if ev.Tool != nil {
				output = ev.Tool.Output
			}
			a.callbacks.OnToolResult(output)
		}
	case EventThinking:
		if a.callbacks.OnThinking != nil {
			var text string
			if ev.Message != nil {
				text = ev.Message.Text()
			}
			a.callbacks.OnThinking(text)
		}
	case EventResult:
		a.sawResult = true
		a.stats.CostUSD = ev.TotalCostUSD
		a.stats.DurationMs = ev.DurationMs
		a.stats.NumTurns = ev.NumTurns
		if ev.Usage != nil {
			a.stats.TotalTokens += ev.Usage.Total()
		}
		if ev.IsErrorResult {
			a.stats.IsError = true
			if a.callbacks.OnError != nil {
				a.callbacks.OnError(ev.ErrorMessage())
			}
		}
		// A result may carry final text not repeated in assistant events
		if ev.Result != "" && a.text.Len() == 0 {
			a.stats.TextChunks++
			a.text.WriteString(ev.Result)
			if a.callbacks.OnText != nil {
				a.callbacks.OnText(ev.Result)
			}
		}
	case EventError:
		if a.callbacks.OnError != nil {
			a.callbacks.OnError(ev.ErrorMessage())
		}
	}
}

// Text returns the accumulated assistant text.
func (a *Aggregator) Text() string {
	return a.text.String()
}

// SawResult reports whether a terminal result event was observed.
func (a *Aggregator) SawResult() bool {
	return a.sawResult
}

// Stats returns a snapshot of the accumulated statistics.
func (a *Aggregator) Stats() Stats {
	return a.stats
}
