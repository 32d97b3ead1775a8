package client

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType identifies the kind of output event.
type EventType string

const (
	// EventSystem is a system-level event; subtype "init" carries the
	// conversation identifier for a fresh or resumed conversation.
	EventSystem EventType = "system"
	// EventAssistant is an assistant message event.
	EventAssistant EventType = "assistant"
	// EventToolUse is a tool invocation event.
	EventToolUse EventType = "tool_use"
	// EventToolResult is a tool result event.
	EventToolResult EventType = "tool_result"
	// EventThinking is an assistant reasoning event.
	EventThinking EventType = "thinking"
	// EventResult is the terminal event closing a turn.
	EventResult EventType = "result"
	// EventError is a non-terminal error event, including decode failures.
	EventError EventType = "error"
)

// OutputEvent represents one decoded event from the headless process output.
// This is a unified structure that both provider vocabularies map their
// events to. Every field is optional; decoders default absent fields to
// zero values so consumers never have to re-check presence.
type OutputEvent struct {
	Type      EventType `json:"type"`
	SubType   string    `json:"subtype,omitempty"`
	Timestamp time.Time `json:"-"`

	// SessionID is the conversation identifier, populated on init events
	// (and on result events for the Claude vocabulary).
	SessionID string `json:"session_id,omitempty"`

	// Message holds assistant content blocks (from assistant events).
	Message *MessageContent `json:"message,omitempty"`

	// Tool holds tool invocation/result data (from tool events).
	Tool *ToolContent `json:"tool,omitempty"`

	// Usage holds token totals (from result events).
	Usage *UsageInfo `json:"usage,omitempty"`

	// Error holds error details for error events and failed results.
	Error *ErrorInfo `json:"error,omitempty"`

	// Terminal fields (from result events).
	TotalCostUSD  float64 `json:"total_cost_usd,omitempty"`
	DurationMs    int64   `json:"duration_ms,omitempty"`
	NumTurns      int     `json:"num_turns,omitempty"`
	IsErrorResult bool    `json:"is_error,omitempty"`
	Result        string  `json:"result,omitempty"`

	// Raw is the original line, retained for archiving.
	Raw json.RawMessage `json:"-"`
}

// IsInit returns true if this is a system init event.
func (e *OutputEvent) IsInit() bool {
	return e.Type == EventSystem && e.SubType == "init"
}

// IsResult returns true if this is a terminal result event.
func (e *OutputEvent) IsResult() bool {
	return e.Type == EventResult
}

// IsError returns true for explicit error events and failed results.
func (e *OutputEvent) IsError() bool {
	return e.Type == EventError || e.IsErrorResult
}

// ErrorMessage returns the best available error description for this event.
func (e *OutputEvent) ErrorMessage() string {
	if e.Error != nil && e.Error.Message != "" {
		return e.Error.Message
	}
	if e.Result != "" {
		return e.Result
	}
	return "unknown error"
}

// MessageContent holds assistant message content.
type MessageContent struct {
	ID      string         `json:"id,omitempty"`
	Role    string         `json:"role,omitempty"`
	Content []ContentBlock `json:"content,omitempty"`
	Model   string         `json:"model,omitempty"`
}

// Text returns the concatenated text content from all text blocks.
func (m *MessageContent) Text() string {
	if m == nil {
		return ""
	}
	var sb strings.Builder
	for _, block := range m.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// ToolUses returns all tool_use content blocks from the message.
func (m *MessageContent) ToolUses() []ContentBlock {
	if m == nil {
		return nil
	}
	var tools []ContentBlock
	for _, block := range m.Content {
		if block.Type == "tool_use" {
			tools = append(tools, block)
		}
	}
	return tools
}

// ContentBlock represents a single content block in a message.
// Can be text, thinking, or tool_use.
type ContentBlock struct {
	Type     string `json:"type,omitempty"`
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`
	// Tool use fields (when Type == "tool_use")
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// ToolContent holds tool use/result content.
type ToolContent struct {
	ID     string          `json:"id,omitempty"`
	Name   string          `json:"name,omitempty"`
	Input  json.RawMessage `json:"input,omitempty"`
	Output string          `json:"output,omitempty"`
}

// UsageInfo holds token totals from terminal events.
type UsageInfo struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

// Total returns input plus output tokens.
func (u *UsageInfo) Total() int {
	if u == nil {
		return 0
	}
	return u.InputTokens + u.OutputTokens
}

// ErrorInfo holds error details.
type ErrorInfo struct {
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
