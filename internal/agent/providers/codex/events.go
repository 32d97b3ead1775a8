package codex

import (
	"encoding/json"
	"fmt"
)

// rawEvent mirrors the wire format of one "codex exec --json" line.
type rawEvent struct {
	Type     string      `json:"type"`
	ThreadID string      `json:"thread_id,omitempty"`
	Item     *rawItem    `json:"item,omitempty"`
	Usage    *rawUsage   `json:"usage,omitempty"`
	Error    *codexError `json:"error,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// rawItem is one thread item. ItemType selects which fields are populated.
type rawItem struct {
	ID       string `json:"id,omitempty"`
	ItemType string `json:"item_type,omitempty"`
	Status   string `json:"status,omitempty"`

	// agent_message / reasoning
	Text string `json:"text,omitempty"`

	// command_execution
	Command          string `json:"command,omitempty"`
	AggregatedOutput string `json:"aggregated_output,omitempty"`
	ExitCode         *int   `json:"exit_code,omitempty"`

	// mcp_tool_call
	Server string `json:"server,omitempty"`
	Tool   string `json:"tool,omitempty"`
}

type rawUsage struct {
	InputTokens       int `json:"input_tokens,omitempty"`
	CachedInputTokens int `json:"cached_input_tokens,omitempty"`
	OutputTokens      int `json:"output_tokens,omitempty"`
}

// codexError handles the polymorphic error field, emitted either as a
// plain string or as {"message": ...}.
type codexError struct {
	Message string
}

func (e *codexError) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Message = s
		return nil
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unmarshal error field: %w", err)
	}
	e.Message = obj.Message
	return nil
}
