package claude

import (
	"encoding/json"
	"fmt"
)

// rawEvent mirrors the wire format of one stream-json line.
type rawEvent struct {
	Type      string       `json:"type"`
	SubType   string       `json:"subtype,omitempty"`
	SessionID string       `json:"session_id,omitempty"`
	Message   *rawMessage  `json:"message,omitempty"`
	Model     string       `json:"model,omitempty"`
	Tools     []string     `json:"tools,omitempty"`
	Error     *claudeError `json:"error,omitempty"`

	// Result fields.
	TotalCostUSD float64   `json:"total_cost_usd,omitempty"`
	DurationMs   int64     `json:"duration_ms,omitempty"`
	NumTurns     int       `json:"num_turns,omitempty"`
	IsError      bool      `json:"is_error,omitempty"`
	Result       string    `json:"result,omitempty"`
	Usage        *rawUsage `json:"usage,omitempty"`
}

type rawMessage struct {
	ID      string            `json:"id,omitempty"`
	Role    string            `json:"role,omitempty"`
	Model   string            `json:"model,omitempty"`
	Content []rawContentBlock `json:"content,omitempty"`
	Usage   *rawUsage         `json:"usage,omitempty"`
}

type rawContentBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Thinking string          `json:"thinking,omitempty"`
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`

	// Tool result fields (content blocks of type "tool_result").
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type rawUsage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

// claudeError handles the polymorphic error field, which the CLI emits
// either as a plain string or as {"message": ..., "code": ...}.
type claudeError struct {
	Message string
	Code    string
}

func (e *claudeError) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Message = s
		return nil
	}

	var obj struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unmarshal error field: %w", err)
	}
	e.Message = obj.Message
	e.Code = obj.Code
	return nil
}

// resultText extracts a tool result's output as plain text. The content
// field may be a string or a list of content blocks.
func resultText(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var blocks []rawContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return string(data)
	}
	var out string
	for _, b := range blocks {
		if b.Type == "text" {
			out += b.Text
		}
	}
	return out
}
