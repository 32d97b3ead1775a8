package codex

import (
	"encoding/json"
	"fmt"

	"github.com/zjrosen/headless/internal/agent/client"
)

// Decoder maps the Codex thread/turn/item vocabulary onto OutputEvents.
// It never falls back to the Claude vocabulary; each CLI's stream is
// decoded only by its own strategy.
type Decoder struct{}

// NewDecoder creates a decoder for the Codex vocabulary.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeEvent decodes one syntactically valid JSON line.
// Returns false for event types outside the vocabulary.
func (d *Decoder) DecodeEvent(data []byte) (client.OutputEvent, bool) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return client.OutputEvent{
			Type:  client.EventError,
			Error: &client.ErrorInfo{Message: "unexpected event shape: " + err.Error()},
		}, true
	}

	switch raw.Type {
	case "thread.started":
		// The thread ID plays the same role as the Claude session ID.
		return client.OutputEvent{
			Type:      client.EventSystem,
			SubType:   "init",
			SessionID: raw.ThreadID,
		}, true

	case "item.started":
		return decodeItemStarted(raw.Item)

	case "item.completed":
		return decodeItemCompleted(raw.Item)

	case "turn.completed":
		ev := client.OutputEvent{Type: client.EventResult}
		if raw.Usage != nil {
			ev.Usage = &client.UsageInfo{
				InputTokens:  raw.Usage.InputTokens,
				OutputTokens: raw.Usage.OutputTokens,
			}
		}
		return ev, true

	case "turn.failed":
		ev := client.OutputEvent{
			Type:          client.EventResult,
			IsErrorResult: true,
		}
		if raw.Error != nil {
			ev.Error = &client.ErrorInfo{Message: raw.Error.Message}
		}
		return ev, true

	case "error":
		msg := raw.Message
		if msg == "" && raw.Error != nil {
			msg = raw.Error.Message
		}
		return client.OutputEvent{
			Type:  client.EventError,
			Error: &client.ErrorInfo{Message: msg},
		}, true
	}

	return client.OutputEvent{}, false
}

func decodeItemStarted(item *rawItem) (client.OutputEvent, bool) {
	if item == nil {
		return client.OutputEvent{}, false
	}
	switch item.ItemType {
	case "command_execution":
		return client.OutputEvent{
			Type: client.EventToolUse,
			Tool: &client.ToolContent{
				ID:    item.ID,
				Name:  "command_execution",
				Input: mustJSON(map[string]string{"command": item.Command}),
			},
		}, true
	case "mcp_tool_call":
		return client.OutputEvent{
			Type: client.EventToolUse,
			Tool: &client.ToolContent{
				ID:   item.ID,
				Name: fmt.Sprintf("%s.%s", item.Server, item.Tool),
			},
		}, true
	}
	return client.OutputEvent{}, false
}

func decodeItemCompleted(item *rawItem) (client.OutputEvent, bool) {
	if item == nil {
		return client.OutputEvent{}, false
	}
	switch item.ItemType {
	case "agent_message":
		return client.OutputEvent{
			Type: client.EventAssistant,
			Message: &client.MessageContent{
				Role:    "assistant",
				Content: []client.ContentBlock{{Type: "text", Text: item.Text}},
			},
		}, true
	case "reasoning":
		return client.OutputEvent{
			Type: client.EventThinking,
			Message: &client.MessageContent{
				Content: []client.ContentBlock{{Type: "text", Text: item.Text}},
			},
		}, true
	case "command_execution":
		return client.OutputEvent{
			Type: client.EventToolResult,
			Tool: &client.ToolContent{
				ID:     item.ID,
				Name:   "command_execution",
				Output: item.AggregatedOutput,
			},
		}, true
	case "mcp_tool_call":
		return client.OutputEvent{
			Type: client.EventToolResult,
			Tool: &client.ToolContent{
				ID:   item.ID,
				Name: fmt.Sprintf("%s.%s", item.Server, item.Tool),
			},
		}, true
	}
	return client.OutputEvent{}, false
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
