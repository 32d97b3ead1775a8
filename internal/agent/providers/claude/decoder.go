package claude

import (
	"encoding/json"

	"github.com/zjrosen/headless/internal/agent/client"
)

// Decoder maps the Claude Code stream-json vocabulary onto OutputEvents.
type Decoder struct{}

// NewDecoder creates a decoder for the Claude vocabulary.
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
	case "system":
		return client.OutputEvent{
			Type:      client.EventSystem,
			SubType:   raw.SubType,
			SessionID: raw.SessionID,
		}, true

	case "assistant":
		return client.OutputEvent{
			Type:      client.EventAssistant,
			SessionID: raw.SessionID,
			Message:   convertMessage(raw.Message),
		}, true

	case "user":
		// User events carry tool results back to the model.
		tool := firstToolResult(raw.Message)
		if tool == nil {
			return client.OutputEvent{}, false
		}
		return client.OutputEvent{
			Type:      client.EventToolResult,
			SessionID: raw.SessionID,
			Tool:      tool,
		}, true

	case "result":
		ev := client.OutputEvent{
			Type:          client.EventResult,
			SubType:       raw.SubType,
			SessionID:     raw.SessionID,
			TotalCostUSD:  raw.TotalCostUSD,
			DurationMs:    raw.DurationMs,
			NumTurns:      raw.NumTurns,
			IsErrorResult: raw.IsError,
			Result:        raw.Result,
		}
		if raw.Usage != nil {
			ev.Usage = &client.UsageInfo{
				InputTokens:  raw.Usage.InputTokens,
				OutputTokens: raw.Usage.OutputTokens,
			}
		}
		if raw.Error != nil {
			ev.Error = &client.ErrorInfo{Message: raw.Error.Message, Code: raw.Error.Code}
		}
		return ev, true

	case "error":
		ev := client.OutputEvent{Type: client.EventError, SessionID: raw.SessionID}
		if raw.Error != nil {
			ev.Error = &client.ErrorInfo{Message: raw.Error.Message, Code: raw.Error.Code}
		} else if raw.Result != "" {
			ev.Error = &client.ErrorInfo{Message: raw.Result}
		}
		return ev, true
	}

	return client.OutputEvent{}, false
}

func convertMessage(raw *rawMessage) *client.MessageContent {
	if raw == nil {
		return nil
	}
	msg := &client.MessageContent{
		ID:    raw.ID,
		Role:  raw.Role,
		Model: raw.Model,
	}
	for _, b := range raw.Content {
		msg.Content = append(msg.Content, client.ContentBlock{
			Type:     b.Type,
			Text:     b.Text,
			Thinking: b.Thinking,
			ID:       b.ID,
			Name:     b.Name,
			Input:    b.Input,
		})
	}
	return msg
}

func firstToolResult(raw *rawMessage) *client.ToolContent {
	if raw == nil {
		return nil
	}
	for _, b := range raw.Content {
		if b.Type == "tool_result" {
			return &client.ToolContent{
				ID:     b.ToolUseID,
				Output: resultText(b.Content),
			}
		}
	}
	return nil
}
