package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EventDecoder is the per-vocabulary decoding strategy. Each provider
// implements this for its own event vocabulary; the shared line handling
// (blank lines, malformed JSON) lives in Decode.
type EventDecoder interface {
	// DecodeEvent converts one syntactically valid JSON object into an
	// OutputEvent. Returns false for event types outside the vocabulary,
	// which the caller must skip silently (forward compatibility).
	DecodeEvent(data []byte) (OutputEvent, bool)
}

// Decode turns one raw stdout line into an OutputEvent. Contract:
//
//   - blank or whitespace-only line: (zero, false), not an error
//   - malformed JSON: an EventError event carrying the raw text and a
//     description; the stream continues
//   - unrecognized event type: (zero, false)
//   - otherwise: the decoder's event with Raw populated
//
// Decode never returns an error; this is the recovery boundary for
// decode failures.
func Decode(dec EventDecoder, line []byte) (OutputEvent, bool) {
	data := bytes.TrimSpace(line)
	if len(data) == 0 {
		return OutputEvent{}, false
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)

	if !json.Valid(data) {
		return OutputEvent{
			Type: EventError,
			Error: &ErrorInfo{
				Message: fmt.Sprintf("malformed JSON line: %q", truncate(string(data), 120)),
			},
			Raw: raw,
		}, true
	}

	event, ok := dec.DecodeEvent(data)
	if !ok {
		return OutputEvent{}, false
	}
	event.Raw = raw
	return event, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
