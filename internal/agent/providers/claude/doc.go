// Package claude implements the headless client for the Claude Code CLI.
//
// Processes are spawned as "claude --print --output-format stream-json"
// and emit newline-delimited JSON on stdout. The decoder maps the CLI's
// event vocabulary (system, assistant, user, result) onto the unified
// client.OutputEvent model.
//
// The package registers itself with the client registry on import:
//
//	import _ "github.com/zjrosen/headless/internal/agent/providers/claude"
package claude
