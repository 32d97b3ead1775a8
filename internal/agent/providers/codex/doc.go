// Package codex implements the headless client for the OpenAI Codex CLI.
//
// Processes are spawned as "codex exec --json" and emit newline-delimited
// JSON on stdout. The decoder maps the CLI's thread/turn/item vocabulary
// onto the unified client.OutputEvent model.
//
// The Codex CLI has no fork primitive; Spawn returns
// client.ErrForkUnsupported when a fork is requested.
package codex
