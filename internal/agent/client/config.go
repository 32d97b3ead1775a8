package client

import "time"

// Config holds provider-agnostic configuration for spawning a process.
// Providers ignore fields their CLI has no flag for.
type Config struct {
	// WorkDir is the working directory for the process.
	WorkDir string

	// Prompt is the text sent to the agent as the final positional argument.
	Prompt string

	// SessionID is the conversation identifier for resume operations.
	// Empty means start a new conversation.
	SessionID string

	// ForkSession requests a new conversation branched from SessionID.
	// Providers without a fork primitive return ErrForkUnsupported.
	ForkSession bool

	// Model selects the provider model (e.g. "sonnet", "gpt-5.2-codex").
	Model string

	// PermissionMode is the Claude permission mode:
	// default, acceptEdits, plan, bypassPermissions.
	PermissionMode string

	// SandboxMode is the Codex sandbox mode:
	// read-only, workspace-write, danger-full-access.
	SandboxMode string

	// ApprovalPolicy is the Codex approval policy:
	// untrusted, on-failure, on-request, never.
	ApprovalPolicy string

	// AppendSystemPrompt is text appended to the agent's system instructions.
	AppendSystemPrompt string

	// AllowedTools lists tools that are explicitly allowed.
	AllowedTools []string

	// DisallowedTools lists tools that are explicitly disallowed.
	DisallowedTools []string

	// MaxTurns caps the number of agentic turns per run. Zero means no cap.
	MaxTurns int

	// MCPConfig configures MCP servers (JSON for Claude, TOML override
	// expression for Codex). Empty means no MCP servers.
	MCPConfig string

	// SkipPermissions bypasses permission prompts entirely.
	// Use with caution.
	SkipPermissions bool

	// SkipGitRepoCheck suppresses the Codex git-repository safety check.
	SkipGitRepoCheck bool

	// Timeout is the maximum duration for the process. Zero means no timeout;
	// any finer-grained limiting is the CLI's own concern (MaxTurns).
	Timeout time.Duration

	// ExtraArgs are appended verbatim before the prompt.
	ExtraArgs []string
}
