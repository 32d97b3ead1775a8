package codex

import (
	"github.com/zjrosen/headless/internal/agent/client"
)

// buildArgs constructs the codex CLI argument list. Global flags precede
// the exec subcommand; resume takes the thread ID as a positional
// argument; the prompt is always last.
func buildArgs(cfg client.Config) []string {
	var args []string

	if cfg.Model != "" {
		args = append(args, "--model", cfg.Model)
	}
	if cfg.ApprovalPolicy != "" {
		args = append(args, "-a", cfg.ApprovalPolicy)
	}
	if cfg.SandboxMode != "" {
		args = append(args, "-s", cfg.SandboxMode)
	}
	if cfg.MCPConfig != "" {
		args = append(args, "-c", cfg.MCPConfig)
	}

	args = append(args, "exec")
	if cfg.SessionID != "" {
		args = append(args, "resume", cfg.SessionID)
	}
	args = append(args, "--json")

	if cfg.SkipPermissions {
		args = append(args, "--dangerously-bypass-approvals-and-sandbox")
	}
	if cfg.SkipGitRepoCheck {
		args = append(args, "--skip-git-repo-check")
	}
	args = append(args, cfg.ExtraArgs...)
	args = append(args, cfg.Prompt)
	return args
}
