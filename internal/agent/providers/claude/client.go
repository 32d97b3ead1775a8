package claude

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zjrosen/headless/internal/agent/client"
)

// DefaultBinary is the claude CLI executable name.
const DefaultBinary = "claude"

func init() {
	client.RegisterClient(client.ClientClaude, func() client.AgentClient {
		return NewClient()
	})
}

// Client spawns headless Claude Code processes.
type Client struct {
	binary         string
	commandFactory client.CommandFactoryFunc
}

// Option configures the client.
type Option func(*Client)

// WithBinary overrides the claude executable path.
func WithBinary(binary string) Option {
	return func(c *Client) { c.binary = binary }
}

// WithCommandFactory overrides command construction, for tests.
func WithCommandFactory(f client.CommandFactoryFunc) Option {
	return func(c *Client) { c.commandFactory = f }
}

// NewClient creates a Claude client.
func NewClient(opts ...Option) *Client {
	c := &Client{binary: DefaultBinary}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the client type identifier.
func (c *Client) Type() client.ClientType {
	return client.ClientClaude
}

// Spawn starts a headless claude process. A non-empty cfg.SessionID resumes
// that conversation; cfg.ForkSession additionally branches it, leaving the
// original conversation untouched.
func (c *Client) Spawn(ctx context.Context, cfg client.Config) (client.Process, error) {
	if cfg.ForkSession && cfg.SessionID == "" {
		return nil, fmt.Errorf("fork requires a session to fork from")
	}

	b := client.NewSpawnBuilder(ctx, string(client.ClientClaude), c.binary).
		WithArgs(buildArgs(cfg)).
		WithWorkDir(cfg.WorkDir).
		WithTimeout(cfg.Timeout).
		WithDecoder(NewDecoder())
	if c.commandFactory != nil {
		b = b.WithCommandFactory(c.commandFactory)
	}
	return b.Build()
}

// buildArgs constructs the claude CLI argument list. The prompt is passed
// as a positional argument after "--" so prompt text starting with a dash
// is never parsed as a flag.
func buildArgs(cfg client.Config) []string {
	args := []string{
		"--print",
		"--output-format", "stream-json",
		"--verbose",
	}

	if cfg.SessionID != "" {
		args = append(args, "--resume", cfg.SessionID)
		if cfg.ForkSession {
			args = append(args, "--fork-session")
		}
	}
	if cfg.Model != "" {
		args = append(args, "--model", cfg.Model)
	}
	if cfg.PermissionMode != "" {
		args = append(args, "--permission-mode", cfg.PermissionMode)
	}
	if cfg.SkipPermissions {
		args = append(args, "--dangerously-skip-permissions")
	}
	if cfg.AppendSystemPrompt != "" {
		args = append(args, "--append-system-prompt", cfg.AppendSystemPrompt)
	}
	if len(cfg.AllowedTools) > 0 {
		args = append(args, "--allowed-tools", strings.Join(cfg.AllowedTools, ","))
	}
	if len(cfg.DisallowedTools) > 0 {
		args = append(args, "--disallowed-tools", strings.Join(cfg.DisallowedTools, ","))
	}
	if cfg.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(cfg.MaxTurns))
	}
	if cfg.MCPConfig != "" {
		args = append(args, "--mcp-config", cfg.MCPConfig)
	}
	args = append(args, cfg.ExtraArgs...)
	args = append(args, "--", cfg.Prompt)
	return args
}
