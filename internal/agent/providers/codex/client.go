package codex

import (
	"context"

	"github.com/zjrosen/headless/internal/agent/client"
)

// DefaultBinary is the codex CLI executable name.
const DefaultBinary = "codex"

func init() {
	client.RegisterClient(client.ClientCodex, func() client.AgentClient {
		return NewClient()
	})
}

// Client spawns headless Codex processes.
type Client struct {
	binary         string
	commandFactory client.CommandFactoryFunc
}

// Option configures the client.
type Option func(*Client)

// WithBinary overrides the codex executable path.
func WithBinary(binary string) Option {
	return func(c *Client) { c.binary = binary }
}

// WithCommandFactory overrides command construction, for tests.
func WithCommandFactory(f client.CommandFactoryFunc) Option {
	return func(c *Client) { c.commandFactory = f }
}

// NewClient creates a Codex client.
func NewClient(opts ...Option) *Client {
	c := &Client{binary: DefaultBinary}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the client type identifier.
func (c *Client) Type() client.ClientType {
	return client.ClientCodex
}

// Spawn starts a headless codex process. A non-empty cfg.SessionID resumes
// that thread. Forking is not supported by the codex CLI.
func (c *Client) Spawn(ctx context.Context, cfg client.Config) (client.Process, error) {
	if cfg.ForkSession {
		return nil, client.ErrForkUnsupported
	}

	b := client.NewSpawnBuilder(ctx, string(client.ClientCodex), c.binary).
		WithArgs(buildArgs(cfg)).
		WithWorkDir(cfg.WorkDir).
		WithTimeout(cfg.Timeout).
		WithDecoder(NewDecoder())
	if c.commandFactory != nil {
		b = b.WithCommandFactory(c.commandFactory)
	}
	return b.Build()
}
