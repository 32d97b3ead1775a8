package mock

import (
	"context"
	"sync"

	"github.com/zjrosen/headless/internal/agent/client"
)

func init() {
	client.RegisterClient(client.ClientMock, func() client.AgentClient {
		return NewClient()
	})
}

// Client is a scriptable client.AgentClient. Set SpawnFunc to control
// what each Spawn call returns; the default spawns a process that
// immediately succeeds with a canned result.
type Client struct {
	// SpawnFunc is called for each Spawn. Optional.
	SpawnFunc func(ctx context.Context, cfg client.Config) (client.Process, error)

	mu          sync.Mutex
	spawnCount  int
	resumeCount int
	lastConfig  client.Config
}

// NewClient creates a mock client.
func NewClient() *Client {
	return &Client{}
}

// Type returns the mock client type.
func (c *Client) Type() client.ClientType {
	return client.ClientMock
}

// Spawn records the call and delegates to SpawnFunc if set.
func (c *Client) Spawn(ctx context.Context, cfg client.Config) (client.Process, error) {
	c.mu.Lock()
	c.spawnCount++
	if cfg.SessionID != "" {
		c.resumeCount++
	}
	c.lastConfig = cfg
	c.mu.Unlock()

	if c.SpawnFunc != nil {
		return c.SpawnFunc(ctx, cfg)
	}

	sessionRef := cfg.SessionID
	if sessionRef == "" {
		sessionRef = "mock-session"
	}
	p := NewProcess(sessionRef, cfg.WorkDir)
	p.SendInitEvent()
	p.SendTextEvent("ok")
	p.SendResultEvent("ok", 0.001, false)
	p.Complete()
	return p, nil
}

// SpawnCount returns how many times Spawn was called.
func (c *Client) SpawnCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spawnCount
}

// ResumeCount returns how many Spawn calls carried a session ID.
func (c *Client) ResumeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumeCount
}

// LastConfig returns the config from the most recent Spawn call.
func (c *Client) LastConfig() client.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastConfig
}
