package client

import (
	"context"
	"fmt"
)

// ClientType identifies the headless client provider.
type ClientType string

const (
	// ClientClaude is the Claude Code CLI client.
	ClientClaude ClientType = "claude"
	// ClientCodex is the OpenAI Codex CLI client.
	ClientCodex ClientType = "codex"
	// ClientMock is a mock client for testing.
	ClientMock ClientType = "mock"
)

// AgentClient is a factory for spawning headless agent processes.
// Implementations handle the provider-specific details of argument
// construction and event decoding.
type AgentClient interface {
	// Type returns the client type identifier.
	Type() ClientType

	// Spawn creates and starts a headless process.
	// If cfg.SessionID is set, resumes an existing conversation.
	// If cfg.SessionID is empty, starts a new conversation.
	Spawn(ctx context.Context, cfg Config) (Process, error)
}

// ErrUnknownClientType is returned when an unknown client type is requested.
var ErrUnknownClientType = fmt.Errorf("unknown client type")

// ErrForkUnsupported is returned by providers whose CLI has no fork primitive.
var ErrForkUnsupported = fmt.Errorf("provider does not support session forking")

var clientRegistry = make(map[ClientType]func() AgentClient)

// RegisterClient registers a client factory for the given type.
// This should be called in init() functions of provider packages.
func RegisterClient(clientType ClientType, factory func() AgentClient) {
	clientRegistry[clientType] = factory
}

// New creates an AgentClient for the given type.
// Returns ErrUnknownClientType if the type is not registered.
func New(clientType ClientType) (AgentClient, error) {
	factory, ok := clientRegistry[clientType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClientType, clientType)
	}
	return factory(), nil
}

// RegisteredClients returns a slice of all registered client types.
func RegisteredClients() []ClientType {
	types := make([]ClientType, 0, len(clientRegistry))
	for t := range clientRegistry {
		types = append(types, t)
	}
	return types
}

// IsRegistered returns true if the given client type has been registered.
func IsRegistered(clientType ClientType) bool {
	_, ok := clientRegistry[clientType]
	return ok
}
