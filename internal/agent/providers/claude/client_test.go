package claude

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/headless/internal/agent/client"
)

func TestBuildArgs_Minimal(t *testing.T) {
	args := buildArgs(client.Config{Prompt: "say hi"})

	require.Equal(t, []string{
		"--print",
		"--output-format", "stream-json",
		"--verbose",
		"--", "say hi",
	}, args)
}

func TestBuildArgs_Resume(t *testing.T) {
	args := buildArgs(client.Config{Prompt: "continue", SessionID: "sess-1"})

	require.Contains(t, args, "--resume")
	require.Contains(t, args, "sess-1")
	require.NotContains(t, args, "--fork-session")
}

func TestBuildArgs_Fork(t *testing.T) {
	args := buildArgs(client.Config{Prompt: "branch", SessionID: "sess-1", ForkSession: true})

	require.Contains(t, args, "--resume")
	require.Contains(t, args, "--fork-session")
}

func TestBuildArgs_AllOptions(t *testing.T) {
	args := buildArgs(client.Config{
		Prompt:             "-weird prompt",
		Model:              "sonnet",
		PermissionMode:     "acceptEdits",
		SkipPermissions:    true,
		AppendSystemPrompt: "be terse",
		AllowedTools:       []string{"Read", "Bash(ls:*)"},
		DisallowedTools:    []string{"WebSearch"},
		MaxTurns:           5,
		MCPConfig:          `{"mcpServers":{}}`,
	})

	require.Contains(t, args, "--model")
	require.Contains(t, args, "acceptEdits")
	require.Contains(t, args, "--dangerously-skip-permissions")
	require.Contains(t, args, "be terse")
	require.Contains(t, args, "Read,Bash(ls:*)")
	require.Contains(t, args, "WebSearch")
	require.Contains(t, args, "--max-turns")
	require.Contains(t, args, "5")
	// Prompt stays positional after the terminator even when it looks like a flag
	require.Equal(t, "--", args[len(args)-2])
	require.Equal(t, "-weird prompt", args[len(args)-1])
}

func TestSpawn_ForkWithoutSession(t *testing.T) {
	c := NewClient()

	_, err := c.Spawn(context.Background(), client.Config{Prompt: "x", ForkSession: true})

	require.Error(t, err)
}

func TestClientRegistered(t *testing.T) {
	require.True(t, client.IsRegistered(client.ClientClaude))

	c, err := client.New(client.ClientClaude)
	require.NoError(t, err)
	require.Equal(t, client.ClientClaude, c.Type())
}
