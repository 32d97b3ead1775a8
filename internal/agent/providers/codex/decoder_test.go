package codex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/headless/internal/agent/client"
)

func TestDecodeEvent_ThreadStarted(t *testing.T) {
	line := []byte(`{"type":"thread.started","thread_id":"th_abc123"}`)

	ev, ok := NewDecoder().DecodeEvent(line)

	require.True(t, ok)
	require.True(t, ev.IsInit())
	require.Equal(t, "th_abc123", ev.SessionID)
}

func TestDecodeEvent_AgentMessage(t *testing.T) {
	line := []byte(`{"type":"item.completed","item":{"id":"item_1","item_type":"agent_message","text":"Here is the answer."}}`)

	ev, ok := NewDecoder().DecodeEvent(line)

	require.True(t, ok)
	require.Equal(t, client.EventAssistant, ev.Type)
	require.Equal(t, "Here is the answer.", ev.Message.Text())
}

func TestDecodeEvent_Reasoning(t *testing.T) {
	line := []byte(`{"type":"item.completed","item":{"id":"item_0","item_type":"reasoning","text":"thinking about it"}}`)

	ev, ok := NewDecoder().DecodeEvent(line)

	require.True(t, ok)
	require.Equal(t, client.EventThinking, ev.Type)
	require.Equal(t, "thinking about it", ev.Message.Text())
}

func TestDecodeEvent_CommandExecution(t *testing.T) {
	started := []byte(`{"type":"item.started","item":{"id":"item_2","item_type":"command_execution","command":"ls -la","status":"in_progress"}}`)
	completed := []byte(`{"type":"item.completed","item":{"id":"item_2","item_type":"command_execution","command":"ls -la","aggregated_output":"total 8\n","exit_code":0,"status":"completed"}}`)

	ev, ok := NewDecoder().DecodeEvent(started)
	require.True(t, ok)
	require.Equal(t, client.EventToolUse, ev.Type)
	require.Equal(t, "command_execution", ev.Tool.Name)
	require.JSONEq(t, `{"command":"ls -la"}`, string(ev.Tool.Input))

	ev, ok = NewDecoder().DecodeEvent(completed)
	require.True(t, ok)
	require.Equal(t, client.EventToolResult, ev.Type)
	require.Equal(t, "total 8\n", ev.Tool.Output)
}

func TestDecodeEvent_McpToolCall(t *testing.T) {
	line := []byte(`{"type":"item.started","item":{"id":"item_3","item_type":"mcp_tool_call","server":"files","tool":"search","status":"in_progress"}}`)

	ev, ok := NewDecoder().DecodeEvent(line)

	require.True(t, ok)
	require.Equal(t, client.EventToolUse, ev.Type)
	require.Equal(t, "files.search", ev.Tool.Name)
}

func TestDecodeEvent_TurnCompleted(t *testing.T) {
	line := []byte(`{"type":"turn.completed","usage":{"input_tokens":5000,"cached_input_tokens":4000,"output_tokens":120}}`)

	ev, ok := NewDecoder().DecodeEvent(line)

	require.True(t, ok)
	require.True(t, ev.IsResult())
	require.False(t, ev.IsErrorResult)
	require.Equal(t, 5120, ev.Usage.Total())
}

func TestDecodeEvent_TurnFailed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"object error", `{"type":"turn.failed","error":{"message":"model overloaded"}}`},
		{"string error", `{"type":"turn.failed","error":"model overloaded"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := NewDecoder().DecodeEvent([]byte(tt.line))

			require.True(t, ok)
			require.True(t, ev.IsResult(), "turn.failed is a terminal event")
			require.True(t, ev.IsErrorResult)
			require.Equal(t, "model overloaded", ev.ErrorMessage())
		})
	}
}

func TestDecodeEvent_ErrorEvent(t *testing.T) {
	line := []byte(`{"type":"error","message":"stream interrupted"}`)

	ev, ok := NewDecoder().DecodeEvent(line)

	require.True(t, ok)
	require.Equal(t, client.EventError, ev.Type)
	require.False(t, ev.IsResult(), "error events do not end the turn")
	require.Equal(t, "stream interrupted", ev.ErrorMessage())
}

func TestDecodeEvent_UnknownSkipped(t *testing.T) {
	for _, line := range []string{
		`{"type":"turn.started"}`,
		`{"type":"item.updated","item":{"item_type":"todo_list"}}`,
		`{"type":"item.completed","item":{"item_type":"file_change"}}`,
	} {
		_, ok := NewDecoder().DecodeEvent([]byte(line))
		require.False(t, ok, "line: %s", line)
	}
}

func TestBuildArgs_NewThread(t *testing.T) {
	args := buildArgs(client.Config{Prompt: "list files"})

	require.Equal(t, []string{"exec", "--json", "list files"}, args)
}

func TestBuildArgs_Resume(t *testing.T) {
	args := buildArgs(client.Config{Prompt: "continue", SessionID: "th_1"})

	require.Equal(t, []string{"exec", "resume", "th_1", "--json", "continue"}, args)
}

func TestBuildArgs_AllOptions(t *testing.T) {
	args := buildArgs(client.Config{
		Prompt:           "go",
		Model:            "gpt-5.2-codex",
		ApprovalPolicy:   "never",
		SandboxMode:      "workspace-write",
		SkipGitRepoCheck: true,
		MCPConfig:        `mcp_servers.files.command="mcp-files"`,
	})

	require.Equal(t, []string{
		"--model", "gpt-5.2-codex",
		"-a", "never",
		"-s", "workspace-write",
		"-c", `mcp_servers.files.command="mcp-files"`,
		"exec", "--json",
		"--skip-git-repo-check",
		"go",
	}, args)
}

func TestSpawn_ForkUnsupported(t *testing.T) {
	c := NewClient()

	_, err := c.Spawn(context.Background(), client.Config{Prompt: "x", SessionID: "th_1", ForkSession: true})

	require.ErrorIs(t, err, client.ErrForkUnsupported)
}
