package runner

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/headless/internal/agent/client"
	"github.com/zjrosen/headless/internal/agent/mock"
)

func TestRun_AdoptsSessionAndResumes(t *testing.T) {
	mc := mock.NewClient()
	r := New(mc)

	res, err := r.Run(context.Background(), "first prompt", RunOptions{})
	require.NoError(t, err)
	require.Equal(t, "ok", res.Text)
	require.False(t, res.IsError())
	require.Equal(t, "mock-session", r.CurrentSessionID())

	_, err = r.Run(context.Background(), "second prompt", RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, mc.SpawnCount(), "initialization turn plus two substantive turns")
	require.Equal(t, 2, mc.ResumeCount())
	require.Equal(t, "mock-session", mc.LastConfig().SessionID)
}

func TestRun_InitializesConversationFirst(t *testing.T) {
	mc := mock.NewClient()
	var configs []client.Config
	mc.SpawnFunc = func(_ context.Context, cfg client.Config) (client.Process, error) {
		configs = append(configs, cfg)
		p := mock.NewProcess("s-1", cfg.WorkDir)
		p.SendInitEvent()
		p.SendResultEvent("done", 0.001, false)
		p.Complete()
		return p, nil
	}
	r := New(mc)

	_, err := r.Run(context.Background(), "do real work", RunOptions{})
	require.NoError(t, err)
	require.Len(t, configs, 2)
	require.Contains(t, configs[0].Prompt, "Initialize agent session")
	require.Empty(t, configs[0].SessionID)
	require.Equal(t, "do real work", configs[1].Prompt)
	require.Equal(t, "s-1", configs[1].SessionID, "the substantive turn resumes the established conversation")
}

func TestStream_InitializesConversationFirst(t *testing.T) {
	mc := mock.NewClient()
	r := New(mc)

	proc, err := r.Stream(context.Background(), "hi")
	require.NoError(t, err)
	for range proc.Events() {
	}
	require.Equal(t, 2, mc.SpawnCount())
	require.Equal(t, "mock-session", mc.LastConfig().SessionID)
}

func TestRun_PersistsSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session")
	mc := mock.NewClient()
	r := New(mc, WithSessionFile(path))

	_, err := r.Run(context.Background(), "hi", RunOptions{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "mock-session", strings.TrimSpace(string(data)))

	// A fresh runner picks the conversation back up from the file.
	r2 := New(mock.NewClient(), WithSessionFile(path))
	require.Equal(t, "mock-session", r2.CurrentSessionID())
}

func TestSessionID_LazyInit(t *testing.T) {
	mc := mock.NewClient()
	r := New(mc)

	id, err := r.SessionID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "mock-session", id)
	require.Equal(t, 1, mc.SpawnCount())
	require.Contains(t, mc.LastConfig().Prompt, "Initialize agent session")

	// Second call reuses the established conversation.
	id, err = r.SessionID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "mock-session", id)
	require.Equal(t, 1, mc.SpawnCount())
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	mc := mock.NewClient()
	r := New(mc, WithSessionFile(path))

	_, err := r.Run(context.Background(), "hi", RunOptions{})
	require.NoError(t, err)
	require.FileExists(t, path)

	require.NoError(t, r.Reset())
	require.Empty(t, r.CurrentSessionID())
	require.NoFileExists(t, path)

	// Reset with no session file present is not an error.
	require.NoError(t, r.Reset())
}

func TestRun_NoResultEvent(t *testing.T) {
	mc := mock.NewClient()
	mc.SpawnFunc = func(_ context.Context, cfg client.Config) (client.Process, error) {
		p := mock.NewProcess("s-1", cfg.WorkDir)
		p.SendInitEvent()
		p.SendTextEvent("partial")
		p.Complete()
		return p, nil
	}
	r := New(mc)

	_, err := r.Run(context.Background(), "hi", RunOptions{})
	require.ErrorIs(t, err, ErrNoResult)
}

func TestRun_SemanticFailure(t *testing.T) {
	mc := mock.NewClient()
	mc.SpawnFunc = func(_ context.Context, cfg client.Config) (client.Process, error) {
		p := mock.NewProcess("s-1", cfg.WorkDir)
		p.SendInitEvent()
		p.SendResultEvent("could not comply", 0.02, true)
		p.Complete()
		return p, nil
	}
	r := New(mc)

	res, err := r.Run(context.Background(), "hi", RunOptions{})
	require.NoError(t, err, "a failed turn is a result, not a transport error")
	require.True(t, res.IsError())
	require.Equal(t, 0.02, res.Stats.CostUSD)
}

func TestRun_ProcessFailure(t *testing.T) {
	mc := mock.NewClient()
	mc.SpawnFunc = func(_ context.Context, cfg client.Config) (client.Process, error) {
		p := mock.NewProcess("s-1", cfg.WorkDir)
		p.Fail(errors.New("exit status 127"))
		return p, nil
	}
	r := New(mc)

	res, err := r.Run(context.Background(), "hi", RunOptions{})
	require.Error(t, err)
	require.Nil(t, res)
}

func TestRun_FailedRunStillPinsConversation(t *testing.T) {
	mc := mock.NewClient()
	mc.SpawnFunc = func(_ context.Context, cfg client.Config) (client.Process, error) {
		p := mock.NewProcess("s-1", cfg.WorkDir)
		p.SendInitEvent()
		p.Fail(errors.New("exit status 1"))
		return p, nil
	}
	r := New(mc)

	_, err := r.Run(context.Background(), "hi", RunOptions{})
	require.Error(t, err)
	require.Equal(t, "s-1", r.CurrentSessionID(), "the opened conversation survives the failure")
}

func TestRun_ForkDoesNotAdoptSession(t *testing.T) {
	mc := mock.NewClient()
	mc.SpawnFunc = func(_ context.Context, cfg client.Config) (client.Process, error) {
		p := mock.NewProcess("forked-session", cfg.WorkDir)
		p.SendInitEvent()
		p.SendResultEvent("branched", 0.001, false)
		p.Complete()
		return p, nil
	}
	r := New(mc, WithSessionID("original"))

	res, err := r.Run(context.Background(), "branch", RunOptions{SessionID: "original", Fork: true})
	require.NoError(t, err)
	require.Equal(t, "forked-session", res.Stats.SessionID)
	require.Equal(t, "original", r.CurrentSessionID())
	require.True(t, mc.LastConfig().ForkSession)
}

func TestRun_StreamingCallbacks(t *testing.T) {
	mc := mock.NewClient()
	mc.SpawnFunc = func(_ context.Context, cfg client.Config) (client.Process, error) {
		p := mock.NewProcess("s-1", cfg.WorkDir)
		p.SendInitEvent()
		p.SendTextEvent("one ")
		p.SendToolUseEvent("Bash", []byte(`{"command":"true"}`))
		p.SendTextEvent("two")
		p.SendResultEvent("one two", 0.003, false)
		p.Complete()
		return p, nil
	}
	r := New(mc)

	var chunks, tools []string
	var eventCount int
	res, err := r.Run(context.Background(), "hi", RunOptions{
		OnText:    func(s string) { chunks = append(chunks, s) },
		OnToolUse: func(name string, _ json.RawMessage) { tools = append(tools, name) },
		OnEvent:   func(client.OutputEvent) { eventCount++ },
	})
	require.NoError(t, err)
	require.Equal(t, []string{"one ", "two"}, chunks)
	require.Equal(t, []string{"Bash"}, tools)
	require.Equal(t, 5, eventCount)
	require.Equal(t, "one two", res.Text)
}

func TestStream_ReturnsLiveProcess(t *testing.T) {
	mc := mock.NewClient()
	mc.SpawnFunc = func(_ context.Context, cfg client.Config) (client.Process, error) {
		p := mock.NewProcess("s-1", cfg.WorkDir)
		p.SendInitEvent()
		p.SendTextEvent("raw")
		p.SendResultEvent("raw", 0.001, false)
		p.Complete()
		return p, nil
	}
	r := New(mc, WithSessionID("existing"))

	proc, err := r.Stream(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "existing", mc.LastConfig().SessionID)

	var types []client.EventType
	for ev := range proc.Events() {
		types = append(types, ev.Type)
	}
	require.Equal(t, []client.EventType{client.EventSystem, client.EventAssistant, client.EventResult}, types)

	// The caller drains the stream; the runner's conversation is untouched.
	require.Equal(t, "existing", r.CurrentSessionID())
}
