package client_test

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/headless/internal/agent/client"
)

// testDecoder decodes a minimal vocabulary for spawn tests.
type testDecoder struct{}

func (testDecoder) DecodeEvent(data []byte) (client.OutputEvent, bool) {
	var raw struct {
		Type      string `json:"type"`
		SessionID string `json:"session_id"`
		Result    string `json:"result"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return client.OutputEvent{}, false
	}
	switch raw.Type {
	case "init":
		return client.OutputEvent{Type: client.EventSystem, SubType: "init", SessionID: raw.SessionID}, true
	case "result":
		return client.OutputEvent{Type: client.EventResult, Result: raw.Result}, true
	}
	return client.OutputEvent{}, false
}

// scriptFactory ignores the requested binary and runs a shell script,
// standing in for the real CLI.
func scriptFactory(script string) client.CommandFactoryFunc {
	return func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "/bin/sh", "-c", script)
	}
}

func TestSpawnBuilder_HappyPath(t *testing.T) {
	script := `printf '%s\n%s\n%s\n' \
		'{"type":"init","session_id":"s-77"}' \
		'not json' \
		'{"type":"result","result":"done"}'`

	bp, err := client.NewSpawnBuilder(context.Background(), "fake", "fake-cli").
		WithDecoder(testDecoder{}).
		WithCommandFactory(scriptFactory(script)).
		Build()
	require.NoError(t, err)

	var events []client.OutputEvent
	for ev := range bp.Events() {
		events = append(events, ev)
	}
	require.NoError(t, bp.Wait())

	require.Len(t, events, 3)
	require.True(t, events[0].IsInit())
	require.Equal(t, client.EventError, events[1].Type)
	require.True(t, events[2].IsResult())
	require.Equal(t, "s-77", bp.SessionRef())
	require.Equal(t, client.StatusCompleted, bp.Status())

	for err := range bp.Errors() {
		t.Fatalf("unexpected process error: %v", err)
	}
}

func TestSpawnBuilder_NonZeroExit(t *testing.T) {
	script := `echo 'boom' >&2; exit 3`

	bp, err := client.NewSpawnBuilder(context.Background(), "fake", "fake-cli").
		WithDecoder(testDecoder{}).
		WithCommandFactory(scriptFactory(script)).
		Build()
	require.NoError(t, err)

	for range bp.Events() {
	}
	require.NoError(t, bp.Wait())

	require.Equal(t, client.StatusFailed, bp.Status())

	var procErr error
	for err := range bp.Errors() {
		procErr = err
	}
	require.Error(t, procErr)
	require.Contains(t, procErr.Error(), "boom")
}

func TestSpawnBuilder_Timeout(t *testing.T) {
	bp, err := client.NewSpawnBuilder(context.Background(), "fake", "fake-cli").
		WithDecoder(testDecoder{}).
		WithTimeout(50 * time.Millisecond).
		WithCommandFactory(scriptFactory(`sleep 5`)).
		Build()
	require.NoError(t, err)

	for range bp.Events() {
	}
	require.NoError(t, bp.Wait())

	var procErr error
	for err := range bp.Errors() {
		procErr = err
	}
	require.ErrorIs(t, procErr, client.ErrTimeout)
	require.Equal(t, client.StatusFailed, bp.Status())
}

func TestSpawnBuilder_Cancel(t *testing.T) {
	bp, err := client.NewSpawnBuilder(context.Background(), "fake", "fake-cli").
		WithDecoder(testDecoder{}).
		WithCommandFactory(scriptFactory(`sleep 5`)).
		Build()
	require.NoError(t, err)
	require.True(t, bp.IsRunning())
	require.Greater(t, bp.PID(), 0)

	require.NoError(t, bp.Cancel())
	for range bp.Events() {
	}
	require.NoError(t, bp.Wait())

	require.Equal(t, client.StatusCancelled, bp.Status())
}

func TestSpawnBuilder_RequiresDecoder(t *testing.T) {
	_, err := client.NewSpawnBuilder(context.Background(), "fake", "fake-cli").Build()
	require.Error(t, err)
}
