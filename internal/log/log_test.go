package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogFormatting(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)
	t.Cleanup(func() { SetMinLevel(LevelDebug); SetEnabled(true) })

	Info(CatQueue, "task finished", "task", "queue-0001", "attempts", 2)

	out := buf.String()
	require.Contains(t, out, "[INFO]")
	require.Contains(t, out, "[queue]")
	require.Contains(t, out, "task finished")
	require.Contains(t, out, "task=queue-0001")
	require.Contains(t, out, "attempts=2")
}

func TestLogOddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)

	Warn(CatAgent, "odd fields", "orphan")

	require.Contains(t, buf.String(), "orphan=<missing>")
}

func TestErrorErr(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)

	ErrorErr(CatSession, "save failed", errors.New("disk full"))

	out := buf.String()
	require.Contains(t, out, "[ERROR]")
	require.Contains(t, out, "error=disk full")
}

func TestMinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)
	SetMinLevel(LevelWarn)
	t.Cleanup(func() { SetMinLevel(LevelDebug) })

	Debug(CatUI, "hidden")
	Info(CatUI, "also hidden")
	Warn(CatUI, "visible")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "visible")
}

func TestDisabledLoggerWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)
	SetEnabled(false)
	t.Cleanup(func() { SetEnabled(true) })

	Error(CatConfig, "should not appear")

	require.Empty(t, buf.String())
}
