package log

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseLoggerRestoresPrevious(t *testing.T) {
	rl := &RecordLogger{}
	restore := UseLogger(rl)
	Info("hello %d", 1)
	require.Len(t, rl.Logs(), 1)
	assert.Contains(t, rl.Logs()[0], "hello 1")

	restore()
	// after restoring, further logs should not land in rl.
	Info("should not appear")
	assert.Len(t, rl.Logs(), 1)
}

func TestLevelGating(t *testing.T) {
	rl := &RecordLogger{}
	defer UseLogger(rl)()
	oldLevel := GetLevel()
	defer SetLevel(oldLevel)

	SetLevel(LevelWarn)
	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	Error("error msg")

	logs := rl.Logs()
	require.Len(t, logs, 2)
	assert.Contains(t, logs[0], "WARN")
	assert.Contains(t, logs[1], "ERROR")
}

func Test_SlogHandler(t *testing.T) {
	rl := &RecordLogger{}
	defer UseLogger(rl)()
	oldLevel := GetLevel()
	SetLevel(LevelDebug)
	defer SetLevel(oldLevel)

	l := slog.New(SlogHandler{})
	l = l.With("foo", "bar")
	l = l.WithGroup("a").WithGroup("b")
	l.Info("info test", "n", 1)

	logs := rl.Logs()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "info test foo=bar a.b.n=1")
}
