package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandToSlogDebugDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	CommandToSlog(logger, CommandEvent{Name: "eslint"})
	assert.Equal(t, 0, buf.Len())
}

func TestCommandToSlogDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	CommandToSlog(logger, CommandEvent{
		Name:     "stylelint",
		Args:     []string{"**/*.css", "--formatter", "json"},
		Dir:      StringPtr("/srv/site"),
		ExitCode: 2,
		Duration: 1500 * time.Millisecond,
		Stderr:   StringPtr("warning"),
	})

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "Command finished", logEntry["msg"])
	assert.Equal(t, "stylelint", logEntry["command"])
	assert.Equal(t, []any{"**/*.css", "--formatter", "json"}, logEntry["args"])
	assert.Equal(t, "/srv/site", logEntry["dir"])
	assert.EqualValues(t, 2, logEntry["exitCode"])
	assert.Equal(t, "warning", logEntry["stderr"])
}

func TestCommandToSlogDefaultLogger(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(old)
	})

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	CommandToSlog(nil, CommandEvent{Name: "pa11y"})

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "pa11y", logEntry["command"])
	assert.NotContains(t, logEntry, "dir")
	assert.NotContains(t, logEntry, "stderr")
}

func TestAddIf(t *testing.T) {
	attrs := []any{"existing", "value"}

	result := addIf(attrs, "missing", (*int)(nil))
	assert.Equal(t, attrs, result)

	v := 7
	result = addIf(attrs, "number", &v)
	assert.Equal(t, []any{"existing", "value", "number", 7}, result)
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	require.NotNil(t, StringPtr("x"))
	assert.Equal(t, "x", *StringPtr("x"))
}
