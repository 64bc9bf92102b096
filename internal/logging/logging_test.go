package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelError, levelFromString("ERROR"))
	require.Equal(t, slog.LevelWarn, levelFromString(" warning "))
	require.Equal(t, slog.LevelInfo, levelFromString("info"))
	require.Equal(t, slog.LevelDebug, levelFromString("verbose"))
}

func TestNewWithWriterPicksHandler(t *testing.T) {
	t.Parallel()

	var jsonBuf bytes.Buffer
	NewWithWriter(&jsonBuf, "info", "auto", false).Info("batch done", "records", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &entry))
	require.Equal(t, "batch done", entry["msg"])
	require.EqualValues(t, 3, entry["records"])

	var textBuf bytes.Buffer
	logger := NewWithWriter(&textBuf, "warn", "auto", true)
	logger.Info("hidden")
	logger.Warn("shown")
	require.False(t, strings.Contains(textBuf.String(), "hidden"))
	require.Contains(t, textBuf.String(), "msg=shown")

	var forced bytes.Buffer
	NewWithWriter(&forced, "info", "json", true).Info("forced")
	require.True(t, json.Valid(bytes.TrimSpace(forced.Bytes())))
}
