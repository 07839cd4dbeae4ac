package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"vsc-polls/lib/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixedLoggerTagsComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	base := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l := logger.PrefixedLogger{Prefix: "vote-ledger", Base: base}
	l.Info("vote cast", "poll_id", 1)

	record := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "vote-ledger", record["component"])
	assert.Equal(t, "vote cast", record["msg"])
	assert.Equal(t, float64(1), record["poll_id"])
}

func TestPrefixedLoggerRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	base := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l := logger.PrefixedLogger{Prefix: "poll-registry", Base: base}
	l.Debug("hidden")
	assert.Equal(t, 0, buf.Len())

	l.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}
