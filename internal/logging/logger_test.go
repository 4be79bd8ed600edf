package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONWritesStructuredRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "debug", "json")
	require.NoError(t, err)

	logger.Debug("refresh finished", Err(errors.New("boom")))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "refresh finished", record["msg"])
	assert.Equal(t, "boom", record["error"])
	assert.Equal(t, "DEBUG", record["level"])
}

func TestNewTextFiltersBelowLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	t.Parallel()

	_, err := New(&bytes.Buffer{}, "loud", "text")
	require.ErrorContains(t, err, `unknown log level "loud"`)

	_, err = New(&bytes.Buffer{}, "info", "xml")
	require.ErrorContains(t, err, `unknown log format "xml"`)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"DEBUG":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}

	for input, want := range tests {
		got, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestErrNilIsEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Err(nil).Value.String())
}
