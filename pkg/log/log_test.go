package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	Info("user service started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "user service started", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: ErrorLevel, JSONOutput: true, Output: &buf})

	Debug("dropped")
	Info("dropped")
	Warn("dropped")
	assert.Zero(t, buf.Len())

	Error("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestCriticalDoesNotExit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	Critical("restore failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fatal", entry["level"])
	assert.Equal(t, "restore failed", entry["message"])
}

func TestContextLoggers(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	componentLogger := WithComponent("discovery")
	componentLogger.Info().Msg("instance online")
	assert.Contains(t, buf.String(), `"component":"discovery"`)

	buf.Reset()
	serviceLogger := WithService("user_service")
	serviceLogger.Info().Msg("registered")
	assert.Contains(t, buf.String(), `"service":"user_service"`)

	buf.Reset()
	requestLogger := WithRequestID("7c9a3f21b4d800a1")
	requestLogger.Info().Msg("handled")
	assert.Contains(t, buf.String(), `"request_id":"7c9a3f21b4d800a1"`)
}
