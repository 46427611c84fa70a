package telemetry

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test")
	assert.NotNil(t, logger)
}

func TestLoggerComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger{Logger: zerolog.New(&buf).With().Str("component", "analyzer").Logger()}

	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"analyzer"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestLoggerKeepsStdoutClean(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	NewLogger("test").Info().Msg("a log line")

	require.NoError(t, w.Close())
	captured, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, string(captured), "stdout is reserved for report output")
}

func TestSetupCLI(t *testing.T) {
	SetupCLI(false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	_, ok := baseWriter.(zerolog.ConsoleWriter)
	assert.True(t, ok)

	SetupCLI(true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestRecordRun_SafeBeforeInit(t *testing.T) {
	// Instruments are nil until InitOTEL runs; RecordRun must not panic
	assert.NotPanics(t, func() {
		RecordRun(context.Background(), 10, 3, 1, 123.45, 2*time.Second)
	})
}

func TestRecordRunWithInstruments(t *testing.T) {
	require.NoError(t, initMetrics())
	require.NotNil(t, RunDuration)

	assert.NotPanics(t, func() {
		RecordRun(context.Background(), 2, 1, 0, 70.08, 1500*time.Millisecond)
	})
}

func TestLogResourceSkipped(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger{Logger: zerolog.New(&buf)}

	logger.LogResourceSkipped(context.Background(), "i-123", "insufficient_data")

	assert.Contains(t, buf.String(), `"resource_id":"i-123"`)
	assert.Contains(t, buf.String(), `"reason":"insufficient_data"`)
}

func TestLogCollaboratorError(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger{Logger: zerolog.New(&buf)}

	logger.LogCollaboratorError(context.Background(), "telemetry", assert.AnError)

	assert.Contains(t, buf.String(), `"collaborator":"telemetry"`)
	assert.Contains(t, buf.String(), "collaborator call failed")
}
