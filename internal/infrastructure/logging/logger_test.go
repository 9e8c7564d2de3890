package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level LogLevel, format LogFormat) (*StructuredLogger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	cfg := NewConfig("exapi-test", "test", "testing").
		WithLevel(level).
		WithFormat(format).
		WithOutput(buf)

	logger, err := NewStructuredLogger(cfg)
	require.NoError(t, err)
	return logger, buf
}

func decodeEntries(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestStructuredLogger_JSONEntry(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelDebug, FormatJSON)
	ctx := WithRequestID(context.Background(), "req_abc")

	logger.Info(ctx, "hello", Fields{"exchange": "kraken"})

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, LevelInfo, entries[0].Level)
	assert.Equal(t, "hello", entries[0].Message)
	assert.Equal(t, "req_abc", entries[0].RequestID)
	assert.Equal(t, "exapi-test", entries[0].Service)
	assert.Equal(t, "kraken", entries[0].Fields["exchange"])
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelWarn, FormatJSON)
	ctx := context.Background()

	logger.Debug(ctx, "debug", nil)
	logger.Info(ctx, "info", nil)
	logger.Warn(ctx, "warn", nil)
	logger.Error(ctx, "error", nil)

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0].Message)
	assert.Equal(t, "error", entries[1].Message)

	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, logger.GetLevel())
}

func TestStructuredLogger_WithErrorDoesNotMutateFields(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelDebug, FormatJSON)
	fields := Fields{"k": "v"}

	logger.WarnWithError(context.Background(), "failed", fmt.Errorf("wrapped: %w", errors.New("root")), fields)

	assert.Len(t, fields, 1)
	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "wrapped: root", entries[0].Fields[FieldError])
	assert.Equal(t, "*errors.errorString", entries[0].Fields[FieldErrorType])
}

func TestDomainLogger_PromotesDomain(t *testing.T) {
	base, buf := newBufferLogger(t, LevelDebug, FormatJSON)
	factory := NewLoggerFactoryFromLogger(base)

	factory.GetGovernorLogger().Terminal(context.Background(), "kraken", "ServiceUnavailable", 4, errors.New("boom"))

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "governor", entries[0].Domain)
	assert.Equal(t, LevelWarn, entries[0].Level)
	assert.Equal(t, "ServiceUnavailable", entries[0].Fields[FieldKind])
	assert.Equal(t, float64(4), entries[0].Fields[FieldAttempt])
	assert.NotContains(t, entries[0].Fields, FieldDomain)
}

func TestCacheLogger_StaleServedIsWarning(t *testing.T) {
	base, buf := newBufferLogger(t, LevelWarn, FormatJSON)
	cacheLogger := NewCacheLogger(base)
	ctx := context.Background()

	cacheLogger.Hit(ctx, "kraken:USD:BTC")
	cacheLogger.StaleServed(ctx, "kraken:USD:BTC", 90*time.Second)

	entries := decodeEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "cache", entries[0].Domain)
	assert.Equal(t, float64(90), entries[0].Fields[FieldCacheAge])
}

func TestStructuredLogger_TextFormat(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelInfo, FormatText)
	ctx := WithRequestID(context.Background(), "req_1")

	NewHTTPLogger(logger).RequestCompleted(ctx, "GET", "/health", 200, 1.5)

	line := buf.String()
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "req:req_1")
	assert.Contains(t, line, "domain:http")
	assert.Contains(t, line, "HTTP request completed")
}

func TestLoggerConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, DefaultConfig().WithLevel("TRACE").Validate())
	assert.Error(t, DefaultConfig().WithFormat("xml").Validate())
	assert.Error(t, DefaultConfig().WithService("").Validate())
	assert.Error(t, DefaultConfig().WithOutput(nil).Validate())
}

func TestLevelAndFormatFromString(t *testing.T) {
	assert.Equal(t, LevelDebug, LogLevelFromString("DEBUG"))
	assert.Equal(t, LevelWarn, LogLevelFromString(" warning "))
	assert.Equal(t, LevelInfo, LogLevelFromString("nonsense"))
	assert.Equal(t, FormatText, LogFormatFromString("TEXT"))
	assert.Equal(t, FormatJSON, LogFormatFromString(""))
}

func TestRequestIDGenerator(t *testing.T) {
	gen := NewRequestIDGenerator("")

	id := gen.Generate()
	assert.True(t, strings.HasPrefix(id, "req_"))
	assert.True(t, gen.IsValid(id))
	assert.NotEqual(t, id, gen.Generate())

	assert.False(t, gen.IsValid("req_1234"))
	assert.False(t, gen.IsValid("other_"+id))
}
