package log

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/internal/imports"
)

type logLine struct {
	message string
	level   entities.LogLevel
}

// recordingHost answers proxy_log only.
type recordingHost struct {
	lines  []logLine
	status entities.Status
}

func (h *recordingHost) ProxyLog(level entities.LogLevel, message string) entities.Status {
	h.lines = append(h.lines, logLine{level: level, message: message})
	return h.status
}

func (*recordingHost) ProxyGetBufferBytes(entities.BufferType, uint32, uint32, *uint32, *uint32) entities.Status {
	return entities.StatusUnimplemented
}

func (*recordingHost) ProxySetBufferBytes(entities.BufferType, uint32, uint32, []byte) entities.Status {
	return entities.StatusUnimplemented
}

func (*recordingHost) ProxyGetHeaderMapValue(entities.MapType, string, *uint32, *uint32) entities.Status {
	return entities.StatusUnimplemented
}

func (*recordingHost) ProxyReplaceHeaderMapValue(entities.MapType, string, string) entities.Status {
	return entities.StatusUnimplemented
}

func (*recordingHost) ProxyGetState(string, string, *uint32, *uint32) entities.Status {
	return entities.StatusUnimplemented
}

func (*recordingHost) ProxyInvokeService(string, string, []byte, *uint32, *uint32) entities.Status {
	return entities.StatusUnimplemented
}

func (*recordingHost) ProxyCallForeignFunction(string, []byte, *uint32, *uint32) entities.Status {
	return entities.StatusUnimplemented
}

func install(t *testing.T) *recordingHost {
	t.Helper()
	h := &recordingHost{}
	t.Cleanup(imports.Install(h))
	return h
}

func TestHandler_RoutesThroughProxyLog(t *testing.T) {
	h := install(t)
	logger := slog.New(NewHandler(WithLevel(LevelTrace)))

	logger.Info("started", "id", "id_1")
	logger.Log(context.Background(), LevelCritical, "contract violation")
	logger.Log(context.Background(), LevelTrace, "trace")

	require.Len(t, h.lines, 3)
	assert.Equal(t, logLine{level: entities.LogLevelInfo, message: "started id=id_1"}, h.lines[0])
	assert.Equal(t, entities.LogLevelCritical, h.lines[1].level)
	assert.Equal(t, entities.LogLevelTrace, h.lines[2].level)
}

func TestHandler_AttrsAndGroups(t *testing.T) {
	h := install(t)
	logger := slog.New(NewHandler()).With("plugin", "client").WithGroup("req")

	logger.Error("lookup failed", "name", "Foo Bar", slog.Group("svc", "id", "id_2"))

	require.Len(t, h.lines, 1)
	assert.Equal(t, entities.LogLevelError, h.lines[0].level)
	assert.Equal(t, `lookup failed plugin=client req.name="Foo Bar" req.svc.id=id_2`, h.lines[0].message)
}

func TestHandler_FiltersBelowLevel(t *testing.T) {
	h := install(t)
	logger := slog.New(NewHandler(WithLevel(slog.LevelWarn)))

	logger.Info("dropped")
	logger.Warn("kept")

	require.Len(t, h.lines, 1)
	assert.Equal(t, "kept", h.lines[0].message)
}

func TestHandler_Source(t *testing.T) {
	h := install(t)
	slog.New(NewHandler(WithSource(true))).Info("here")

	require.Len(t, h.lines, 1)
	assert.Contains(t, h.lines[0].message, "source=")
	assert.Contains(t, h.lines[0].message, "log_test.go:")
}

func TestHandler_ReportsHostFailure(t *testing.T) {
	h := install(t)
	h.status = entities.StatusInternalFailure

	err := NewHandler().Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0))
	assert.Error(t, err)
}

func TestProxyLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  entities.LogLevel
	}{
		{LevelTrace, entities.LogLevelTrace},
		{slog.LevelDebug - 1, entities.LogLevelTrace},
		{slog.LevelDebug, entities.LogLevelDebug},
		{slog.LevelInfo, entities.LogLevelInfo},
		{slog.LevelWarn, entities.LogLevelWarn},
		{slog.LevelError, entities.LogLevelError},
		{LevelCritical - 1, entities.LogLevelError},
		{LevelCritical, entities.LogLevelCritical},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ProxyLevel(tt.level))
		})
	}
}

func TestFormatValue(t *testing.T) {
	type payload struct {
		Field string `json:"field"`
	}
	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"string", slog.String("k", "value"), "value"},
		{"int64", slog.Int64("k", 123), "123"},
		{"bool", slog.Bool("k", true), "true"},
		{"float64", slog.Float64("k", 1.5), "1.5"},
		{"time", slog.Time("k", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), "2024-01-01T00:00:00Z"},
		{"duration", slog.Duration("k", time.Hour), "1h0m0s"},
		{"error", slog.Any("k", errors.New("test error")), "test error"},
		{"stringer", slog.Any("k", entities.StatusNotFound), "NotFound"},
		{"json", slog.Any("k", payload{Field: "data"}), `{"field":"data"}`},
		{"nil", slog.Any("k", nil), "<nil>"},
		{"log valuer", slog.Any("k", logValuer{val: "resolved"}), "resolved"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.attr.Value.Resolve()))
		})
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	assert.Equal(t, "plain", quoteIfNeeded("plain"))
	assert.Equal(t, `""`, quoteIfNeeded(""))
	assert.True(t, strings.HasPrefix(quoteIfNeeded("a b"), `"`))
}

type logValuer struct {
	val string
}

func (l logValuer) LogValue() slog.Value {
	return slog.StringValue(l.val)
}
