package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CustomWriter(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:  slog.LevelInfo,
		Format: "json",
		Writer: &buf,
	}

	logger := New(cfg)
	logger.Info("scrape complete")

	assert.Contains(t, buf.String(), "scrape complete")
	assert.Contains(t, buf.String(), "\"level\":\"INFO\"")
}

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantFormat  string
	}{
		{"production uses json", "production", "json"},
		{"development uses pretty", "development", "pretty"},
		{"staging uses pretty", "staging", "pretty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{
				Level:       slog.LevelInfo,
				Environment: tt.environment,
				Writer:      &buf,
			})
			logger.Info("test")

			output := buf.String()
			if tt.wantFormat == "json" {
				assert.Contains(t, output, `"msg":"test"`)
			} else {
				// Pretty format wraps the message in ANSI codes.
				assert.Contains(t, output, "test")
				assert.Contains(t, output, colorBold)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	assert.False(t, handler.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(handler)
	logger.Info("page fetched", "page", 3, "products", 48)

	output := buf.String()
	assert.Contains(t, output, "page fetched")
	assert.Contains(t, output, "page=3")
	assert.Contains(t, output, "products=48")
	assert.Contains(t, output, "INF")
}

func TestPrettyHandler_LevelTags(t *testing.T) {
	tests := []struct {
		level slog.Level
		tag   string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
			slog.New(handler).Log(context.Background(), tt.level, "test")
			assert.Contains(t, buf.String(), tt.tag)
		})
	}
}

func TestPrettyHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	bound := handler.WithAttrs([]slog.Attr{
		slog.String("category", "muebles-de-dormitorio"),
		slog.Int("session", 7),
	})

	slog.New(bound).Info("checkpoint saved")

	output := buf.String()
	assert.Contains(t, output, "category=muebles-de-dormitorio")
	assert.Contains(t, output, "session=7")
	assert.Contains(t, output, "checkpoint saved")
}

func TestPrettyHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	// Empty group returns the same handler.
	assert.Equal(t, handler, handler.WithGroup(""))

	grouped := handler.WithGroup("scrape")
	slog.New(grouped).Info("page fetched", "page", 1)

	// Group name prefixes the attribute keys.
	assert.Contains(t, buf.String(), "scrape.page=1")
}

func TestPrettyHandler_WithSource(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	})

	slog.New(handler).Info("test message")

	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestNewPrettyHandler_NilOptions(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, nil)
	require.NotNil(t, handler)

	slog.New(handler).Info("test")
	assert.Contains(t, buf.String(), "test")
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	logger.WithError(errors.New("connection reset")).Warn("retrying page")

	output := buf.String()
	assert.Contains(t, output, "connection reset")
	assert.Contains(t, output, "retrying page")
}

func TestLogger_WithField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	logger.WithField("sku", "2004286215156P").Info("product indexed")

	output := buf.String()
	assert.Contains(t, output, "sku")
	assert.Contains(t, output, "2004286215156P")
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Format: "json", Writer: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}
