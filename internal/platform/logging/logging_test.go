package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/m-mizutani/masq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode parses the single JSON record in buf.
func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	return entry
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, defaultLogger, FromContext(nil)) //nolint:staticcheck // nil guard
	assert.Equal(t, defaultLogger, FromContext(context.Background()))

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Equal(t, custom, FromContext(WithContext(context.Background(), custom)))
}

func TestHasLogger(t *testing.T) {
	assert.False(t, HasLogger(context.Background()))
	assert.False(t, HasLogger(nil)) //nolint:staticcheck // nil guard

	ctx := WithContext(context.Background(), slog.New(slog.DiscardHandler))
	assert.True(t, HasLogger(ctx))
}

func TestContextIdentifiers(t *testing.T) {
	var buf bytes.Buffer

	ctx := WithContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithTraceID(ctx, "trace-456")
	ctx = WithCorrelationID(ctx, "corr-789")
	ctx = WithInvocation(ctx, "c6af9ac6-7b61-11e6-9a41-93e812345678", "stock-quote")

	FromContext(ctx).Info("quote served")

	entry := decode(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "trace-456", entry["trace_id"])
	assert.Equal(t, "corr-789", entry["correlation_id"])
	assert.Equal(t, "c6af9ac6-7b61-11e6-9a41-93e812345678", entry["aws_request_id"])
	assert.Equal(t, "stock-quote", entry["function_name"])
}

func TestWithRequestID_UsesDefaultLogger(t *testing.T) {
	original := defaultLogger
	t.Cleanup(func() { SetDefault(original) })

	var buf bytes.Buffer
	SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	FromContext(WithRequestID(context.Background(), "req-default")).Info("no logger in context")

	assert.Equal(t, "req-default", decode(t, &buf)["request_id"])
}

func TestNewWithWriter_Formats(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out *bytes.Buffer)
	}{
		{
			format: "json",
			check: func(t *testing.T, out *bytes.Buffer) {
				entry := decode(t, out)
				assert.Equal(t, "quote served", entry["msg"])
				assert.Equal(t, "stock-quote", entry["service_name"])
				assert.Equal(t, "1.0.0", entry["service_version"])
			},
		},
		{
			format: "text",
			check: func(t *testing.T, out *bytes.Buffer) {
				assert.Contains(t, out.String(), `msg="quote served"`)
				assert.Contains(t, out.String(), "service_name=stock-quote")
			},
		},
		{
			format: "pretty",
			check: func(t *testing.T, out *bytes.Buffer) {
				assert.Contains(t, out.String(), "quote served")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer

			logger := NewWithWriter(&Config{
				Level:   "info",
				Format:  tt.format,
				Service: "stock-quote",
				Version: "1.0.0",
			}, &buf)
			logger.Info("quote served")

			tt.check(t, &buf)
		})
	}
}

func TestNewWithWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&Config{Level: "warn", Format: "json"}, &buf)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	buf.Reset()
	logger = NewWithWriter(&Config{Level: "trace", Format: "json"}, &buf)
	logger.Log(context.Background(), LevelTrace, "provider payload")
	assert.Contains(t, buf.String(), "provider payload")
}

func TestNewWithWriter_RollingFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "quote.log")

	var buf bytes.Buffer
	logger := NewWithWriter(&Config{
		Level:  "info",
		Format: "pretty",
		File: FileConfig{
			Enabled:    true,
			Path:       logFile,
			MaxSizeMB:  1,
			MaxBackups: 1,
			MaxAgeDays: 1,
		},
	}, &buf)

	logger.Info("written twice", slog.String("symbol", "AAPL"))

	assert.Contains(t, buf.String(), "written twice")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(content, &entry))
	assert.Equal(t, "written twice", entry["msg"])
	assert.Equal(t, "AAPL", entry["symbol"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   LevelTrace,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestSlogToCharmLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, slogToCharmLevel(LevelTrace))
	assert.Equal(t, log.DebugLevel, slogToCharmLevel(slog.LevelDebug))
	assert.Equal(t, log.InfoLevel, slogToCharmLevel(slog.LevelInfo))
	assert.Equal(t, log.WarnLevel, slogToCharmLevel(slog.LevelWarn))
	assert.Equal(t, log.ErrorLevel, slogToCharmLevel(slog.LevelError))
}

func TestRedaction(t *testing.T) {
	tests := []struct {
		name   string
		attr   slog.Attr
		secret string
	}{
		{"token attribute", slog.String("token", "d1k3y-token"), "d1k3y-token"},
		{"api key attribute", slog.String("api_key", "d1k3y-apikey"), "d1k3y-apikey"},
		{"env var name", slog.String("FINNHUB_API_KEY", "d1k3y-env"), "d1k3y-env"},
		{"secret string", slog.String("SecretString", `{"x":"d1k3y-raw"}`), "d1k3y-raw"},
		{
			"provider url",
			slog.String("url", "https://finnhub.io/api/v1/quote?symbol=AAPL&token=d1k3y-url"),
			"d1k3y-url",
		},
		{
			"secret payload",
			slog.String("payload", `{"FINNHUB_API_KEY":"d1k3y-json"}`),
			"d1k3y-json",
		},
		{"authorization header", slog.String("header", "Bearer d1k3y-bearer"), "d1k3y-bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&Config{Level: "info", Format: "json"}, &buf)

			logger.Info("provider call", tt.attr)

			assert.NotContains(t, buf.String(), tt.secret)
			assert.Contains(t, buf.String(), tt.attr.Key)
		})
	}
}

func TestRedaction_LeavesQuoteFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&Config{Level: "info", Format: "json"}, &buf)

	logger.Info("quote served",
		slog.String("symbol", "MSFT"),
		slog.String("url", "https://finnhub.io/api/v1/quote?symbol=MSFT"),
	)

	entry := decode(t, &buf)
	assert.Equal(t, "MSFT", entry["symbol"])
	assert.Equal(t, "https://finnhub.io/api/v1/quote?symbol=MSFT", entry["url"])
}

func TestRedaction_TypeOption(t *testing.T) {
	type apiKey string

	var buf bytes.Buffer
	logger := NewWithWriter(&Config{
		Level:  "info",
		Format: "json",
		Redact: []masq.Option{masq.WithType[apiKey]()},
	}, &buf)

	logger.Info("resolved", slog.Any("source", apiKey("raw-provider-key")))

	assert.NotContains(t, buf.String(), "raw-provider-key")
	assert.Contains(t, buf.String(), "source")
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestTeeHandler(t *testing.T) {
	var info, debug bytes.Buffer

	tee := teeHandler{
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}

	assert.True(t, tee.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, tee.Enabled(context.Background(), LevelTrace))

	logger := slog.New(tee).With(slog.String("symbol", "AAPL")).WithGroup("quote")
	logger.Debug("debug only", slog.Float64("price", 150.25))

	assert.Empty(t, info.String())
	assert.Contains(t, debug.String(), `"symbol":"AAPL"`)
	assert.Contains(t, debug.String(), `"quote":{"price":150.25}`)

	logger.Info("both")
	assert.Contains(t, info.String(), "both")
	assert.Contains(t, debug.String(), "both")
}

func TestTeeHandler_JoinsErrors(t *testing.T) {
	var buf bytes.Buffer

	tee := teeHandler{
		failingHandler{slog.NewJSONHandler(io.Discard, nil)},
		slog.NewJSONHandler(&buf, nil),
	}

	err := tee.Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "still written", 0))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, buf.String(), "still written")
}
