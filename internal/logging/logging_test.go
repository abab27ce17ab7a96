package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		"debug+2": slog.LevelDebug + 2,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := With(WithLogger(context.Background(), base), "order_id", "abc")
	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "order_id=abc")
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"json by default", Options{Service: "ledger-api"}, `"service":"ledger-api"`},
		{"text for the cli", Options{Service: "ledgerctl", Text: true}, "service=ledgerctl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Output = &buf
			Setup(tt.opts).Info("balance read", "payment_method_id", "pm-1")

			assert.Contains(t, buf.String(), tt.want)
			assert.Contains(t, buf.String(), "pm-1")
		})
	}

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		Setup(Options{Service: "ledger-api", Level: "warn", Output: &buf}).Info("dropped")
		assert.Empty(t, buf.String())
	})
}
