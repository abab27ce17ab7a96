// Package logging configures slog for the ledger binaries and carries a
// request- or order-scoped logger through context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey struct{}

// Options selects how a binary logs. Output defaults to stdout; ledgerctl
// sends logs to stderr so balances and rates printed on stdout stay
// machine-readable.
type Options struct {
	Service string
	Level   string
	// Text switches from JSON lines to the human-readable handler.
	Text   bool
	Output io.Writer
}

// Setup installs the default logger tagged with the binary's name.
func Setup(o Options) *slog.Logger {
	out := o.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(o.Level)}

	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if o.Text {
		h = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(h).With("service", o.Service)
	slog.SetDefault(logger)
	return logger
}

// Init is Setup for the HTTP binaries: text output in development, JSON
// everywhere else.
func Init(service, level, appEnv string) *slog.Logger {
	return Setup(Options{Service: service, Level: level, Text: appEnv == "development"})
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With returns a context whose logger carries the extra attributes, such as
// the request id, the calling user or the idempotency key of an order.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		if strings.EqualFold(strings.TrimSpace(s), "warning") {
			return slog.LevelWarn
		}
		return slog.LevelInfo
	}
	return lvl
}
