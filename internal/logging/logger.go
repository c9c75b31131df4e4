// Package logging defines the structured-logging interface used across
// ingestgate and its slog and zap implementations.
package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "upload accepted", "method", method, "destination", dest)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Backend names accepted by New.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// ErrUnknownBackend is returned by New for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown log backend")

// New builds a JSON logger writing to w with the given backend. An empty
// backend selects slog.
func New(backend string, w io.Writer, debug bool) (Logger, error) {
	switch backend {
	case "", BackendSlog:
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
		return NewSlogLogger(slog.New(h)), nil
	case BackendZap:
		level := zapcore.InfoLevel
		if debug {
			level = zapcore.DebugLevel
		}
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
		return NewZapLogger(zap.New(core).Sugar()), nil
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "%q", backend)
	}
}
