package ecs

import "go.uber.org/zap"

// zapLogger adapts a *zap.Logger to the Logger interface.
type zapLogger struct {
	l *zap.Logger
}

// NewZapLogger wraps l, or a no-op zap logger if l is nil.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return zapLogger{l: l}
}

func (z zapLogger) With(key string, value any) Logger {
	return zapLogger{l: z.l.With(zap.Any(key, value))}
}

func (z zapLogger) Info(msg string, args ...any) {
	z.l.Info(msg, toZapFields(args)...)
}

func (z zapLogger) Error(msg string, args ...any) {
	z.l.Error(msg, toZapFields(args)...)
}

// toZapFields treats args as alternating key/value pairs, matching the
// slog-style variadic convention the Logger interface uses.
func toZapFields(args []any) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}
