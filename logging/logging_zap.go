package logging

import "go.uber.org/zap"

type zapLogger struct {
	z *zap.Logger
}

// NewLoggerFromZap wraps an existing *zap.Logger as a Logger.
func NewLoggerFromZap(z *zap.Logger) Logger {
	return &zapLogger{z: z}
}

func (l *zapLogger) Debug(msg string, fields ...LogField) {
	l.z.Debug(msg, toZapFields(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...LogField) {
	l.z.Info(msg, toZapFields(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...LogField) {
	l.z.Warn(msg, toZapFields(fields)...)
}

func (l *zapLogger) Error(msg string, fields ...LogField) {
	l.z.Error(msg, toZapFields(fields)...)
}

func (l *zapLogger) WithFields(fields ...LogField) Logger {
	return &zapLogger{z: l.z.With(toZapFields(fields)...)}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name)}
}

func toZapFields(fields []LogField) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, toZapField(f))
	}
	return out
}

func toZapField(f LogField) zap.Field {
	switch f.Type {
	case StringLogFieldType:
		return zap.String(f.Key, f.String)
	case IntLogFieldType:
		return zap.Int64(f.Key, f.Int)
	case BoolLogFieldType:
		return zap.Bool(f.Key, f.Bool)
	case ErrorLogFieldType:
		return zap.Error(f.Err)
	case StringsLogFieldType:
		return zap.Strings(f.Key, f.Strings)
	default:
		return zap.Skip()
	}
}
