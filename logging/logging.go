// Package logging is confcore's structured-logging layer: a small
// Logger interface independent of any particular backend, a NopLogger
// default, and a zap-backed implementation for callers that want real
// output.
package logging

// Logger is the common logging interface taken by the confcore facade
// (WithLogger) and used by the CLI front end.
type Logger interface {
	// Info logs a message at the info level, including any fields
	// passed in this call plus any already attached via WithFields.
	Info(msg string, fields ...LogField)
	// Debug logs a message at the debug level.
	Debug(msg string, fields ...LogField)
	// Warn logs a message at the warn level.
	Warn(msg string, fields ...LogField)
	// Error logs a message at the error level.
	Error(msg string, fields ...LogField)
	// WithFields returns a new Logger that includes fields on every
	// subsequent call.
	WithFields(fields ...LogField) Logger
	// Named returns a new Logger scoped under name; nested names join
	// with a period (e.g. "parser" -> "include" -> "parser.include").
	Named(name string) Logger
}

// LogFieldType identifies which field of LogField is populated.
type LogFieldType int

const (
	StringLogFieldType LogFieldType = iota
	IntLogFieldType
	BoolLogFieldType
	ErrorLogFieldType
	StringsLogFieldType
)

// LogField is a single key/value pair attached to a log message.
type LogField struct {
	Type    LogFieldType
	Key     string
	String  string
	Int     int64
	Bool    bool
	Err     error
	Strings []string
}

// StringField builds a string-valued LogField.
func StringField(key, value string) LogField {
	return LogField{Type: StringLogFieldType, Key: key, String: value}
}

// IntField builds an integer-valued LogField.
func IntField(key string, value int64) LogField {
	return LogField{Type: IntLogFieldType, Key: key, Int: value}
}

// BoolField builds a boolean-valued LogField.
func BoolField(key string, value bool) LogField {
	return LogField{Type: BoolLogFieldType, Key: key, Bool: value}
}

// ErrorField builds an error-valued LogField.
func ErrorField(key string, value error) LogField {
	return LogField{Type: ErrorLogFieldType, Key: key, Err: value}
}

// StringsField builds a string-slice-valued LogField.
func StringsField(key string, values []string) LogField {
	return LogField{Type: StringsLogFieldType, Key: key, Strings: values}
}

// NopLogger discards everything logged to it. It is the default used
// wherever a caller doesn't supply its own Logger.
type NopLogger struct{}

// NewNopLogger returns a Logger that does nothing.
func NewNopLogger() Logger { return NopLogger{} }

func (NopLogger) Info(msg string, fields ...LogField)  {}
func (NopLogger) Debug(msg string, fields ...LogField) {}
func (NopLogger) Warn(msg string, fields ...LogField)  {}
func (NopLogger) Error(msg string, fields ...LogField) {}

func (l NopLogger) WithFields(fields ...LogField) Logger { return l }
func (l NopLogger) Named(name string) Logger             { return l }
