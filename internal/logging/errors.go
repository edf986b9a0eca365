package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// plainErrors logs error fields as their message only. Errors from
// github.com/pkg/errors implement fmt.Formatter, and zap would otherwise
// add an errorVerbose field carrying the full stack trace.
type plainErrors struct {
	zapcore.Core
}

func (c plainErrors) With(fields []zapcore.Field) zapcore.Core {
	return plainErrors{c.Core.With(flattenErrors(fields))}
}

func (c plainErrors) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c plainErrors) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, flattenErrors(fields))
}

func flattenErrors(fields []zapcore.Field) []zapcore.Field {
	var out []zapcore.Field
	for i, f := range fields {
		if f.Type != zapcore.ErrorType {
			continue
		}
		err, ok := f.Interface.(error)
		if !ok || err == nil {
			continue
		}
		// copy once, callers own fields
		if out == nil {
			out = append([]zapcore.Field(nil), fields...)
		}
		out[i] = zap.String(f.Key, err.Error())
	}
	if out == nil {
		return fields
	}
	return out
}
