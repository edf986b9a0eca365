package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	grey          = "\033[38;5;240m"
	boldLightGrey = "\033[1;38;5;240m"
	red           = "\033[38;5;9m"
	yellow        = "\033[38;5;11m"
	reset         = "\033[0m"
)

// levelColors paints each line by severity. Levels missing here reset.
var levelColors = map[zapcore.Level]string{
	zapcore.DebugLevel:  grey,
	zapcore.InfoLevel:   boldLightGrey,
	zapcore.WarnLevel:   yellow,
	zapcore.ErrorLevel:  red,
	zapcore.DPanicLevel: red,
	zapcore.PanicLevel:  red,
	zapcore.FatalLevel:  red,
}

// lineColorLevelEncoder starts the colour for the whole line; the line
// ending resets it.
func lineColorLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	color, ok := levelColors[l]
	if !ok {
		color = reset
	}
	enc.AppendString(color + l.CapitalString())
}

// Level returns the level selected by the verbose and debug switches. Warn
// is the default so a normal run prints nothing.
func Level(verbose, debug bool) zapcore.Level {
	switch {
	case debug:
		return zapcore.DebugLevel
	case verbose:
		return zapcore.InfoLevel
	}
	return zapcore.WarnLevel
}

// New creates a console logger writing to stderr, or to os.Stderr when nil
func New(stderr io.Writer, verbose, debug bool) *zap.SugaredLogger {
	if stderr == nil {
		stderr = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.LevelKey = "L"
	encCfg.NameKey = "N"
	encCfg.CallerKey = ""
	encCfg.FunctionKey = ""
	encCfg.MessageKey = "M"
	encCfg.StacktraceKey = ""
	encCfg.LineEnding = reset + zapcore.DefaultLineEnding
	encCfg.EncodeDuration = zapcore.StringDurationEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encCfg.EncodeLevel = lineColorLevelEncoder
	encCfg.ConsoleSeparator = " "

	var opts []zap.Option
	if debug {
		encCfg.CallerKey = "C"
		encCfg.StacktraceKey = "S"
		opts = append(opts, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	var core zapcore.Core = zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(stderr),
		zap.NewAtomicLevelAt(Level(verbose, debug)),
	)
	if !debug {
		core = plainErrors{core}
	}

	return zap.New(core, opts...).Named("layerconfirm").Sugar()
}

// OrNop returns log, or a logger that discards everything when log is nil
func OrNop(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}
