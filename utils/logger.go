package utils

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides leveled, printf-style logging throughout the application.
type Logger struct {
	internal *zap.SugaredLogger
}

// NewLogger creates a Logger at info level writing coloured console output.
func NewLogger() *Logger {
	l, err := NewLoggerWithLevel("info")
	if err != nil {
		// "info" always parses
		panic(err)
	}
	return l
}

// NewLoggerWithLevel creates a Logger for the given level name
// (debug, info, warn, error).
func NewLoggerWithLevel(level string) (*Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	conf := zap.NewDevelopmentConfig()
	conf.Level = lvl
	conf.Encoding = "console"
	conf.DisableStacktrace = true
	conf.DisableCaller = true
	conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	conf.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	conf.OutputPaths = []string{"stdout"}
	conf.ErrorOutputPaths = []string{"stderr"}

	z, err := conf.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{internal: z.Sugar()}, nil
}

// NewNopLogger returns a Logger that discards everything. Used by tests and
// the terminal dashboard, which owns stdout.
func NewNopLogger() *Logger {
	return &Logger{internal: zap.NewNop().Sugar()}
}

// NewFileLogger writes to path instead of stdout.
func NewFileLogger(path, level string) (*Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(f), lvl)
	return &Logger{internal: zap.New(core).Sugar()}, nil
}

func (l *Logger) Info(format string, args ...any) {
	l.internal.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.internal.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.internal.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.internal.Debugf(format, args...)
}

// Sync flushes buffered output.
func (l *Logger) Sync() {
	_ = l.internal.Sync()
}
