package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base = zap.NewNop()

// Init builds the process logger (called once from main).
// LOG_LEVEL selects the minimum level, LOG_FORMAT=console switches to a human-readable encoder.
func Init() {
	base = build(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

func build(level, format string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			lvl = zapcore.InfoLevel
		}
	}

	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewExample()
	}
	return l
}

// Named returns a child logger for a side channel such as gateway diagnostics.
func Named(name string) *zap.SugaredLogger {
	return base.WithOptions(zap.AddCallerSkip(-1)).Named(name).Sugar()
}

func Infof(format string, v ...any) {
	base.Sugar().Infof(format, v...)
}

func Warnf(format string, v ...any) {
	base.Sugar().Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	base.Sugar().Errorf(format, v...)
}

func Debugf(format string, v ...any) {
	base.Sugar().Debugf(format, v...)
}

func Fatalf(format string, v ...any) {
	base.Sugar().Fatalf(format, v...)
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = base.Sync()
}
