// Package logger provides the process-wide structured logger, built on
// zap with optional rotating file output via lumberjack.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func toZapLevel(l string) zapcore.Level {
	levels := map[Level]zapcore.Level{
		LevelDebug: zapcore.DebugLevel,
		LevelInfo:  zapcore.InfoLevel,
		LevelWarn:  zapcore.WarnLevel,
		LevelError: zapcore.ErrorLevel,
	}
	if level, ok := levels[Level(l)]; ok {
		return level
	}
	return zapcore.InfoLevel
}

// Options configures the process logger.
type Options struct {
	Stdout     bool   `config:"stdout"`
	Level      string `config:"level"`
	Filename   string `config:"filename"`
	MaxSize    int    `config:"maxSize"` // MB
	MaxAge     int    `config:"maxAge"`  // days
	MaxBackups int    `config:"maxBackups"`
}

var sugared = newDefault()

func newDefault() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stdout"}
	l, _ := cfg.Build()
	return l.Sugar()
}

// SetOptions installs a new logger core built from the given options.
// Called once at startup by daemon.New; config reloads do not call it.
func SetOptions(opts Options) {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var cores []zapcore.Core
	level := toZapLevel(opts.Level)

	if opts.Stdout || opts.Filename == "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.Lock(os.Stdout),
			level,
		))
	}

	if opts.Filename != "" {
		if dir := filepath.Dir(opts.Filename); dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		w := &lumberjack.Logger{
			Filename:   opts.Filename,
			MaxSize:    opts.MaxSize,
			MaxAge:     opts.MaxAge,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(w),
			level,
		))
	}

	core := zapcore.NewTee(cores...)
	sugared = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

func Debugf(format string, args ...any) { sugared.Debugf(format, args...) }
func Infof(format string, args ...any)  { sugared.Infof(format, args...) }
func Warnf(format string, args ...any)  { sugared.Warnf(format, args...) }
func Errorf(format string, args ...any) { sugared.Errorf(format, args...) }

// Sync flushes any buffered log entries, best-effort.
func Sync() {
	_ = sugared.Sync()
}
