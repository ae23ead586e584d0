package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kingrea/ecotrack/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// New builds a JSON zap logger writing to the rolling file under
// .ecotrack/logs so the TUI keeps the terminal to itself.
func New(cfg *config.Config) (*zap.Logger, error) {
	path := cfg.LogFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    nz(cfg.Log.MaxSizeMB, 10), // megabytes
		MaxBackups: nz(cfg.Log.MaxBackups, 3),
		MaxAge:     nz(cfg.Log.MaxAgeDays, 7), // days
		Compress:   cfg.Log.Compress,
	}
	return NewWithSink(zapcore.AddSync(sink), cfg.Log.Level), nil
}

// NewWithSink builds the same logger over an arbitrary writer. Used by the
// serve command to log to stdout.
func NewWithSink(ws zapcore.WriteSyncer, level string) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), ws, ParseLevel(level))
	opts := []zap.Option{zap.AddCaller()}
	if level == "debug" {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...)
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// ParseLevel maps a config level name to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

func nz(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
