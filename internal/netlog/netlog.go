// Package netlog is the process-wide structured logger every connection
// worker writes through (spec §9 "implicit state leakage via global logger":
// retained as a singleton with explicit init/teardown, not ad-hoc globals).
package netlog

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the singleton logger, grounded on
// packetd-packetd/logger.Options (same field shape, same MB/day units).
type Options struct {
	Stdout     bool   `mapstructure:"stdout"`
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxSize"`
	MaxAge     int    `mapstructure:"maxAge"`
	MaxBackups int    `mapstructure:"maxBackups"`
}

func toZapLevel(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger wraps a *zap.SugaredLogger with the connection trace-id field every
// call site attaches (spec §5's per-connection worker needs a stable id to
// correlate its log lines across a request's lifetime).
type Logger struct {
	sugared *zap.SugaredLogger
}

func (l Logger) Debugf(template string, args ...any) { l.sugared.Debugf(template, args...) }
func (l Logger) Infof(template string, args ...any)  { l.sugared.Infof(template, args...) }
func (l Logger) Warnf(template string, args ...any)  { l.sugared.Warnf(template, args...) }
func (l Logger) Errorf(template string, args ...any) { l.sugared.Errorf(template, args...) }

// WithConn returns a child logger tagged with a fresh connection trace id,
// used once per accepted connection so every line a worker emits for that
// connection can be grepped out of a shared log stream.
func (l Logger) WithConn() (Logger, string) {
	id := uuid.NewString()
	return Logger{sugared: l.sugared.With("conn", id)}, id
}

func newLogger(opt Options) Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format("2006-01-02 15:04:05.000"))
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	var w zapcore.WriteSyncer
	if opt.Stdout || opt.Filename == "" {
		w = zapcore.AddSync(os.Stdout)
	} else {
		if err := os.MkdirAll(filepath.Dir(opt.Filename), 0o755); err != nil {
			panic(err)
		}
		w = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opt.Filename,
			MaxSize:    opt.MaxSize,
			MaxBackups: opt.MaxBackups,
			MaxAge:     opt.MaxAge,
			LocalTime:  true,
		})
	}

	core := zapcore.NewCore(encoder, w, toZapLevel(opt.Level))
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return Logger{sugared: zl.Sugar()}
}

var std = newLogger(Options{Stdout: true, Level: "info"})

// Init replaces the process-wide logger. Call once at startup (cmd/polyservd
// main); never after workers have started logging from other goroutines
// without quiescing them first.
func Init(opt Options) { std = newLogger(opt) }

// Sync flushes any buffered log entries; call once on shutdown.
func Sync() { _ = std.sugared.Sync() }

func Debugf(template string, args ...any) { std.Debugf(template, args...) }
func Infof(template string, args ...any)  { std.Infof(template, args...) }
func Warnf(template string, args ...any)  { std.Warnf(template, args...) }
func Errorf(template string, args ...any) { std.Errorf(template, args...) }

// WithConn tags a new per-connection child logger off the process singleton.
func WithConn() (Logger, string) { return std.WithConn() }
