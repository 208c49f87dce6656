package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a log verbosity level.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a level name into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "verbose":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

var (
	mu      sync.RWMutex
	current = LevelInfo
	atom    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar   = newSugar(zapcore.Lock(os.Stderr))
)

func newSugar(ws zapcore.WriteSyncer) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, atom)
	return zap.New(core).Sugar()
}

// SetLevel changes the global verbosity.
func SetLevel(l Level) {
	mu.Lock()
	current = l
	mu.Unlock()
	atom.SetLevel(zapLevel(l))
}

// GetLevel returns the global verbosity.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(ws zapcore.WriteSyncer) {
	mu.Lock()
	sugar = newSugar(ws)
	mu.Unlock()
}

// Sync flushes buffered entries.
func Sync() {
	_ = get().Sync()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelTrace, LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Trace logs only when the level is trace; zap has no level below debug.
func Trace(format string, args ...any) {
	if GetLevel() > LevelTrace {
		return
	}
	get().Debugf("[trace] "+format, args...)
}

func Debug(format string, args ...any) { get().Debugf(format, args...) }

func Info(format string, args ...any) { get().Infof(format, args...) }

func Warn(format string, args ...any) { get().Warnf(format, args...) }

func Error(format string, args ...any) { get().Errorf(format, args...) }
