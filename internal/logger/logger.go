package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level represents a logging severity level
type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelPanic
)

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
	if os.Getenv("TOKENBRUSH_DEBUG") == "1" {
		currentLevel.Store(int32(LevelDebug))
	}
}

// ParseLevel parses a level name like "info" or "debug"
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	case "panic":
		return LevelPanic, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level: %q", s)
}

// SetLevel sets the global logging level
func SetLevel(l Level) {
	currentLevel.Store(int32(l))
}

// GetLevel returns the current global logging level
func GetLevel() Level {
	return Level(currentLevel.Load())
}

func logf(l Level, tag, format string, args ...any) {
	if l < GetLevel() {
		return
	}
	log.Printf("["+tag+"] "+format, args...)
}

// Tracef logs at trace level
func Tracef(format string, args ...any) { logf(LevelTrace, "TRACE", format, args...) }

// Debugf logs at debug level
func Debugf(format string, args ...any) { logf(LevelDebug, "DEBUG", format, args...) }

// Infof logs at info level
func Infof(format string, args ...any) { logf(LevelInfo, "INFO", format, args...) }

// Warnf logs at warn level
func Warnf(format string, args ...any) { logf(LevelWarn, "WARN", format, args...) }

// Errorf logs at error level
func Errorf(format string, args ...any) { logf(LevelError, "ERROR", format, args...) }

// Fatalf logs at fatal level and exits
func Fatalf(format string, args ...any) {
	logf(LevelFatal, "FATAL", format, args...)
	os.Exit(1)
}
