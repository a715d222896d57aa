// Package logger provides leveled logging for the announcer.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type leveledLogger struct {
	level Level
	out   *log.Logger
}

var std = &leveledLogger{
	level: InfoLevel,
	out:   log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
}

// Init configures the package logger. The text format adds caller locations
// for local debugging; the default stays terse for service logs.
func Init(level string, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	std = &leveledLogger{
		level: ParseLevel(level),
		out:   log.New(os.Stderr, "", flags),
	}
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	std.out.SetOutput(w)
}

func (l *leveledLogger) emit(level Level, tag, format string, args ...interface{}) {
	if l.level > level {
		return
	}
	_ = l.out.Output(3, fmt.Sprintf(tag+" "+format, args...))
}

func Debug(format string, args ...interface{}) {
	std.emit(DebugLevel, "[DEBUG]", format, args...)
}

func Info(format string, args ...interface{}) {
	std.emit(InfoLevel, "[INFO]", format, args...)
}

func Warn(format string, args ...interface{}) {
	std.emit(WarnLevel, "[WARN]", format, args...)
}

func Error(format string, args ...interface{}) {
	std.emit(ErrorLevel, "[ERROR]", format, args...)
}

func Fatal(format string, args ...interface{}) {
	_ = std.out.Output(3, fmt.Sprintf("[FATAL] "+format, args...))
	os.Exit(1)
}
