// Package logger provides structured logging for Fluidinfo.
//
// Messages carry a timestamp, the process and goroutine IDs, the level,
// and the call site, so a single log line is enough to locate the code
// that emitted it:
//
//	YYYY/MM/DD HH:MM:SS.ssssss [PID:GID] [LEVEL] function.file:line: message
//
// Level checks use an atomic load, so a disabled Debug call costs one
// comparison and no allocation. The logger is safe for concurrent use
// from every layer of the process.
package logger

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// Level is the severity of a log message. Messages below the configured
// minimum level are dropped.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var (
	minLevel  atomic.Int32
	out       = log.New(os.Stdout, "", 0)
	processID = os.Getpid()
)

func init() {
	minLevel.Store(int32(LevelInfo))
}

// SetLogLevel sets the minimum level from its name, case-insensitively,
// matching the `log-level` config field ("debug", "info", "warn",
// "error").
func SetLogLevel(name string) error {
	for level, n := range levelNames {
		if strings.EqualFold(name, n) {
			minLevel.Store(int32(level))
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s", name)
}

// GetLogLevel returns the current minimum level's name.
func GetLogLevel() string {
	return levelNames[Level(minLevel.Load())]
}

// Debug logs fine-grained flow detail: store round trips, cache hits
// and misses, per-batch index updates.
func Debug(format string, args ...any) { emit(LevelDebug, format, args...) }

// Info logs normal lifecycle events: startup, shutdown, entity creation.
func Info(format string, args ...any) { emit(LevelInfo, format, args...) }

// Warn logs degraded-but-continuing conditions, such as a truncated
// result.
func Warn(format string, args ...any) { emit(LevelWarn, format, args...) }

// Error logs failures that surface to a caller or abort an operation.
func Error(format string, args ...any) { emit(LevelError, format, args...) }

// Fatal logs at ERROR and exits the process. Only process wiring
// (main) should call it; library code returns errors instead.
func Fatal(format string, args ...any) {
	emit(LevelError, format, args...)
	os.Exit(1)
}

func emit(level Level, format string, args ...any) {
	if level < Level(minLevel.Load()) {
		return
	}
	// Skip emit and its exported wrapper to reach the real call site.
	pc, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "unknown", 0
	}
	if idx := strings.LastIndex(file, "/"); idx != -1 {
		file = file[idx+1:]
	}
	file = strings.TrimSuffix(file, ".go")

	function := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name := fn.Name()
		if idx := strings.LastIndex(name, "."); idx != -1 {
			name = name[idx+1:]
		}
		function = name
	}

	timestamp := time.Now().Format("2006/01/02 15:04:05.000000")
	out.Printf("%s [%d:%d] [%s] %s.%s:%d: %s",
		timestamp, processID, goroutineID(), levelNames[level], function, file, line,
		fmt.Sprintf(format, args...))
}

// goroutineID parses the current goroutine's ID out of its stack
// header, standing in for a thread ID in log correlation.
func goroutineID() int {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(string(buf[:n]))
	if len(fields) < 2 {
		return 0
	}
	id := 0
	fmt.Sscanf(fields[1], "%d", &id)
	return id
}
