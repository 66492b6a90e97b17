package reactor

// logging.go - package-level structured logging for the reactor core.
//
// This mirrors a cross-cutting, pluggable logging seam: a zero-overhead
// built-in implementation by default, with an interface narrow enough
// that a caller can plug in a richer backend (zerolog, logrus, slog, ...)
// without this package depending on any of them.

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel is the severity of a log entry.
type LogLevel int32

const (
	// LevelTrace is for per-descriptor lifecycle noise (construct/destruct).
	LevelTrace LogLevel = iota
	// LevelDebug is for state transitions useful when diagnosing a stuck loop.
	LevelDebug
	// LevelWarn is for benign, swallowed conditions (EINTR, short timerfd reads).
	LevelWarn
	// LevelError is for recovered callback panics and fatal poller errors.
	LevelError
)

// String returns the level's name.
func (l LogLevel) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// LogEntry is a single structured log record.
type LogEntry struct {
	Level     LogLevel
	Category  string // "channel", "poller", "timer", "loop", "pool", "signal", "thread"
	LoopName  string
	FD        int
	TimerSeq  uint64
	Message   string
	Err       error
	Timestamp time.Time
}

// Logger is the structured logging interface consumed by the reactor core.
type Logger interface {
	Log(entry LogEntry)
	IsEnabled(level LogLevel) bool
}

var globalLogger struct {
	sync.RWMutex
	logger Logger
}

// SetLogger installs the package-wide Logger. Passing nil restores the
// no-op logger.
func SetLogger(logger Logger) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = logger
}

func getLogger() Logger {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	if globalLogger.logger != nil {
		return globalLogger.logger
	}
	return noOpLogger{}
}

func logf(level LogLevel, category string, err error, format string, args ...any) {
	l := getLogger()
	if !l.IsEnabled(level) {
		return
	}
	l.Log(LogEntry{
		Level:     level,
		Category:  category,
		Message:   fmt.Sprintf(format, args...),
		Err:       err,
		Timestamp: time.Now(),
	})
}

type noOpLogger struct{}

func (noOpLogger) Log(LogEntry) {}

func (noOpLogger) IsEnabled(LogLevel) bool { return false }

// DefaultLogger is a minimal text Logger writing to an *os.File, enabled
// for this process by calling SetLogger(NewDefaultLogger(level)).
type DefaultLogger struct {
	level atomic.Int32
	mu    sync.Mutex
	Out   *os.File
}

// NewDefaultLogger creates a DefaultLogger writing to os.Stderr at the
// given minimum level.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	l := &DefaultLogger{Out: os.Stderr}
	l.level.Store(int32(level))
	return l
}

// SetLevel changes the minimum level dynamically.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

// IsEnabled reports whether level would be logged.
func (l *DefaultLogger) IsEnabled(level LogLevel) bool {
	return level >= LogLevel(l.level.Load())
}

// Log writes entry as a single line of the form:
//
//	TIME LEVEL [category] message loop=.. fd=.. timer=.. err=..
func (l *DefaultLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.Out, "%s %-5s [%-7s] %s",
		entry.Timestamp.Format("15:04:05.000"),
		entry.Level, entry.Category, entry.Message)
	if entry.LoopName != "" {
		fmt.Fprintf(l.Out, " loop=%s", entry.LoopName)
	}
	if entry.FD != 0 {
		fmt.Fprintf(l.Out, " fd=%d", entry.FD)
	}
	if entry.TimerSeq != 0 {
		fmt.Fprintf(l.Out, " timer=%d", entry.TimerSeq)
	}
	if entry.Err != nil {
		fmt.Fprintf(l.Out, " err=%v", entry.Err)
	}
	fmt.Fprintln(l.Out)
}
