package logging

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger is a wrapper around the log.Logger from the charmbracelet/log package.
// Buffer is only set on loggers built by NewTestLogger.
type Logger struct {
	*log.Logger
	Buffer *SyncBuffer
}

// SyncBuffer is a bytes.Buffer guarded by a mutex. Child loggers made by With
// each carry their own lock but share the writer, so the writer locks itself.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Reset discards everything written so far.
func (b *SyncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

var (
	logger *Logger
	once   sync.Once
	mu     sync.Mutex
)

// CreateLogger sets up the logger. It must be called before using the logger.
func CreateLogger() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		logger = &Logger{Logger: newBaseLogger(os.Stderr, os.Getenv("DEBUG") == "1")}
	})
}

func newBaseLogger(w io.Writer, debug bool) *log.Logger {
	if !debug {
		baseLogger := log.New(w)
		baseLogger.SetLevel(log.InfoLevel)
		return baseLogger
	}

	baseLogger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "modelshelf",
	})
	baseLogger.SetLevel(log.DebugLevel)
	return baseLogger
}

// NewTestLogger returns a debug-level logger writing into an in-memory buffer.
func NewTestLogger() *Logger {
	buf := new(SyncBuffer)
	baseLogger := log.NewWithOptions(buf, log.Options{Level: log.DebugLevel})
	return &Logger{Logger: baseLogger, Buffer: buf}
}

// SetTestLogger replaces the package logger.
func SetTestLogger(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	once.Do(func() {})
	logger = l
}

// ResetForTest drops the package logger so the next call re-creates it.
func ResetForTest() {
	mu.Lock()
	defer mu.Unlock()
	logger = nil
	once = sync.Once{}
}

// With returns a child logger carrying keyvals that shares the parent's buffer.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...), Buffer: l.Buffer}
}

// GetOutput returns everything a test logger has written so far.
func (l *Logger) GetOutput() string {
	if l.Buffer == nil {
		return ""
	}
	return l.Buffer.String()
}

// BaseLogger returns the underlying *log.Logger.
func (l *Logger) BaseLogger() *log.Logger {
	return l.Logger
}

// Debug logs debug messages if debug logging is enabled.
func Debug(msg interface{}, keyvals ...interface{}) {
	GetLogger().Debug(msg, keyvals...)
}

// Info logs informational messages.
func Info(msg interface{}, keyvals ...interface{}) {
	GetLogger().Info(msg, keyvals...)
}

// Warn logs warning messages.
func Warn(msg interface{}, keyvals ...interface{}) {
	GetLogger().Warn(msg, keyvals...)
}

// Error logs error messages.
func Error(msg interface{}, keyvals ...interface{}) {
	GetLogger().Error(msg, keyvals...)
}

// Fatal logs a fatal message and exits the program.
func Fatal(msg interface{}, keyvals ...interface{}) {
	GetLogger().Fatal(msg, keyvals...)
}

// GetLogger returns the Logger instance.
func GetLogger() *Logger {
	EnsureInitialized()
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// EnsureInitialized creates the package logger on first use.
func EnsureInitialized() {
	mu.Lock()
	ready := logger != nil
	mu.Unlock()
	if !ready {
		CreateLogger()
	}
}
