// Package logger is the process-wide printf-style logger.
//
// Output never goes to stdout: the stdio MCP transport owns it. Lines are
// written to stderr and, when a file path is configured, to a rotating file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much is logged.
type Options struct {
	Level      string `json:"level"       mapstructure:"level"`
	File       string `json:"file"        mapstructure:"file"`
	MaxSizeMB  int    `json:"max-size"    mapstructure:"max-size"`
	MaxBackups int    `json:"max-backups" mapstructure:"max-backups"`
	MaxAgeDays int    `json:"max-age"     mapstructure:"max-age"`
	Compress   bool   `json:"compress"    mapstructure:"compress"`
	// Quiet drops the stderr sink; only the file (if any) receives output.
	Quiet bool `json:"quiet" mapstructure:"quiet"`
}

var (
	mu     sync.Mutex
	std    = newDefault()
	closer io.Closer
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return l
}

// Init configures the package logger from opts. It may be called again;
// the previous file sink is closed.
func Init(opts Options) error {
	level := logrus.InfoLevel
	if opts.Level != "" {
		lv, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = lv
	}

	var (
		writers []io.Writer
		file    *lumberjack.Logger
	)
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		writers = append(writers, file)
	}

	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
	switch len(writers) {
	case 0:
		std.SetOutput(io.Discard)
	case 1:
		std.SetOutput(writers[0])
	default:
		std.SetOutput(io.MultiWriter(writers...))
	}
	std.SetLevel(level)
	if file != nil {
		closer = file
	}
	return nil
}

// InitLog is shorthand for Init with a file sink at path.
func InitLog(path string) error {
	return Init(Options{File: path, MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7})
}

// FlushLog closes the file sink, if any.
func FlushLog() {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
}

// SetOutput redirects all log output to w. Intended for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

// Writer returns an io.Writer that logs each write at the given level.
// Used to route third-party loggers through this package.
func Writer(level string) *io.PipeWriter {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	return std.WriterLevel(lv)
}

// SetLevel changes the minimum level without touching the sinks.
func SetLevel(level string) error {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	std.SetLevel(lv)
	return nil
}

// IsDebug reports whether debug lines are currently emitted.
func IsDebug() bool {
	return std.IsLevelEnabled(logrus.DebugLevel)
}

func entry() *logrus.Logger { return std }

func Debug(format string, args ...any) { entry().Debugf(format, args...) }
func Info(format string, args ...any)  { entry().Infof(format, args...) }
func Warn(format string, args ...any)  { entry().Warnf(format, args...) }
func Error(format string, args ...any) { entry().Errorf(format, args...) }

// DebugX logs with a module field attached.
func DebugX(module, format string, args ...any) {
	entry().WithField("module", module).Debugf(format, args...)
}

func InfoX(module, format string, args ...any) {
	entry().WithField("module", module).Infof(format, args...)
}

func WarnX(module, format string, args ...any) {
	entry().WithField("module", module).Warnf(format, args...)
}

func ErrorX(module, format string, args ...any) {
	entry().WithField("module", module).Errorf(format, args...)
}
