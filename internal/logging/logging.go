// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/five82/wakubase/internal/metrics"
)

// Options configure Init. A zero Options logs info and above to nowhere.
type Options struct {
	Level      string // zerolog level name; empty means info
	File       string // rolling log file; empty disables file logging
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console receives human readable output when set (CLI commands use
	// stderr; the TUI owns the terminal and leaves this nil).
	Console io.Writer
	Metrics *metrics.Metrics
}

// MetricsHook counts log statements per level.
type MetricsHook struct {
	Metrics *metrics.Metrics
}

// Run implements zerolog.Hook.
func (h MetricsHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level != zerolog.NoLevel {
		h.Metrics.CountLog(level.String())
	}
}

// Init replaces log.Logger according to opts. The returned closer flushes
// and closes the log file.
func Init(opts Options) (io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q is not supported: %w", opts.Level, err)
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		roller := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		writers = append(writers, roller)
		closer = roller
	}
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: time.Kitchen,
		})
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Hook(MetricsHook{Metrics: opts.Metrics}).
		With().Timestamp().Logger()
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
